package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCollectionNotFound      = domain.NewNotFoundError("Collection not found")
	ErrCollectionAlreadyExists = domain.NewConflictError("Collection with this name or slug already exists")
	ErrCollectionInUse         = domain.NewConflictError("Collection is still referenced by products")
)

// CollectionRepository defines the interface for collection data access
type CollectionRepository interface {
	Create(ctx context.Context, collection *domain.Collection) error
	List(ctx context.Context) ([]*domain.Collection, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error)
	// ResolveCollection reads a collection under a share lock so it cannot be
	// deactivated or deleted before the enclosing transaction ends
	ResolveCollection(ctx context.Context, id uuid.UUID) (*domain.Collection, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type collectionRepository struct {
	db DBTX
}

// NewCollectionRepository creates a new instance of CollectionRepository
func NewCollectionRepository(db DBTX) CollectionRepository {
	return &collectionRepository{db: db}
}

const collectionColumns = `id, name, slug, description, is_active, owner_id, created_at, updated_at`

// Create inserts a new collection using parameterized queries
func (r *collectionRepository) Create(ctx context.Context, collection *domain.Collection) error {
	query := `
		INSERT INTO collections (` + collectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		collection.ID,
		collection.Name,
		collection.Slug,
		collection.Description,
		collection.IsActive,
		collection.OwnerID,
		collection.CreatedAt,
		collection.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrCollectionAlreadyExists
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// List retrieves all collections
func (r *collectionRepository) List(ctx context.Context) ([]*domain.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	collections := []*domain.Collection{}
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, collection)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}

	return collections, nil
}

// FindByID retrieves a collection by ID
func (r *collectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *collectionRepository) ResolveCollection(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE id = $1 FOR SHARE`
	return r.findOne(ctx, query, id)
}

// SetActive toggles whether products may be published into the collection
func (r *collectionRepository) SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error {
	query := `UPDATE collections SET is_active = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, active, at)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}

	return expectOneRow(result, ErrCollectionNotFound)
}

// Delete removes a collection. Callers make sure no product references it.
func (r *collectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCollectionInUse
		}
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	return expectOneRow(result, ErrCollectionNotFound)
}

func (r *collectionRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*domain.Collection, error) {
	collection, err := scanCollection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to find collection by ID: %w", err)
	}
	return collection, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (*domain.Collection, error) {
	collection := &domain.Collection{}
	err := row.Scan(
		&collection.ID,
		&collection.Name,
		&collection.Slug,
		&collection.Description,
		&collection.IsActive,
		&collection.OwnerID,
		&collection.CreatedAt,
		&collection.UpdatedAt,
	)
	return collection, err
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
