package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = domain.NewNotFoundError("Product not found")
)

// ProductRepository defines the interface for product data access.
// Returned products never have SKUs populated; see SKURepository.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// FindByIDForUpdate also locks the row until the enclosing transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CountByCollection(ctx context.Context, collectionID uuid.UUID) (int, error)
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, title, description, type, status, collection_id, owner_id,
	shipping_model, file_url, variants, purchasable, created_at, updated_at`

// typeColumns splits the type details into the nullable shipping_model / file_url columns
func typeColumns(product *domain.Product) (sql.NullString, sql.NullString) {
	var shippingModel, fileURL sql.NullString
	switch d := product.Details.(type) {
	case domain.PhysicalDetails:
		shippingModel = sql.NullString{String: d.ShippingModel, Valid: d.ShippingModel != ""}
	case domain.DigitalDetails:
		fileURL = sql.NullString{String: d.FileURL, Valid: d.FileURL != ""}
	}
	return shippingModel, fileURL
}

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	shippingModel, fileURL := typeColumns(product)
	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Title,
		product.Description,
		string(product.Type()),
		string(product.Status),
		uuid.NullUUID{UUID: derefUUID(product.CollectionID), Valid: product.CollectionID != nil},
		product.OwnerID,
		shippingModel,
		fileURL,
		product.Variants,
		product.Purchasable,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites every mutable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET title = $2, description = $3, type = $4, status = $5, collection_id = $6,
		    shipping_model = $7, file_url = $8, variants = $9, purchasable = $10, updated_at = $11
		WHERE id = $1
	`

	shippingModel, fileURL := typeColumns(product)
	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Title,
		product.Description,
		string(product.Type()),
		string(product.Status),
		uuid.NullUUID{UUID: derefUUID(product.CollectionID), Valid: product.CollectionID != nil},
		shippingModel,
		fileURL,
		product.Variants,
		product.Purchasable,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product. Its SKUs must already be gone.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, query, id)
}

// CountByCollection counts products referencing a collection
func (r *productRepository) CountByCollection(ctx context.Context, collectionID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE collection_id = $1`, collectionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products by collection: %w", err)
	}
	return count, nil
}

func (r *productRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*domain.Product, error) {
	var (
		product       = &domain.Product{}
		productType   string
		status        string
		collectionID  uuid.NullUUID
		shippingModel sql.NullString
		fileURL       sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&productType,
		&status,
		&collectionID,
		&product.OwnerID,
		&shippingModel,
		&fileURL,
		&product.Variants,
		&product.Purchasable,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	product.Status = domain.ProductStatus(status)
	if collectionID.Valid {
		product.CollectionID = &collectionID.UUID
	}

	switch domain.ProductType(productType) {
	case domain.ProductTypePhysical:
		product.Details = domain.PhysicalDetails{ShippingModel: shippingModel.String}
	case domain.ProductTypeDigital:
		product.Details = domain.DigitalDetails{FileURL: fileURL.String}
	default:
		return nil, fmt.Errorf("product %s has unknown type %q", product.ID, productType)
	}

	return product, nil
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
