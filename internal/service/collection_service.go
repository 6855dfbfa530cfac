package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CollectionService manages the collections products are published into
type CollectionService interface {
	Create(ctx context.Context, input CreateCollectionInput, ownerID uuid.UUID) (*domain.Collection, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Collection, error)
	List(ctx context.Context) ([]*domain.Collection, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Collection, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateCollectionInput holds the fields of a new collection. Slug defaults to a slug of Name.
type CreateCollectionInput struct {
	Name        string
	Slug        string
	Description string
	Active      bool
}

type collectionService struct {
	tx     repository.Transactor
	logger *zap.Logger
	now    func() time.Time
}

// NewCollectionService creates a new instance of CollectionService
func NewCollectionService(tx repository.Transactor, logger *zap.Logger) CollectionService {
	return &collectionService{
		tx:     tx,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and joins its alphanumeric runs with dashes
func Slugify(name string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *collectionService) Create(ctx context.Context, input CreateCollectionInput, ownerID uuid.UUID) (*domain.Collection, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.NewValidationError("Collection name is required")
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, domain.NewValidationError("Collection slug must contain letters or digits")
	}

	now := s.now()
	collection := &domain.Collection{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		IsActive:    input.Active,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		return store.Collections().Create(ctx, collection)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Collection created", zap.String("collection_id", collection.ID.String()), zap.String("slug", slug))
	return collection, nil
}

func (s *collectionService) Get(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	var collection *domain.Collection
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		collection, err = store.Collections().FindByID(ctx, id)
		return err
	})
	return collection, err
}

func (s *collectionService) List(ctx context.Context) ([]*domain.Collection, error) {
	var collections []*domain.Collection
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		collections, err = store.Collections().List(ctx)
		return err
	})
	return collections, err
}

// SetActive toggles the collection. Products already published into it are left as they are.
func (s *collectionService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Collection, error) {
	var collection *domain.Collection
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.Collections().SetActive(ctx, id, active, s.now()); err != nil {
			return err
		}
		var err error
		collection, err = store.Collections().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Collection activity changed", zap.String("collection_id", id.String()), zap.Bool("active", active))
	return collection, nil
}

// Delete removes a collection no product references
func (s *collectionService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if _, err := store.Collections().FindByID(ctx, id); err != nil {
			return err
		}
		count, err := store.Products().CountByCollection(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.NewConflictError("Collection is still referenced by %d products", count)
		}
		return store.Collections().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Collection deleted", zap.String("collection_id", id.String()))
	return nil
}
