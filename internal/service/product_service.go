package service

import (
	"context"
	"fmt"
	"time"

	"catalog-api/internal/cache"
	"catalog-api/internal/catalog"
	"catalog-api/internal/domain"
	"catalog-api/internal/metrics"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService defines the product lifecycle. Every mutation runs in a single
// transaction and leaves the product, its SKUs and its purchasable flag consistent.
type ProductService interface {
	Create(ctx context.Context, candidate *domain.Product, ownerID uuid.UUID) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch, ownerID uuid.UUID) (*domain.Product, error)
	Remove(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error
	UpdateSKUs(ctx context.Context, productID uuid.UUID, patches []domain.SKUPatch, ownerID uuid.UUID) (*domain.Product, error)
}

// ProductServiceConfig carries the collaborators of the product service
type ProductServiceConfig struct {
	Transactor        repository.Transactor
	Cache             cache.ProductCache
	Metrics           *metrics.Metrics
	Logger            *zap.Logger
	MaxSKUsPerProduct int
	Clock             func() time.Time
}

type productService struct {
	tx      repository.Transactor
	cache   cache.ProductCache
	metrics *metrics.Metrics
	logger  *zap.Logger
	sync    skuSynchronizer
	now     func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(cfg ProductServiceConfig) ProductService {
	now := cfg.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	productCache := cfg.Cache
	if productCache == nil {
		productCache = cache.Noop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &productService{
		tx:      cfg.Transactor,
		cache:   productCache,
		metrics: cfg.Metrics,
		logger:  logger,
		sync:    skuSynchronizer{maxSKUs: cfg.MaxSKUsPerProduct, now: now},
		now:     now,
	}
}

// Create validates the candidate, persists it and generates its SKUs
func (s *productService) Create(ctx context.Context, candidate *domain.Product, ownerID uuid.UUID) (*domain.Product, error) {
	var (
		created   *domain.Product
		generated int
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		now := s.now()
		product := candidate.Clone()
		product.ID = uuid.New()
		product.OwnerID = ownerID
		product.SKUs = nil
		product.Purchasable = false
		product.CreatedAt = now
		product.UpdatedAt = now
		if product.Variants == nil {
			product.Variants = domain.Variants{}
		}

		if err := catalog.ValidateProduct(ctx, product, store.Collections()); err != nil {
			return err
		}
		// Published products already had their collection checked above
		if product.CollectionID != nil && product.Status != domain.ProductStatusPublished {
			if err := catalog.ValidateCollection(ctx, *product.CollectionID, store.Collections()); err != nil {
				return err
			}
		}
		if err := catalog.ValidateVariants(product.Variants); err != nil {
			return err
		}

		if err := store.Products().Create(ctx, product); err != nil {
			return err
		}

		product.SKUs = []*domain.SKU{}
		if len(product.Variants) > 0 {
			n, err := s.sync.Synchronize(ctx, store.SKUs(), product.ID, nil, product.Variants)
			if err != nil {
				return err
			}
			generated = n

			if err := s.refresh(ctx, store, product); err != nil {
				return err
			}
		}

		if product.Status == domain.ProductStatusPublished {
			skus, err := store.SKUs().ListByProduct(ctx, product.ID)
			if err != nil {
				return err
			}
			if err := catalog.RequireSKUs(product.Status, len(skus)); err != nil {
				return err
			}
		}

		created = product
		return nil
	})
	s.metrics.ObserveOperation("create", err)
	if err != nil {
		return nil, err
	}
	s.metrics.AddGeneratedSKUs(generated)

	s.logger.Info("Product created",
		zap.String("product_id", created.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int("skus", len(created.SKUs)),
	)
	return created, nil
}

// Get returns a product with its SKUs populated, served from the cache when possible
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	cached, hit, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("Product cache read failed", zap.String("product_id", id.String()), zap.Error(err))
	}
	s.metrics.ObserveCacheLookup(hit)
	if hit {
		return cached, nil
	}

	var product *domain.Product
	err = s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		p, err := store.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if p.SKUs, err = store.SKUs().ListByProduct(ctx, id); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, product); err != nil {
		s.logger.Warn("Product cache write failed", zap.String("product_id", id.String()), zap.Error(err))
	}
	return product, nil
}

// Update merges patch into the stored product, regenerating SKUs when the variant matrix changes
func (s *productService) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch, ownerID uuid.UUID) (*domain.Product, error) {
	var (
		updated   *domain.Product
		generated int
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		existing, err := s.loadOwned(ctx, store, id, ownerID)
		if err != nil {
			return err
		}

		merged, err := applyProductPatch(existing, patch)
		if err != nil {
			return err
		}

		if err := catalog.ValidateProduct(ctx, merged, store.Collections()); err != nil {
			return err
		}
		if patch.CollectionID != nil {
			if err := catalog.ValidateCollection(ctx, *patch.CollectionID, store.Collections()); err != nil {
				return err
			}
		}
		if patch.Variants != nil {
			if err := catalog.ValidateVariants(merged.Variants); err != nil {
				return err
			}
		}

		typeChanged := merged.Type() != existing.Type()
		if typeChanged {
			for _, sku := range existing.SKUs {
				if sku.HasCommercialData() {
					return domain.NewValidationError(catalog.MsgTypeChangeWithSKUData)
				}
			}
		}

		generated, err = s.sync.Synchronize(ctx, store.SKUs(), id, existing.Variants, merged.Variants)
		if err != nil {
			return err
		}

		now := s.now()
		if typeChanged && generated == 0 && merged.Type() == domain.ProductTypeDigital {
			if err := store.SKUs().ClearDimensions(ctx, id, now); err != nil {
				return err
			}
		}

		merged.UpdatedAt = now
		if err := s.refresh(ctx, store, merged); err != nil {
			return err
		}
		if err := catalog.RequireSKUs(merged.Status, len(merged.SKUs)); err != nil {
			return err
		}

		updated = merged
		return nil
	})
	s.metrics.ObserveOperation("update", err)
	if err != nil {
		return nil, err
	}
	s.metrics.AddGeneratedSKUs(generated)

	s.invalidate(ctx, id, updated.UpdatedAt)
	s.logger.Info("Product updated",
		zap.String("product_id", id.String()),
		zap.String("status", string(updated.Status)),
		zap.Bool("purchasable", updated.Purchasable),
	)
	return updated, nil
}

// Remove deletes a product and every SKU it owns
func (s *productService) Remove(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		product, err := store.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product.OwnerID != ownerID {
			return domain.NewOwnershipError(catalog.MsgOwnerMismatch)
		}

		deleted, err := store.SKUs().DeleteByProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete product skus: %w", err)
		}
		if err := store.Products().Delete(ctx, id); err != nil {
			return err
		}

		s.logger.Debug("Product SKUs deleted", zap.String("product_id", id.String()), zap.Int64("count", deleted))
		return nil
	})
	s.metrics.ObserveOperation("remove", err)
	if err != nil {
		return err
	}

	if err := s.cache.Evict(ctx, id); err != nil {
		s.logger.Warn("Product cache eviction failed", zap.String("product_id", id.String()), zap.Error(err))
	}
	s.logger.Info("Product removed", zap.String("product_id", id.String()))
	return nil
}

// UpdateSKUs applies partial price, quantity and dimension changes to SKUs matched by combination
func (s *productService) UpdateSKUs(ctx context.Context, productID uuid.UUID, patches []domain.SKUPatch, ownerID uuid.UUID) (*domain.Product, error) {
	var updated *domain.Product

	err := s.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		product, err := s.loadOwned(ctx, store, productID, ownerID)
		if err != nil {
			return err
		}
		if len(product.SKUs) == 0 {
			return domain.NewValidationError(catalog.MsgProductHasNoSKUs)
		}

		now := s.now()
		changed := make([]*domain.SKU, 0, len(patches))
		for _, patch := range patches {
			sku := findSKU(product.SKUs, patch.Combination)
			if sku == nil {
				return domain.NewConflictError(catalog.MsgCombinationNotFoundFmt, patch.Combination.String())
			}
			if err := applySKUPatch(sku, patch, product.Type()); err != nil {
				return err
			}
			sku.UpdatedAt = now
			changed = append(changed, sku)
		}

		for _, sku := range changed {
			if err := store.SKUs().Update(ctx, sku); err != nil {
				return err
			}
		}

		product.Purchasable = catalog.CalculatePurchasable(product.Status, product.SKUs)
		product.UpdatedAt = now
		if err := store.Products().Update(ctx, product); err != nil {
			return err
		}

		updated = product
		return nil
	})
	s.metrics.ObserveOperation("update_skus", err)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, productID, updated.UpdatedAt)
	s.logger.Info("Product SKUs updated",
		zap.String("product_id", productID.String()),
		zap.Int("patches", len(patches)),
		zap.Bool("purchasable", updated.Purchasable),
	)
	return updated, nil
}

// loadOwned locks the product row, checks ownership and populates its SKUs
func (s *productService) loadOwned(ctx context.Context, store repository.Store, id, ownerID uuid.UUID) (*domain.Product, error) {
	product, err := store.Products().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.OwnerID != ownerID {
		return nil, domain.NewOwnershipError(catalog.MsgOwnerMismatch)
	}
	if product.SKUs, err = store.SKUs().ListByProduct(ctx, id); err != nil {
		return nil, err
	}
	return product, nil
}

// refresh reloads the SKUs of product, recomputes purchasable and persists the product row
func (s *productService) refresh(ctx context.Context, store repository.Store, product *domain.Product) error {
	skus, err := store.SKUs().ListByProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	product.SKUs = skus
	product.Purchasable = catalog.CalculatePurchasable(product.Status, skus)
	return store.Products().Update(ctx, product)
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID, version time.Time) {
	if err := s.cache.Invalidate(ctx, id, version); err != nil {
		s.logger.Warn("Product cache invalidation failed", zap.String("product_id", id.String()), zap.Error(err))
	}
}

// applyProductPatch returns a copy of existing with every provided patch field applied
func applyProductPatch(existing *domain.Product, patch domain.ProductPatch) (*domain.Product, error) {
	merged := existing.Clone()

	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.CollectionID != nil {
		id := *patch.CollectionID
		merged.CollectionID = &id
	}
	if patch.Variants != nil {
		merged.Variants = *patch.Variants
		if merged.Variants == nil {
			merged.Variants = domain.Variants{}
		}
	}

	if patch.Type != nil || patch.ShippingModel != nil || patch.FileURL != nil {
		productType := existing.Type()
		if patch.Type != nil {
			productType = *patch.Type
		}

		shippingModel, fileURL := patch.ShippingModel, patch.FileURL
		// Keep the stored type field unless it is being replaced or the type changes
		if productType == existing.Type() {
			if shippingModel == nil && productType == domain.ProductTypePhysical {
				current := existing.ShippingModel()
				shippingModel = &current
			}
			if fileURL == nil && productType == domain.ProductTypeDigital {
				current := existing.FileURL()
				fileURL = &current
			}
		}

		details, err := domain.NewTypeDetails(productType, shippingModel, fileURL)
		if err != nil {
			return nil, err
		}
		merged.Details = details
	}

	return merged, nil
}

func findSKU(skus []*domain.SKU, combination domain.VariantCombination) *domain.SKU {
	for _, sku := range skus {
		if sku.Combination.Equal(combination) {
			return sku
		}
	}
	return nil
}

func applySKUPatch(sku *domain.SKU, patch domain.SKUPatch, productType domain.ProductType) error {
	if patch.Price != nil {
		switch price := *patch.Price; {
		case price.IsNegative():
			return domain.NewValidationError(catalog.MsgNegativeSKUValue)
		case !price.Equal(price.Round(domain.PriceScale)):
			return domain.NewValidationError(catalog.MsgPricePrecision)
		case price.GreaterThanOrEqual(domain.PriceLimit):
			return domain.NewValidationError(catalog.MsgPriceTooLarge)
		}
	}
	if patch.Quantity != nil {
		switch {
		case *patch.Quantity < 0:
			return domain.NewValidationError(catalog.MsgNegativeSKUValue)
		case *patch.Quantity > domain.MaxQuantity:
			return domain.NewValidationError(catalog.MsgQuantityTooLarge)
		}
	}
	if patch.Dimensions != nil {
		if productType != domain.ProductTypePhysical {
			return domain.NewValidationError(catalog.MsgDimensionsNotAllowed)
		}
		if !patch.Dimensions.Valid() {
			return domain.NewValidationError(catalog.MsgNegativeSKUValue)
		}
	}

	if patch.Price != nil {
		sku.Price = *patch.Price
	}
	if patch.Quantity != nil {
		sku.Quantity = *patch.Quantity
	}
	if patch.Dimensions != nil {
		dims := *patch.Dimensions
		sku.Dimensions = &dims
	}
	return nil
}
