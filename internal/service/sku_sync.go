package service

import (
	"context"
	"fmt"
	"time"

	"catalog-api/internal/catalog"
	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

// skuSynchronizer regenerates a product's SKUs whenever its variant matrix changes
type skuSynchronizer struct {
	maxSKUs int
	now     func() time.Time
}

// checkCapacity rejects variant matrices that would produce more than maxSKUs SKUs
func (s skuSynchronizer) checkCapacity(variants domain.Variants) error {
	if s.maxSKUs > 0 && catalog.CombinationCount(variants, s.maxSKUs) > s.maxSKUs {
		return domain.NewValidationError(catalog.MsgTooManyCombinations)
	}
	return nil
}

// Synchronize compares the variant sets order-insensitively. When they differ it
// deletes every SKU of the product and inserts one zeroed SKU per combination.
// It reports the number of SKUs generated, zero when nothing changed.
func (s skuSynchronizer) Synchronize(
	ctx context.Context,
	skus repository.SKURepository,
	productID uuid.UUID,
	oldVariants, newVariants domain.Variants,
) (int, error) {
	if !catalog.HasVariantsChanged(oldVariants, newVariants) {
		return 0, nil
	}

	if err := s.checkCapacity(newVariants); err != nil {
		return 0, err
	}

	combinations := catalog.GenerateCombinations(newVariants)
	if dup, found := catalog.FindDuplicateCombination(combinations); found {
		return 0, domain.NewConflictError(catalog.MsgDuplicateCombinationFmt, dup.String())
	}

	if _, err := skus.DeleteByProduct(ctx, productID); err != nil {
		return 0, fmt.Errorf("failed to clear skus: %w", err)
	}

	now := s.now()
	generated := make([]*domain.SKU, len(combinations))
	for i, combination := range combinations {
		generated[i] = domain.NewSKU(productID, combination, now)
	}

	if err := skus.CreateMany(ctx, generated); err != nil {
		return 0, err
	}

	return len(generated), nil
}
