package catalog

import (
	"context"
	"errors"
	"strings"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

// Validation messages surfaced to clients
const (
	MsgTitleRequired           = "Title is required"
	MsgTypeRequired            = "Product type is required"
	MsgStatusRequired          = "Product status is required"
	MsgPublishedRequirements   = "Published products require title, description and collection"
	MsgCollectionNotFound      = "Collection not found"
	MsgCollectionInactive      = "Collection is not active"
	MsgPhysicalShippingModel   = "Physical products require shipping model"
	MsgDigitalFileURL          = "Digital products require file URL"
	MsgPublishedRequiresSKU    = "Published products require at least one SKU"
	MsgTooManyCombinations     = "Variants produce more SKUs than allowed"
	MsgTypeChangeWithSKUData   = "Product type cannot change once SKUs carry price or stock"
	MsgOwnerMismatch           = "You are not the owner of this product"
	MsgProductHasNoSKUs        = "Product has no SKUs"
	MsgDimensionsNotAllowed    = "Digital products cannot have dimensions"
	MsgNegativeSKUValue        = "SKU price, quantity and dimensions must be non-negative"
	MsgPricePrecision          = "SKU price cannot have more than 2 decimal places"
	MsgPriceTooLarge           = "SKU price must be less than 10000000000"
	MsgQuantityTooLarge        = "SKU quantity cannot exceed 2147483647"
	MsgCombinationNotFoundFmt  = "SKU combination not found: %s"
	MsgDuplicateCombinationFmt = "Duplicate variant combination: %s"
)

// CollectionResolver looks up a collection. A missing collection is reported
// with an error matching domain.ErrNotFound.
type CollectionResolver interface {
	ResolveCollection(ctx context.Context, id uuid.UUID) (*domain.Collection, error)
}

// ValidateProduct applies the status/type rule table to a candidate product.
//
// Drafts only need title, type and status. Published products additionally need a
// description and an active collection, then the type-specific field.
func ValidateProduct(ctx context.Context, p *domain.Product, collections CollectionResolver) error {
	if strings.TrimSpace(p.Title) == "" {
		return domain.NewValidationError(MsgTitleRequired)
	}
	if p.Details == nil {
		return domain.NewValidationError(MsgTypeRequired)
	}
	switch p.Status {
	case domain.ProductStatusDraft:
		return nil
	case domain.ProductStatusPublished:
	case "":
		return domain.NewValidationError(MsgStatusRequired)
	default:
		return domain.NewValidationError("Invalid product status %q", p.Status)
	}

	if strings.TrimSpace(p.Description) == "" || p.CollectionID == nil {
		return domain.NewValidationError(MsgPublishedRequirements)
	}
	if err := ValidateCollection(ctx, *p.CollectionID, collections); err != nil {
		return err
	}

	switch d := p.Details.(type) {
	case domain.PhysicalDetails:
		if strings.TrimSpace(d.ShippingModel) == "" {
			return domain.NewValidationError(MsgPhysicalShippingModel)
		}
	case domain.DigitalDetails:
		if strings.TrimSpace(d.FileURL) == "" {
			return domain.NewValidationError(MsgDigitalFileURL)
		}
	}
	return nil
}

// ValidateCollection requires the referenced collection to exist and be active
func ValidateCollection(ctx context.Context, id uuid.UUID, collections CollectionResolver) error {
	collection, err := collections.ResolveCollection(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError(MsgCollectionNotFound)
		}
		return err
	}
	if !collection.IsActive {
		return domain.NewValidationError(MsgCollectionInactive)
	}
	return nil
}

// RequireSKUs enforces that a published product owns at least one SKU
func RequireSKUs(status domain.ProductStatus, skuCount int) error {
	if status == domain.ProductStatusPublished && skuCount == 0 {
		return domain.NewValidationError(MsgPublishedRequiresSKU)
	}
	return nil
}
