package catalog

import "catalog-api/internal/domain"

// StockReader is a SKU view that may or may not have its stock resolved.
// *domain.SKU always resolves; domain.SKURef never does.
type StockReader interface {
	StockQuantity() (quantity int, resolved bool)
}

// CalculatePurchasable reports whether a product with the given status can be bought:
// it must be published and at least one resolved SKU must have stock.
// Unresolved references count as unavailable.
func CalculatePurchasable[S StockReader](status domain.ProductStatus, skus []S) bool {
	if status != domain.ProductStatusPublished {
		return false
	}
	for _, sku := range skus {
		if quantity, ok := sku.StockQuantity(); ok && quantity > 0 {
			return true
		}
	}
	return false
}
