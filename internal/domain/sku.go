package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dimensions are the physical measures of a SKU; only physical products carry them
type Dimensions struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
	Length float64 `json:"length" validate:"gte=0"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

// Valid reports whether every measure is non-negative
func (d Dimensions) Valid() bool {
	return d.Width >= 0 && d.Height >= 0 && d.Length >= 0 && d.Weight >= 0
}

func (d *Dimensions) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *Dimensions) Scan(src any) error {
	data, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("failed to scan dimensions: %w", err)
	}
	if data == nil {
		return nil
	}
	return json.Unmarshal(data, d)
}

// Storable SKU bounds, matching skus.price NUMERIC(12, 2) and skus.quantity INTEGER
const (
	PriceScale  = 2
	MaxQuantity = math.MaxInt32
)

// PriceLimit is the exclusive upper bound of a SKU price
var PriceLimit = decimal.New(1, 10)

// SKU is one purchasable unit of a product, identified within the product by its combination
type SKU struct {
	ID          uuid.UUID          `json:"id"`
	ProductID   uuid.UUID          `json:"product_id"`
	Combination VariantCombination `json:"variant_combination"`
	Price       decimal.Decimal    `json:"price"`
	Quantity    int                `json:"quantity"`
	Dimensions  *Dimensions        `json:"dimensions,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewSKU creates a freshly generated SKU with zero price and stock
func NewSKU(productID uuid.UUID, combination VariantCombination, now time.Time) *SKU {
	return &SKU{
		ID:          uuid.New(),
		ProductID:   productID,
		Combination: combination,
		Price:       decimal.Zero,
		Quantity:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// StockQuantity exposes the resolved stock of a populated SKU
func (s *SKU) StockQuantity() (int, bool) {
	if s == nil {
		return 0, false
	}
	return s.Quantity, true
}

// HasCommercialData reports whether a price or stock was set after generation
func (s *SKU) HasCommercialData() bool {
	return s.Price.IsPositive() || s.Quantity > 0
}

// Clone returns a deep copy
func (s *SKU) Clone() *SKU {
	c := *s
	c.Combination = make(VariantCombination, len(s.Combination))
	for k, v := range s.Combination {
		c.Combination[k] = v
	}
	if s.Dimensions != nil {
		d := *s.Dimensions
		c.Dimensions = &d
	}
	return &c
}

// SKURef is a bare reference to a SKU whose stock has not been loaded
type SKURef struct {
	ID uuid.UUID
}

// StockQuantity never resolves for a bare reference
func (SKURef) StockQuantity() (int, bool) {
	return 0, false
}

// SKUPatch updates the SKU matching Combination; nil fields are left unchanged
type SKUPatch struct {
	Combination VariantCombination
	Price       *decimal.Decimal
	Quantity    *int
	Dimensions  *Dimensions
}
