package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProductType distinguishes physical from digital goods
type ProductType string

const (
	ProductTypePhysical ProductType = "physical"
	ProductTypeDigital  ProductType = "digital"
)

// ProductStatus is the publication state of a product
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusPublished ProductStatus = "published"
)

// ParseProductType validates a raw type value
func ParseProductType(raw string) (ProductType, error) {
	switch t := ProductType(raw); t {
	case ProductTypePhysical, ProductTypeDigital:
		return t, nil
	}
	return "", NewValidationError("Invalid product type %q", raw)
}

// ParseProductStatus validates a raw status value
func ParseProductStatus(raw string) (ProductStatus, error) {
	switch s := ProductStatus(raw); s {
	case ProductStatusDraft, ProductStatusPublished:
		return s, nil
	}
	return "", NewValidationError("Invalid product status %q", raw)
}

// TypeDetails carries the fields that exist for exactly one product type.
// Only PhysicalDetails and DigitalDetails implement it.
type TypeDetails interface {
	ProductType() ProductType
	typeDetails()
}

// PhysicalDetails holds the fields of a physical product
type PhysicalDetails struct {
	ShippingModel string
}

func (PhysicalDetails) ProductType() ProductType { return ProductTypePhysical }
func (PhysicalDetails) typeDetails()             {}

// DigitalDetails holds the fields of a digital product
type DigitalDetails struct {
	FileURL string
}

func (DigitalDetails) ProductType() ProductType { return ProductTypeDigital }
func (DigitalDetails) typeDetails()             {}

// NewTypeDetails builds the details value for t from the type-specific inputs.
// Supplying a field that does not belong to t is a validation error.
func NewTypeDetails(t ProductType, shippingModel, fileURL *string) (TypeDetails, error) {
	switch t {
	case ProductTypePhysical:
		if fileURL != nil && *fileURL != "" {
			return nil, NewValidationError("Physical products cannot have a file URL")
		}
		details := PhysicalDetails{}
		if shippingModel != nil {
			details.ShippingModel = *shippingModel
		}
		return details, nil
	case ProductTypeDigital:
		if shippingModel != nil && *shippingModel != "" {
			return nil, NewValidationError("Digital products cannot have a shipping model")
		}
		details := DigitalDetails{}
		if fileURL != nil {
			details.FileURL = *fileURL
		}
		return details, nil
	}
	return nil, NewValidationError("Invalid product type %q", t)
}

// Product is a catalog entry owned by a user. Its SKUs are derived from Variants.
type Product struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Status       ProductStatus
	CollectionID *uuid.UUID
	OwnerID      uuid.UUID
	Details      TypeDetails
	Variants     Variants
	SKUs         []*SKU
	Purchasable  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Type returns the product type, or "" when no details are set
func (p *Product) Type() ProductType {
	if p.Details == nil {
		return ""
	}
	return p.Details.ProductType()
}

// ShippingModel returns the shipping model of a physical product
func (p *Product) ShippingModel() string {
	if d, ok := p.Details.(PhysicalDetails); ok {
		return d.ShippingModel
	}
	return ""
}

// FileURL returns the download location of a digital product
func (p *Product) FileURL() string {
	if d, ok := p.Details.(DigitalDetails); ok {
		return d.FileURL
	}
	return ""
}

// Clone returns a deep copy
func (p *Product) Clone() *Product {
	c := *p
	if p.CollectionID != nil {
		id := *p.CollectionID
		c.CollectionID = &id
	}
	c.Variants = make(Variants, len(p.Variants))
	for i, axis := range p.Variants {
		c.Variants[i] = VariantAxis{Name: axis.Name, Values: append([]string(nil), axis.Values...)}
	}
	if p.SKUs != nil {
		c.SKUs = make([]*SKU, len(p.SKUs))
		for i, sku := range p.SKUs {
			c.SKUs[i] = sku.Clone()
		}
	}
	return &c
}

// ProductPatch carries the fields of a partial product update; nil means unchanged
type ProductPatch struct {
	Title         *string
	Description   *string
	Status        *ProductStatus
	Type          *ProductType
	CollectionID  *uuid.UUID
	ShippingModel *string
	FileURL       *string
	Variants      *Variants
}

type productJSON struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Type          ProductType   `json:"type"`
	Status        ProductStatus `json:"status"`
	CollectionID  *uuid.UUID    `json:"collection_id,omitempty"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	ShippingModel *string       `json:"shipping_model,omitempty"`
	FileURL       *string       `json:"file_url,omitempty"`
	Variants      Variants      `json:"variants"`
	SKUs          []*SKU        `json:"skus"`
	Purchasable   bool          `json:"purchasable"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// MarshalJSON flattens the type details into shipping_model / file_url
func (p *Product) MarshalJSON() ([]byte, error) {
	out := productJSON{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Type:         p.Type(),
		Status:       p.Status,
		CollectionID: p.CollectionID,
		OwnerID:      p.OwnerID,
		Variants:     p.Variants,
		SKUs:         p.SKUs,
		Purchasable:  p.Purchasable,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if out.Variants == nil {
		out.Variants = Variants{}
	}
	if out.SKUs == nil {
		out.SKUs = []*SKU{}
	}
	switch d := p.Details.(type) {
	case PhysicalDetails:
		out.ShippingModel = &d.ShippingModel
	case DigitalDetails:
		out.FileURL = &d.FileURL
	}
	return json.Marshal(out)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var in productJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Product{
		ID:           in.ID,
		Title:        in.Title,
		Description:  in.Description,
		Status:       in.Status,
		CollectionID: in.CollectionID,
		OwnerID:      in.OwnerID,
		Variants:     in.Variants,
		SKUs:         in.SKUs,
		Purchasable:  in.Purchasable,
		CreatedAt:    in.CreatedAt,
		UpdatedAt:    in.UpdatedAt,
	}
	if in.Type != "" {
		details, err := NewTypeDetails(in.Type, in.ShippingModel, in.FileURL)
		if err != nil {
			return err
		}
		p.Details = details
	}
	return nil
}
