package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantCombination_EqualityIgnoresInsertionOrder(t *testing.T) {
	a := VariantCombination{}
	a["color"] = "red"
	a["size"] = "S"
	b := VariantCombination{}
	b["size"] = "S"
	b["color"] = "red"

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Equal(VariantCombination{"color": "red"}))
	assert.False(t, a.Equal(VariantCombination{"color": "red", "size": "M"}))
	assert.False(t, a.Equal(VariantCombination{"color": "red", "fit": "S"}))
	assert.Equal(t, "{color=red, size=S}", a.String())
}

func TestVariantCombination_ScanAcceptsStringAndBytes(t *testing.T) {
	var fromString, fromBytes, fromNil VariantCombination

	require.NoError(t, fromString.Scan(`{"size":"M","color":"blue"}`))
	require.NoError(t, fromBytes.Scan([]byte(`{"color":"blue","size":"M"}`)))
	require.NoError(t, fromNil.Scan(nil))

	assert.True(t, fromString.Equal(fromBytes))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)
	assert.Error(t, fromNil.Scan(42))
}

func TestVariants_NormalizedDoesNotMutate(t *testing.T) {
	v := Variants{
		{Name: "size", Values: []string{"M", "S"}},
		{Name: "color", Values: []string{"red", "blue"}},
	}

	n := v.Normalized()

	assert.Equal(t, Variants{
		{Name: "color", Values: []string{"blue", "red"}},
		{Name: "size", Values: []string{"M", "S"}},
	}, n)
	assert.Equal(t, "size", v[0].Name)
	assert.Equal(t, []string{"red", "blue"}, v[1].Values)
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("update failed: %w", NewValidationError("Physical products require shipping model"))

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, NewValidationError("Physical products require shipping model"))
	assert.NotErrorIs(t, err, NewValidationError("Digital products require file URL"))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestParseID(t *testing.T) {
	id := uuid.New()

	parsed, err := ParseID("product", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("product", "not-a-uuid")
	assert.ErrorIs(t, err, ErrFormat)
	assert.EqualError(t, err, "Invalid product id format")
}

func TestNewTypeDetails_FieldSetsAreExclusive(t *testing.T) {
	shipping, file := "standard", "https://files.example.com/a.pdf"

	details, err := NewTypeDetails(ProductTypePhysical, &shipping, nil)
	require.NoError(t, err)
	assert.Equal(t, PhysicalDetails{ShippingModel: "standard"}, details)

	details, err = NewTypeDetails(ProductTypeDigital, nil, &file)
	require.NoError(t, err)
	assert.Equal(t, DigitalDetails{FileURL: file}, details)

	_, err = NewTypeDetails(ProductTypePhysical, &shipping, &file)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTypeDetails(ProductTypeDigital, &shipping, &file)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTypeDetails("service", nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProduct_JSONKeepsTypeDetails(t *testing.T) {
	collectionID := uuid.New()
	p := &Product{
		ID:           uuid.New(),
		Title:        "Poster",
		Status:       ProductStatusPublished,
		CollectionID: &collectionID,
		OwnerID:      uuid.New(),
		Details:      DigitalDetails{FileURL: "https://files.example.com/poster.png"},
		Variants:     Variants{{Name: "format", Values: []string{"A3", "A4"}}},
		SKUs:         []*SKU{NewSKU(uuid.New(), VariantCombination{"format": "A3"}, time.Now())},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"digital"`)
	assert.NotContains(t, string(data), "shipping_model")

	var decoded Product
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ProductTypeDigital, decoded.Type())
	assert.Equal(t, p.FileURL(), decoded.FileURL())
	assert.Equal(t, "", decoded.ShippingModel())
	require.Len(t, decoded.SKUs, 1)
	assert.True(t, decoded.SKUs[0].Combination.Equal(VariantCombination{"format": "A3"}))
}

func TestProduct_CloneIsDeep(t *testing.T) {
	p := &Product{
		Variants: Variants{{Name: "size", Values: []string{"S"}}},
		SKUs:     []*SKU{{Combination: VariantCombination{"size": "S"}, Dimensions: &Dimensions{Width: 1}}},
	}

	c := p.Clone()
	c.Variants[0].Values[0] = "M"
	c.SKUs[0].Combination["size"] = "M"
	c.SKUs[0].Dimensions.Width = 2

	assert.Equal(t, "S", p.Variants[0].Values[0])
	assert.Equal(t, "S", p.SKUs[0].Combination["size"])
	assert.Equal(t, 1.0, p.SKUs[0].Dimensions.Width)
}
