package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// VariantAxis is a named dimension of customization, e.g. color, with its allowed values
type VariantAxis struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Variants is the ordered list of axes defined on a product.
// It is stored as a JSONB column.
type Variants []VariantAxis

// Normalized returns a copy with axes sorted by name and each axis's values sorted
func (v Variants) Normalized() Variants {
	out := make(Variants, len(v))
	for i, axis := range v {
		values := append([]string(nil), axis.Values...)
		sort.Strings(values)
		out[i] = VariantAxis{Name: axis.Name, Values: values}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (v Variants) Value() (driver.Value, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

func (v *Variants) Scan(src any) error {
	data, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("failed to scan variants: %w", err)
	}
	if data == nil {
		*v = Variants{}
		return nil
	}
	return json.Unmarshal(data, v)
}

// VariantCombination maps each axis name to one selected value.
// Two combinations are equal when they hold the same keys with the same values,
// regardless of insertion order.
type VariantCombination map[string]string

// Equal reports key/value equality
func (c VariantCombination) Equal(other VariantCombination) bool {
	if len(c) != len(other) {
		return false
	}
	for k, v := range c {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Keys returns the axis names in sorted order
func (c VariantCombination) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Key is a canonical serialization: equal combinations always produce the same key
func (c VariantCombination) Key() string {
	// encoding/json writes map keys sorted
	data, _ := json.Marshal(map[string]string(c))
	return string(data)
}

// String renders the combination as "color=red, size=S"
func (c VariantCombination) String() string {
	keys := c.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + c[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (c VariantCombination) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(c))
}

func (c *VariantCombination) Scan(src any) error {
	data, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("failed to scan variant combination: %w", err)
	}
	combination := VariantCombination{}
	if data != nil {
		if err := json.Unmarshal(data, &combination); err != nil {
			return err
		}
	}
	*c = combination
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported source type %T", src)
	}
}
