package catalog

import (
	"strings"

	"catalog-api/internal/domain"
)

// HasVariantsChanged compares two axis lists ignoring axis order and per-axis value order
func HasVariantsChanged(oldVariants, newVariants domain.Variants) bool {
	if len(oldVariants) != len(newVariants) {
		return true
	}
	a, b := oldVariants.Normalized(), newVariants.Normalized()
	for i := range a {
		if a[i].Name != b[i].Name || len(a[i].Values) != len(b[i].Values) {
			return true
		}
		for j := range a[i].Values {
			if a[i].Values[j] != b[i].Values[j] {
				return true
			}
		}
	}
	return false
}

// ValidateVariants rejects axis lists that would generate overwritten or empty combinations
func ValidateVariants(axes domain.Variants) error {
	names := make(map[string]struct{}, len(axes))
	for _, axis := range axes {
		name := strings.TrimSpace(axis.Name)
		if name == "" {
			return domain.NewValidationError("Variant name is required")
		}
		if _, dup := names[axis.Name]; dup {
			return domain.NewValidationError("Duplicate variant name %q", axis.Name)
		}
		names[axis.Name] = struct{}{}

		if len(axis.Values) == 0 {
			return domain.NewValidationError("Variant %q must have at least one value", axis.Name)
		}
		values := make(map[string]struct{}, len(axis.Values))
		for _, value := range axis.Values {
			if strings.TrimSpace(value) == "" {
				return domain.NewValidationError("Variant %q has an empty value", axis.Name)
			}
			if _, dup := values[value]; dup {
				return domain.NewValidationError("Duplicate value %q in variant %q", value, axis.Name)
			}
			values[value] = struct{}{}
		}
	}
	return nil
}
