// Package catalog holds the pure rules of the product/SKU engine: variant expansion,
// change detection, purchasability and status/type validation. Nothing here performs I/O
// except through the CollectionResolver passed to the validator.
package catalog

import "catalog-api/internal/domain"

// GenerateCombinations expands the axes into their cartesian product.
//
// The first axis varies slowest. An empty axis list yields exactly one empty combination.
// Axes with no values yield no combinations; callers validate axes first (see ValidateVariants).
func GenerateCombinations(axes domain.Variants) []domain.VariantCombination {
	combinations := []domain.VariantCombination{{}}
	for _, axis := range axes {
		next := make([]domain.VariantCombination, 0, len(combinations)*len(axis.Values))
		for _, partial := range combinations {
			for _, value := range axis.Values {
				combination := make(domain.VariantCombination, len(partial)+1)
				for k, v := range partial {
					combination[k] = v
				}
				combination[axis.Name] = value
				next = append(next, combination)
			}
		}
		combinations = next
	}
	return combinations
}

// CombinationCount returns the number of combinations GenerateCombinations would produce,
// saturating at limit+1 so callers can reject oversized matrices without generating them.
func CombinationCount(axes domain.Variants, limit int) int {
	count := 1
	for _, axis := range axes {
		count *= len(axis.Values)
		if count > limit {
			return limit + 1
		}
	}
	return count
}

// FindDuplicateCombination returns the first combination whose canonical key repeats
func FindDuplicateCombination(combinations []domain.VariantCombination) (domain.VariantCombination, bool) {
	seen := make(map[string]struct{}, len(combinations))
	for _, c := range combinations {
		key := c.Key()
		if _, ok := seen[key]; ok {
			return c, true
		}
		seen[key] = struct{}{}
	}
	return nil, false
}
