package catalog

import (
	"fmt"
	"reflect"
	"testing"

	"catalog-api/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// axesFromSizes builds axes a0..ak with sizes[i] distinct values each
func axesFromSizes(sizes []int) domain.Variants {
	axes := make(domain.Variants, len(sizes))
	for i, n := range sizes {
		values := make([]string, n)
		for j := range values {
			values[j] = fmt.Sprintf("v%d", j)
		}
		axes[i] = domain.VariantAxis{Name: fmt.Sprintf("a%d", i), Values: values}
	}
	return axes
}

// axisSizesGen generates between 0 and 4 axes, each with 1..maxValues values
func axisSizesGen(maxValues int) gopter.Gen {
	return gen.IntRange(0, 4).FlatMap(func(k interface{}) gopter.Gen {
		return gen.SliceOfN(k.(int), gen.IntRange(1, maxValues))
	}, reflect.TypeOf([]int{}))
}

// Property: combination count is the product of axis sizes and every combination is unique
func TestProperty_CombinationCountIsProductOfAxisSizes(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("generator returns n1*n2*...*nk unique combinations", prop.ForAll(
		func(sizes []int) bool {
			axes := axesFromSizes(sizes)
			expected := 1
			for _, n := range sizes {
				expected *= n
			}

			combinations := GenerateCombinations(axes)
			if len(combinations) != expected {
				t.Logf("FAIL: sizes %v produced %d combinations, expected %d", sizes, len(combinations), expected)
				return false
			}
			if dup, found := FindDuplicateCombination(combinations); found {
				t.Logf("FAIL: duplicate combination %s", dup)
				return false
			}
			for _, c := range combinations {
				if len(c) != len(axes) {
					t.Logf("FAIL: combination %s does not select one value per axis", c)
					return false
				}
			}
			return true
		},
		axisSizesGen(4),
	))

	properties.Property("count helper agrees with the generator", prop.ForAll(
		func(sizes []int) bool {
			axes := axesFromSizes(sizes)
			return CombinationCount(axes, 1000) == len(GenerateCombinations(axes))
		},
		axisSizesGen(3),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestGenerateCombinations_EmptyAxesYieldSingleEmptyCombination(t *testing.T) {
	combinations := GenerateCombinations(nil)

	require.Len(t, combinations, 1)
	assert.Empty(t, combinations[0])
}

func TestGenerateCombinations_FirstAxisVariesSlowest(t *testing.T) {
	axes := domain.Variants{
		{Name: "color", Values: []string{"red", "blue"}},
		{Name: "size", Values: []string{"S", "M", "L"}},
	}

	combinations := GenerateCombinations(axes)

	expected := []domain.VariantCombination{
		{"color": "red", "size": "S"},
		{"color": "red", "size": "M"},
		{"color": "red", "size": "L"},
		{"color": "blue", "size": "S"},
		{"color": "blue", "size": "M"},
		{"color": "blue", "size": "L"},
	}
	assert.Equal(t, expected, combinations)
}

func TestCombinationCount_SaturatesAboveLimit(t *testing.T) {
	axes := axesFromSizes([]int{10, 10, 10, 10})

	assert.Equal(t, 101, CombinationCount(axes, 100))
	assert.Equal(t, 10000, CombinationCount(axes, 10000))
}

func TestFindDuplicateCombination_IgnoresKeyOrder(t *testing.T) {
	combinations := []domain.VariantCombination{
		{"color": "red", "size": "S"},
		{"size": "M", "color": "red"},
		{"size": "S", "color": "red"},
	}

	dup, found := FindDuplicateCombination(combinations)

	require.True(t, found)
	assert.True(t, dup.Equal(domain.VariantCombination{"color": "red", "size": "S"}))
}
