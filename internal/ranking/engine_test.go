package ranking

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 {
	return &v
}

func product(id, category string, p float64) Product {
	return Product{ID: id, Name: "Product " + id, Category: category, Price: price(p)}
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestRank_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		catalog  []Product
		activity *Activity
		limit    int
		expected []string
	}{
		{
			name: "cart category match then price fill",
			catalog: []Product{
				product("A", "shoes", 50),
				product("B", "shoes", 80),
				product("C", "bags", 30),
			},
			activity: NewActivity([]CartItem{{ProductID: "A", Category: "shoes", Quantity: 1}}, nil),
			limit:    2,
			expected: []string{"B", "C"},
		},
		{
			name: "no activity sorts by price with stable ties",
			catalog: []Product{
				product("A", "", 10),
				product("B", "", 40),
				product("C", "", 40),
			},
			activity: NewActivity(nil, nil),
			limit:    3,
			expected: []string{"B", "C", "A"},
		},
		{
			name: "catalog exhausted returns shorter list",
			catalog: []Product{
				product("A", "shoes", 10),
				product("B", "shoes", 20),
				product("C", "bags", 30),
			},
			activity: NewActivity([]CartItem{{ProductID: "C", Category: "bags", Quantity: 2}}, nil),
			limit:    5,
			expected: []string{"B", "A"},
		},
		{
			name: "liked id missing from catalog is ignored",
			catalog: []Product{
				product("A", "shoes", 10),
				product("B", "bags", 20),
			},
			activity: NewActivity(nil, []LikedItem{{ProductID: "ghost", Name: "Ghost"}}),
			limit:    2,
			expected: []string{"B", "A"},
		},
		{
			name: "everything excluded yields empty result",
			catalog: []Product{
				product("A", "shoes", 10),
				product("B", "bags", 20),
			},
			activity: NewActivity(
				[]CartItem{{ProductID: "A", Category: "shoes", Quantity: 1}},
				[]LikedItem{{ProductID: "B"}},
			),
			limit:    3,
			expected: []string{},
		},
		{
			name: "liked category after cart category",
			catalog: []Product{
				product("A", "shoes", 10),
				product("B", "bags", 90),
				product("C", "hats", 5),
				product("D", "shoes", 15),
				product("E", "hats", 7),
			},
			activity: NewActivity(
				[]CartItem{{ProductID: "A", Category: "shoes", Quantity: 1}},
				[]LikedItem{{ProductID: "C"}},
			),
			limit:    3,
			expected: []string{"D", "E", "B"},
		},
		{
			name: "missing price sorts as zero",
			catalog: []Product{
				{ID: "A", Category: "x"},
				product("B", "x", 1),
				product("C", "x", 0),
			},
			activity: NewActivity(nil, nil),
			limit:    3,
			expected: []string{"B", "A", "C"},
		},
		{
			name: "empty category matches Uncategorized cart item",
			catalog: []Product{
				product("A", "", 5),
				product("B", "Uncategorized", 1),
				product("C", "bags", 100),
				product("D", "", 2),
			},
			activity: NewActivity([]CartItem{{ProductID: "A", Quantity: 1}}, nil),
			limit:    2,
			expected: []string{"B", "D"},
		},
		{
			name: "cart item category is matched even when cart product is absent from catalog",
			catalog: []Product{
				product("A", "bags", 10),
				product("B", "shoes", 20),
			},
			activity: NewActivity([]CartItem{{ProductID: "Z", Category: "bags", Quantity: 1}}, nil),
			limit:    1,
			expected: []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Rank(tt.catalog, tt.activity, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(result))
		})
	}
}

func TestRank_InvalidInput(t *testing.T) {
	catalog := []Product{product("A", "shoes", 1)}
	activity := NewActivity(nil, nil)

	tests := []struct {
		name     string
		catalog  []Product
		activity *Activity
		limit    int
	}{
		{"nil catalog", nil, activity, 1},
		{"nil activity", catalog, nil, 1},
		{"zero limit", catalog, activity, 0},
		{"negative limit", catalog, activity, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Rank(tt.catalog, tt.activity, tt.limit)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, result)
		})
	}

	t.Run("empty catalog is valid", func(t *testing.T) {
		result, err := Rank([]Product{}, activity, 3)
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

func TestRank_CartCategoryAloneSatisfiesLimit(t *testing.T) {
	catalog := []Product{
		product("A", "shoes", 1),
		product("B", "bags", 999),
		product("C", "shoes", 2),
		product("D", "shoes", 3),
		product("E", "shoes", 4),
	}
	activity := NewActivity([]CartItem{{ProductID: "A", Category: "shoes", Quantity: 1}}, nil)

	result, err := Rank(catalog, activity, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "D"}, ids(result))
}

func TestRank_DoesNotMutateCatalog(t *testing.T) {
	catalog := []Product{
		product("A", "x", 1),
		product("B", "x", 3),
		product("C", "x", 2),
	}
	before := ids(catalog)

	_, err := Rank(catalog, NewActivity(nil, nil), 3)
	require.NoError(t, err)
	assert.Equal(t, before, ids(catalog))
}

func randomCatalog(r *rand.Rand, n int) []Product {
	categories := []string{"shoes", "bags", "hats", ""}
	catalog := make([]Product, n)
	for i := range catalog {
		catalog[i] = Product{
			ID:       fmt.Sprintf("p%d", i),
			Category: categories[r.Intn(len(categories))],
		}
		if r.Intn(5) > 0 {
			catalog[i].Price = price(float64(r.Intn(6) * 10))
		}
	}
	return catalog
}

func randomActivity(r *rand.Rand, catalog []Product) *Activity {
	var cart []CartItem
	var liked []LikedItem
	for _, p := range catalog {
		switch r.Intn(6) {
		case 0:
			cart = append(cart, CartItem{ProductID: p.ID, Category: p.Category, Quantity: 1 + r.Intn(3)})
		case 1:
			liked = append(liked, LikedItem{ProductID: p.ID})
		}
	}
	return NewActivity(cart, liked)
}

func TestRank_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		catalog := randomCatalog(r, r.Intn(25))
		activity := randomActivity(r, catalog)
		limit := 1 + r.Intn(10)

		result, err := Rank(catalog, activity, limit)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(result), limit)

		seen := make(map[string]bool)
		for _, p := range result {
			assert.False(t, activity.IsExcluded(p.ID), "excluded product %s returned", p.ID)
			assert.False(t, seen[p.ID], "duplicate product %s returned", p.ID)
			seen[p.ID] = true
		}

		again, err := Rank(catalog, activity, limit)
		require.NoError(t, err)
		assert.Equal(t, ids(result), ids(again))

		eligible := 0
		for _, p := range catalog {
			if !activity.IsExcluded(p.ID) {
				eligible++
			}
		}
		assert.Equal(t, min(limit, eligible), len(result))
	}
}

func TestRank_PriceFallbackMatchesStableSort(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		catalog := randomCatalog(r, 1+r.Intn(20))
		var liked []LikedItem
		for _, p := range catalog {
			if r.Intn(4) == 0 {
				liked = append(liked, LikedItem{ProductID: p.ID})
			}
		}
		// Exclusions without cart or liked items cannot be expressed through
		// NewActivity, so build the view directly.
		activity := NewActivity(nil, nil)
		for _, l := range liked {
			activity.ExcludedIDs[l.ProductID] = struct{}{}
		}

		var expected []string
		for _, p := range SortByPriceDesc(catalog) {
			if !activity.IsExcluded(p.ID) {
				expected = append(expected, p.ID)
			}
		}
		if expected == nil {
			expected = []string{}
		}

		result, err := Rank(catalog, activity, len(catalog))
		require.NoError(t, err)
		assert.Equal(t, expected, ids(result))
	}
}

func TestNewActivity_ExcludedIDs(t *testing.T) {
	activity := NewActivity(
		[]CartItem{{ProductID: "a"}, {ProductID: "b"}},
		[]LikedItem{{ProductID: "b"}, {ProductID: "c"}},
	)

	assert.Len(t, activity.ExcludedIDs, 3)
	for _, id := range []string{"a", "b", "c"} {
		assert.True(t, activity.IsExcluded(id))
	}
	assert.False(t, activity.IsExcluded("d"))
}
