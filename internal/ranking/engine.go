// Package ranking implements the deterministic rule-based product ranker.
//
// Rank selects products for a user in three passes: products sharing a
// category with the cart, products sharing a category with liked products,
// and finally the most expensive remaining products. Each pass only adds
// products that are neither already selected nor owned by the user (in the
// cart or liked). Rank holds no state between calls and performs no I/O, so it
// is safe to call concurrently.
package ranking

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidInput is returned when the catalog or activity is missing or the
// limit is below one.
var ErrInvalidInput = errors.New("invalid ranking input")

// Rank returns at most limit products from catalog for the given activity.
// A nil catalog or activity yields ErrInvalidInput; an empty catalog does not.
func Rank(catalog []Product, activity *Activity, limit int) ([]Product, error) {
	if err := validate(catalog, activity, limit); err != nil {
		return nil, err
	}

	sel := newSelection(activity, limit)

	if len(activity.CartItems) > 0 {
		sel.addMatching(catalog, activity.CartCategories())
	}

	if len(activity.LikedItems) > 0 && !sel.full() {
		sel.addMatching(catalog, likedCategories(catalog, activity))
	}

	if !sel.full() {
		for _, p := range SortByPriceDesc(catalog) {
			if sel.full() {
				break
			}
			sel.add(p)
		}
	}

	return sel.products, nil
}

func validate(catalog []Product, activity *Activity, limit int) error {
	if catalog == nil {
		return fmt.Errorf("%w: catalog is nil", ErrInvalidInput)
	}
	if activity == nil {
		return fmt.Errorf("%w: activity is nil", ErrInvalidInput)
	}
	if limit < 1 {
		return fmt.Errorf("%w: limit must be at least 1, got %d", ErrInvalidInput, limit)
	}
	return nil
}

// SortByPriceDesc returns a copy of products ordered by price descending.
// Products with equal prices keep their relative order.
func SortByPriceDesc(products []Product) []Product {
	sorted := make([]Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectivePrice() > sorted[j].EffectivePrice()
	})
	return sorted
}

// likedCategories looks liked ids up in the catalog; ids missing from the
// catalog contribute nothing.
func likedCategories(catalog []Product, activity *Activity) map[string]struct{} {
	liked := activity.LikedIDs()
	categories := make(map[string]struct{})
	for _, p := range catalog {
		if _, ok := liked[p.ID]; ok {
			categories[p.EffectiveCategory()] = struct{}{}
		}
	}
	return categories
}

type selection struct {
	activity *Activity
	limit    int
	seen     map[string]struct{}
	products []Product
}

func newSelection(activity *Activity, limit int) *selection {
	return &selection{
		activity: activity,
		limit:    limit,
		seen:     make(map[string]struct{}, limit),
		products: make([]Product, 0, limit),
	}
}

func (s *selection) full() bool {
	return len(s.products) >= s.limit
}

// add appends p unless it is excluded, already selected, or the selection is
// full. Identity is the product id.
func (s *selection) add(p Product) bool {
	if s.full() || s.activity.IsExcluded(p.ID) {
		return false
	}
	if _, dup := s.seen[p.ID]; dup {
		return false
	}
	s.seen[p.ID] = struct{}{}
	s.products = append(s.products, p)
	return true
}

func (s *selection) addMatching(catalog []Product, categories map[string]struct{}) {
	if len(categories) == 0 {
		return
	}
	for _, p := range catalog {
		if s.full() {
			return
		}
		if _, ok := categories[p.EffectiveCategory()]; ok {
			s.add(p)
		}
	}
}
