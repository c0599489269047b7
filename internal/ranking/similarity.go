package ranking

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	categoryMatchWeight = 0.6
	priceMatchWeight    = 0.4
	// Prices further apart than this fraction of the larger price add nothing.
	priceSimilarityWindow = 0.3

	cartCategoryWeight  = 2
	likedCategoryWeight = 1
	topCategoryCount    = 3
)

// Similarity scores two products in [0, 1] by category equality and price
// proximity. Price only contributes when both products have a non-zero price.
func Similarity(a, b Product) float64 {
	score := 0.0
	if a.EffectiveCategory() == b.EffectiveCategory() {
		score += categoryMatchWeight
	}

	pa, pb := a.EffectivePrice(), b.EffectivePrice()
	if pa != 0 && pb != 0 {
		diff := math.Abs(pa-pb) / math.Max(pa, pb)
		if diff < priceSimilarityWindow {
			score += priceMatchWeight * (1 - diff)
		}
	}
	return score
}

// RankBySimilarity orders non-excluded products by their mean similarity to
// the catalog products the user interacted with. Without any interacted
// product in the catalog it falls back to price descending.
func RankBySimilarity(catalog []Product, activity *Activity, limit int) ([]Product, error) {
	if err := validate(catalog, activity, limit); err != nil {
		return nil, err
	}

	var interacted []Product
	for _, p := range catalog {
		if activity.IsExcluded(p.ID) {
			interacted = append(interacted, p)
		}
	}

	sel := newSelection(activity, limit)
	if len(interacted) == 0 {
		for _, p := range SortByPriceDesc(catalog) {
			if sel.full() {
				break
			}
			sel.add(p)
		}
		return sel.products, nil
	}

	type scored struct {
		product Product
		score   float64
	}
	candidates := make([]scored, 0, len(catalog))
	similarities := make([]float64, len(interacted))
	for _, p := range catalog {
		if activity.IsExcluded(p.ID) {
			continue
		}
		for i, other := range interacted {
			similarities[i] = Similarity(p, other)
		}
		candidates = append(candidates, scored{product: p, score: stat.Mean(similarities, nil)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, c := range candidates {
		if sel.full() {
			break
		}
		sel.add(c.product)
	}
	return sel.products, nil
}

// RankByCategoryPreference weights categories by cart (x2) and likes (x1),
// keeps the three strongest, and orders their products by price descending.
// Without any category signal it returns non-excluded products in catalog
// order.
func RankByCategoryPreference(catalog []Product, activity *Activity, limit int) ([]Product, error) {
	if err := validate(catalog, activity, limit); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var order []string
	bump := func(category string, weight int) {
		if category == "" {
			return
		}
		if _, ok := counts[category]; !ok {
			order = append(order, category)
		}
		counts[category] += weight
	}

	for _, item := range activity.CartItems {
		bump(item.Category, cartCategoryWeight)
	}
	byID := make(map[string]Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}
	for _, item := range activity.LikedItems {
		if p, ok := byID[item.ProductID]; ok {
			bump(p.Category, likedCategoryWeight)
		}
	}

	sel := newSelection(activity, limit)
	if len(order) == 0 {
		for _, p := range catalog {
			if sel.full() {
				break
			}
			sel.add(p)
		}
		return sel.products, nil
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topCategoryCount {
		order = order[:topCategoryCount]
	}
	top := make(map[string]struct{}, len(order))
	for _, c := range order {
		top[c] = struct{}{}
	}

	var matching []Product
	for _, p := range catalog {
		if _, ok := top[p.Category]; ok {
			matching = append(matching, p)
		}
	}
	for _, p := range SortByPriceDesc(matching) {
		if sel.full() {
			break
		}
		sel.add(p)
	}
	return sel.products, nil
}
