package ranking

// UncategorizedCategory is the category used for products and cart items
// that carry no category.
const UncategorizedCategory = "Uncategorized"

// Product is an entry in a catalog snapshot.
type Product struct {
	ID          string
	Name        string
	Category    string
	Price       *float64
	Description string
	ImageURL    string
	Sizes       []string
}

// EffectiveCategory returns the category used for matching.
func (p Product) EffectiveCategory() string {
	return normalizeCategory(p.Category)
}

// EffectivePrice returns the price used for sorting; a missing price is 0.
func (p Product) EffectivePrice() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// CartItem is a product the user currently has in their cart.
type CartItem struct {
	ProductID string
	Name      string
	Category  string
	Quantity  int
}

// LikedItem is a product the user has liked. It carries no category.
type LikedItem struct {
	ProductID string
	Name      string
}

// Activity is the read-only view of a user's cart and likes for one request.
// Build it with NewActivity so ExcludedIDs stays in sync with the items.
type Activity struct {
	CartItems   []CartItem
	LikedItems  []LikedItem
	ExcludedIDs map[string]struct{}
}

// NewActivity builds an Activity whose exclusion set is the union of every
// cart and liked product id.
func NewActivity(cart []CartItem, liked []LikedItem) *Activity {
	excluded := make(map[string]struct{}, len(cart)+len(liked))
	for _, item := range cart {
		excluded[item.ProductID] = struct{}{}
	}
	for _, item := range liked {
		excluded[item.ProductID] = struct{}{}
	}

	return &Activity{
		CartItems:   cart,
		LikedItems:  liked,
		ExcludedIDs: excluded,
	}
}

// IsExcluded reports whether a product id must never be recommended back.
func (a *Activity) IsExcluded(id string) bool {
	_, ok := a.ExcludedIDs[id]
	return ok
}

// CartCategories returns the set of categories present in the cart.
func (a *Activity) CartCategories() map[string]struct{} {
	categories := make(map[string]struct{}, len(a.CartItems))
	for _, item := range a.CartItems {
		categories[normalizeCategory(item.Category)] = struct{}{}
	}
	return categories
}

// LikedIDs returns the set of liked product ids.
func (a *Activity) LikedIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(a.LikedItems))
	for _, item := range a.LikedItems {
		ids[item.ProductID] = struct{}{}
	}
	return ids
}

func normalizeCategory(category string) string {
	if category == "" {
		return UncategorizedCategory
	}
	return category
}
