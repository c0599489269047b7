package models

// DashboardSuccessMessage is the message the storefront API sends with a
// usable dashboard payload.
const DashboardSuccessMessage = "User dashboard retrieved successfully"

// APIEnvelope is the storefront API's success wrapper.
type APIEnvelope[T any] struct {
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Dashboard is the per-user snapshot served by /users/{id}/dashboard.
type Dashboard struct {
	UserID        string            `json:"userId"`
	Cart          Cart              `json:"cart"`
	LikedProducts LikedProductsList `json:"likedProducts"`
	AllProducts   []CatalogProduct  `json:"allProducts"`
}

// CatalogProduct is a product as stored by the storefront. Everything except
// the id is optional.
type CatalogProduct struct {
	ProductID   string   `json:"products_id"`
	Name        string   `json:"name,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
}

type Cart struct {
	UserID     string     `json:"userId,omitempty"`
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice float64    `json:"totalPrice,omitempty"`
}

type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

type LikedProductsList struct {
	UserID     string         `json:"userId,omitempty"`
	Products   []LikedProduct `json:"products"`
	TotalLiked int            `json:"totalLiked"`
}

type LikedProduct struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	AddedAt     string `json:"addedAt,omitempty"`
}
