package services

import (
	"github.com/temcen/cartrec/internal/ranking"
	"github.com/temcen/cartrec/pkg/models"
)

// toCatalog converts storefront products into ranking products, keeping
// catalog order.
func toCatalog(products []models.CatalogProduct) []ranking.Product {
	catalog := make([]ranking.Product, 0, len(products))
	for _, p := range products {
		catalog = append(catalog, ranking.Product{
			ID:          p.ProductID,
			Name:        p.Name,
			Category:    p.Category,
			Price:       p.Price,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			Sizes:       p.Sizes,
		})
	}
	return catalog
}

// toActivity builds the per-request activity view from a dashboard.
func toActivity(dashboard *models.Dashboard) *ranking.Activity {
	cart := make([]ranking.CartItem, 0, len(dashboard.Cart.Items))
	for _, item := range dashboard.Cart.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		cart = append(cart, ranking.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			Quantity:  quantity,
		})
	}

	liked := make([]ranking.LikedItem, 0, len(dashboard.LikedProducts.Products))
	for _, item := range dashboard.LikedProducts.Products {
		liked = append(liked, ranking.LikedItem{
			ProductID: item.ProductID,
			Name:      item.ProductName,
		})
	}

	return ranking.NewActivity(cart, liked)
}

func toUserContext(dashboard *models.Dashboard, activity *ranking.Activity) models.UserContext {
	uc := models.UserContext{
		CartItemsCount:  dashboard.Cart.TotalItems,
		LikedItemsCount: dashboard.LikedProducts.TotalLiked,
		CartItems:       make([]models.ContextCartItem, 0, len(activity.CartItems)),
		LikedItems:      make([]models.ContextLikedItem, 0, len(activity.LikedItems)),
	}
	for _, item := range activity.CartItems {
		uc.CartItems = append(uc.CartItems, models.ContextCartItem{
			ID:       item.ProductID,
			Name:     item.Name,
			Category: item.Category,
			Quantity: item.Quantity,
		})
	}
	for _, item := range activity.LikedItems {
		uc.LikedItems = append(uc.LikedItems, models.ContextLikedItem{
			ID:   item.ProductID,
			Name: item.Name,
		})
	}
	return uc
}

func toRecommendations(products []ranking.Product) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(products))
	for _, p := range products {
		sizes := p.Sizes
		if sizes == nil {
			sizes = []string{}
		}
		recs = append(recs, models.Recommendation{
			ProductID:   p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Category:    p.Category,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			Sizes:       sizes,
		})
	}
	return recs
}

func productIDs(products []ranking.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}
