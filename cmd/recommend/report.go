package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/temcen/cartrec/pkg/models"
)

var rule = strings.Repeat("=", 70)

// outputFileName keeps path separators in the user id from escaping the
// working directory.
func outputFileName(userID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(userID)
	return "recommendations_" + safe + ".json"
}

func writeReport(w io.Writer, resp *models.RecommendationResponse) {
	fmt.Fprintf(w, "\n%s\nPRODUCT RECOMMENDATIONS FOR USER: %s\n%s\n", rule, resp.UserID, rule)

	uc := resp.UserContext
	fmt.Fprintf(w, "\nUSER ACTIVITY:\n")
	fmt.Fprintf(w, "   - Cart Items: %d\n", uc.CartItemsCount)
	fmt.Fprintf(w, "   - Liked Items: %d\n", uc.LikedItemsCount)

	if len(uc.CartItems) > 0 {
		fmt.Fprintf(w, "\nIN CART:\n")
		for _, item := range uc.CartItems {
			fmt.Fprintf(w, "   - %s (%s) x%d\n", item.Name, item.Category, item.Quantity)
		}
	}

	if len(uc.LikedItems) > 0 {
		fmt.Fprintf(w, "\nLIKED:\n")
		for _, item := range uc.LikedItems {
			fmt.Fprintf(w, "   - %s\n", item.Name)
		}
	}

	fmt.Fprintf(w, "\nRECOMMENDED FOR YOU (%d items, %s):\n%s\n", resp.RecommendationCount, resp.ModelUsed, strings.Repeat("-", 70))
	for i, rec := range resp.Recommendations {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, rec.Name)
		fmt.Fprintf(w, "   Category: %s\n", rec.Category)
		fmt.Fprintf(w, "   Price: %s\n", formatPrice(rec.Price))
		fmt.Fprintf(w, "   Description: %s\n", rec.Description)
		if len(rec.Sizes) > 0 {
			fmt.Fprintf(w, "   Sizes: %s\n", strings.Join(rec.Sizes, ", "))
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", rule)
}

func formatPrice(price *float64) string {
	if price == nil {
		return "n/a"
	}
	return "₹" + strconv.FormatFloat(*price, 'f', -1, 64)
}
