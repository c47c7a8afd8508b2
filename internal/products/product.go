package products

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/pricing"
)

// Product is the catalog snapshot stored with cart and wishlist entries. Category and
// subcategory are kept as raw JSON because the catalog sends either strings or objects.
type Product struct {
	ID          string            `json:"id" validate:"required"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Category    json.RawMessage   `json:"category,omitempty"`
	Subcategory json.RawMessage   `json:"subcategory,omitempty"`
	Images      []json.RawMessage `json:"images,omitempty"`
	Price       pricing.RawPrice  `json:"price,omitempty"`
}

// Variant is a purchasable option of a product.
type Variant struct {
	ID    string           `json:"id"`
	Color string           `json:"color,omitempty"`
	Size  string           `json:"size,omitempty"`
	Price pricing.RawPrice `json:"price,omitempty"`
	Stock int              `json:"stock"`
	SKU   string           `json:"sku,omitempty"`
	Image string           `json:"image,omitempty"`
}

// VariantID returns the variant's id, or "" for products bought without one.
func VariantID(v *Variant) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(v.ID)
}

// UnitPrice is the variant price when known, falling back to the product price.
func UnitPrice(p Product, v *Variant) pricing.Price {
	if v != nil {
		if price := v.Price.Parse(); price.Known() {
			return price
		}
	}
	return p.Price.Parse()
}

// EntryID names a cart or wishlist entry after its product, variant and add time in
// milliseconds. Parts are colon separated so distinct pairs cannot render the same id.
func EntryID(productID, variantID string, at time.Time) string {
	return productID + ":" + variantID + ":" + strconv.FormatInt(at.UnixMilli(), 10)
}
