package cart

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Item is one cart line together with the product snapshot it was added from.
type Item struct {
	ID       string            `json:"id"`
	Product  products.Product  `json:"product"`
	Variant  *products.Variant `json:"variant"`
	Quantity int               `json:"quantity"`
	AddedAt  time.Time         `json:"addedAt"`
}

// NewItemID identifies a cart line. See products.EntryID.
func NewItemID(productID, variantID string, at time.Time) string {
	return products.EntryID(productID, variantID, at)
}

type ActionType string

const (
	ActionAddItem        ActionType = "ADD_ITEM"
	ActionUpdateQuantity ActionType = "UPDATE_QUANTITY"
	ActionRemoveItem     ActionType = "REMOVE_ITEM"
	ActionClearCart      ActionType = "CLEAR_CART"
)

// Action is a cart mutation. Fields not used by Type are ignored.
type Action struct {
	Type     ActionType
	Product  products.Product
	Variant  *products.Variant
	ItemID   string
	Quantity int
}

func AddItem(product products.Product, variant *products.Variant, quantity int) Action {
	return Action{Type: ActionAddItem, Product: product, Variant: variant, Quantity: quantity}
}

func UpdateQuantity(itemID string, quantity int) Action {
	return Action{Type: ActionUpdateQuantity, ItemID: itemID, Quantity: quantity}
}

func RemoveItem(itemID string) Action {
	return Action{Type: ActionRemoveItem, ItemID: itemID}
}

func ClearCart() Action {
	return Action{Type: ActionClearCart}
}

// Reduce applies action to items and returns the next state. items is never modified.
// Adding a product+variant already in the cart increments its quantity; a quantity
// update to 0 removes the line.
func Reduce(items []Item, action Action, now time.Time) ([]Item, error) {
	next := make([]Item, len(items))
	copy(next, items)

	switch action.Type {
	case ActionAddItem:
		if strings.TrimSpace(action.Product.ID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if action.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		variantID := products.VariantID(action.Variant)
		for i := range next {
			if next[i].Product.ID == action.Product.ID && products.VariantID(next[i].Variant) == variantID {
				next[i].Quantity += action.Quantity
				return next, nil
			}
		}
		return append(next, Item{
			ID:       NewItemID(action.Product.ID, variantID, now),
			Product:  action.Product,
			Variant:  action.Variant,
			Quantity: action.Quantity,
			AddedAt:  now,
		}), nil

	case ActionUpdateQuantity:
		if action.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		idx := indexOf(next, action.ItemID)
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		if action.Quantity == 0 {
			return append(next[:idx], next[idx+1:]...), nil
		}
		next[idx].Quantity = action.Quantity
		return next, nil

	case ActionRemoveItem:
		idx := indexOf(next, action.ItemID)
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return append(next[:idx], next[idx+1:]...), nil

	case ActionClearCart:
		return []Item{}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown cart action "+string(action.Type))
}

// Find returns the line with itemID.
func Find(items []Item, itemID string) (Item, bool) {
	if idx := indexOf(items, itemID); idx >= 0 {
		return items[idx], true
	}
	return Item{}, false
}

func indexOf(items []Item, itemID string) int {
	for i := range items {
		if items[i].ID == itemID {
			return i
		}
	}
	return -1
}
