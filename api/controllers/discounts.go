package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/discounts"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type discountQuoter interface {
	Quote(ctx context.Context, product products.Product, variant *products.Variant, quantity int) (discounts.Quote, error)
}

type quoteRequest struct {
	Product  products.Product  `json:"product"`
	Variant  *products.Variant `json:"variant"`
	Quantity int               `json:"quantity" validate:"min=1"`
}

// DiscountQuote prices the bulk-discount tiers for a product page.
func DiscountQuote(svc discountQuoter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), req.Product, req.Variant, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuote(quote))
	}
}
