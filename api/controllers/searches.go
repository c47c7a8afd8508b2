package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const maxQueryLength = 200

type recentSearches interface {
	Recent(ctx context.Context, userID string) ([]string, error)
	Record(ctx context.Context, userID, query string) ([]string, error)
	Clear(ctx context.Context, userID string) error
}

type recordSearchRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

func RecentSearches(svc recentSearches, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recent, err := svc.Recent(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recent)
	}
}

// RecordSearch pushes a query onto the caller's recent searches.
func RecordSearch(svc recentSearches, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordSearchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := validators.SanitizeString(req.Query, maxQueryLength)
		recent, err := svc.Record(r.Context(), middleware.UserIDFromContext(r.Context()), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recent)
	}
}

func ClearSearches(svc recentSearches, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
