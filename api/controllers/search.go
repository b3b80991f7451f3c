package controllers

import (
	"context"
	"net/http"

	"github.com/snaapconnections/storefront/api/responses"
	"github.com/snaapconnections/storefront/api/validators"
	"github.com/snaapconnections/storefront/internal/search"
	"github.com/snaapconnections/storefront/pkg/logger"
)

const maxSearchLen = 100

type productSearcher interface {
	Search(ctx context.Context, query string) ([]search.Hit, error)
}

func SearchProducts(svc productSearcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits, err := svc.Search(r.Context(), validators.ParseQueryString(r, "q", maxSearchLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"results": hits})
	}
}
