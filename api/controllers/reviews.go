package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snaapconnections/storefront/api/responses"
	"github.com/snaapconnections/storefront/api/validators"
	"github.com/snaapconnections/storefront/internal/reviews"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/logger"
)

func ProductReviews(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stars, err := validators.ParseQueryInt(r, "stars", 0, 0, 5)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order := reviews.SortOrder(validators.ParseQueryString(r, "sort", 16))
		switch order {
		case "":
			order = reviews.SortNewest
		case reviews.SortNewest, reviews.SortOldest:
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort").
				WithDetails(map[string]any{"field": "sort", "allowed": []reviews.SortOrder{reviews.SortNewest, reviews.SortOldest}}))
			return
		}

		result, err := svc.ForProduct(r.Context(), chi.URLParam(r, "productId"), reviews.Query{Stars: stars, Sort: order})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReviewSubmit posts a shopper review. Reviews wait for moderation before
// they are listed.
func ReviewSubmit(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := shopperSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input reviews.SubmitInput
		if err := validators.DecodeJSON(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		review, err := svc.Submit(r.Context(), sid, chi.URLParam(r, "productId"), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

func ReviewsRecent(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Recent(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"reviews": list})
	}
}
