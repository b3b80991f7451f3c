package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snaapconnections/storefront/api/responses"
	"github.com/snaapconnections/storefront/api/validators"
	"github.com/snaapconnections/storefront/internal/catalog"
	"github.com/snaapconnections/storefront/pkg/enums"
	"github.com/snaapconnections/storefront/pkg/logger"
	"github.com/snaapconnections/storefront/pkg/pagination"
)

const (
	maxFilterLen = 100
	maxPrice     = 100_000_000
)

func parseFilters(r *http.Request) (catalog.Filters, error) {
	f := catalog.DefaultFilters()
	var err error
	if f.Page, err = validators.ParseQueryInt(r, "page", 1, 1, 100000); err != nil {
		return f, err
	}
	if f.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return f, err
	}
	if f.MinPrice, err = validators.ParseQueryInt(r, "minPrice", catalog.DefaultMinPrice, 0, maxPrice); err != nil {
		return f, err
	}
	if f.MaxPrice, err = validators.ParseQueryInt(r, "maxPrice", catalog.DefaultMaxPrice, 0, maxPrice); err != nil {
		return f, err
	}
	f.Category = validators.ParseQueryString(r, "category", maxFilterLen)
	f.Brand = validators.ParseQueryString(r, "brand", maxFilterLen)
	f.Search = validators.ParseQueryString(r, "search", maxFilterLen)
	if sort := validators.ParseQueryString(r, "sort", maxFilterLen); sort != "" {
		f.Sort = enums.ProductSort(sort)
	}
	return f, nil
}

// ProductsList translates the grid's filter state into a remote catalog query.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ProductsCollection serves one of the home page presets.
func ProductsCollection(svc catalog.Service, preset catalog.Preset, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.Collection(r.Context(), preset, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": products})
	}
}

func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.Product(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CategoriesList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func BrandsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brands, err := svc.Brands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, brands)
	}
}

// FacetsGet returns categories and brands together. A partial outage still
// renders what loaded, with a banner.
func FacetsGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		facets, err := svc.Facets(r.Context())
		if facets == nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "facets degraded")
			responses.WriteSuccessWithBanner(w, facets, "Some filters are temporarily unavailable.")
			return
		}
		responses.WriteSuccess(w, facets)
	}
}
