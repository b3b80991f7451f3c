package controllers

import (
	"net/http"

	"github.com/snaapconnections/storefront/api/middleware"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
)

// shopperSession returns the session resolved by middleware.Session.
func shopperSession(r *http.Request) (string, error) {
	sid := middleware.SessionIDFromContext(r.Context())
	if sid == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "shopper session missing")
	}
	return sid, nil
}
