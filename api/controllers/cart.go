package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snaapconnections/storefront/api/responses"
	"github.com/snaapconnections/storefront/api/validators"
	cartsvc "github.com/snaapconnections/storefront/internal/cart"
	"github.com/snaapconnections/storefront/internal/checkout"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/logger"
)

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type whatsAppShortcut struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

func writeCart(w http.ResponseWriter, view *cartsvc.View) {
	if view.Banner != "" {
		responses.WriteSuccessWithBanner(w, view, view.Banner)
		return
	}
	responses.WriteSuccess(w, view)
}

// CartGet renders the shopper's cart. Unreadable saved data yields an empty
// cart plus a banner instead of an error.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := shopperSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), sid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, view)
	}
}

func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := shopperSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartsvc.AddInput
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Add(r.Context(), sid, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, view)
	}
}

// CartUpdateItem sets a line's quantity. Quantities below one leave the cart unchanged.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := shopperSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateQuantity(r.Context(), sid, chi.URLParam(r, "itemId"), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, view)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := shopperSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Remove(r.Context(), sid, chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, view)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := shopperSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Clear(r.Context(), sid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, view)
	}
}

// CartWhatsApp builds the "Checkout via WhatsApp" deep link for the current cart.
func CartWhatsApp(svc cartsvc.Service, number string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := shopperSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), sid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(view.Items) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty"))
			return
		}
		items := make([]cartsvc.Item, 0, len(view.Items))
		for _, line := range view.Items {
			items = append(items, line.Item)
		}
		msg := checkout.OrderSummary(items, view.Totals.Total, "")
		responses.WriteSuccess(w, whatsAppShortcut{Message: msg, URL: checkout.WhatsAppLink(number, msg)})
	}
}
