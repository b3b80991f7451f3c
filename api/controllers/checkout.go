package controllers

import (
	"context"
	"net/http"

	"github.com/snaapconnections/storefront/api/responses"
	"github.com/snaapconnections/storefront/api/validators"
	checkoutsvc "github.com/snaapconnections/storefront/internal/checkout"
	"github.com/snaapconnections/storefront/pkg/logger"
)

type checkoutStep func(ctx context.Context, sessionID string) (*checkoutsvc.View, error)

func runCheckoutStep(step checkoutStep, status int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := shopperSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := step(r.Context(), sid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, view)
	}
}

// CheckoutStart opens (or resumes) the shopper's checkout at the delivery stage.
func CheckoutStart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return runCheckoutStep(func(ctx context.Context, sid string) (*checkoutsvc.View, error) {
		return svc.Start(ctx, sid)
	}, http.StatusCreated, logg)
}

func CheckoutState(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return runCheckoutStep(func(ctx context.Context, sid string) (*checkoutsvc.View, error) {
		return svc.State(ctx, sid)
	}, http.StatusOK, logg)
}

func CheckoutNext(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return runCheckoutStep(func(ctx context.Context, sid string) (*checkoutsvc.View, error) {
		return svc.Next(ctx, sid)
	}, http.StatusOK, logg)
}

func CheckoutBack(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return runCheckoutStep(func(ctx context.Context, sid string) (*checkoutsvc.View, error) {
		return svc.Back(ctx, sid)
	}, http.StatusOK, logg)
}

// CheckoutSubmit places the order. On failure the checkout stays at payment
// and the error is marked retryable.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return runCheckoutStep(func(ctx context.Context, sid string) (*checkoutsvc.View, error) {
		return svc.Submit(ctx, sid)
	}, http.StatusOK, logg)
}

// CheckoutDelivery saves the delivery form. Incomplete forms are accepted and
// validated when the shopper moves on.
func CheckoutDelivery(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form checkoutsvc.DeliveryForm
		if err := validators.DecodeJSON(w, r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runCheckoutStep(func(ctx context.Context, sid string) (*checkoutsvc.View, error) {
			return svc.UpdateDelivery(ctx, sid, form)
		}, http.StatusOK, logg)(w, r)
	}
}

func CheckoutPayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form checkoutsvc.PaymentForm
		if err := validators.DecodeJSON(w, r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runCheckoutStep(func(ctx context.Context, sid string) (*checkoutsvc.View, error) {
			return svc.UpdatePayment(ctx, sid, form)
		}, http.StatusOK, logg)(w, r)
	}
}
