package controllers

import (
	"net/http"

	"github.com/snaapconnections/storefront/api/responses"
	"github.com/snaapconnections/storefront/api/validators"
	"github.com/snaapconnections/storefront/internal/advisor"
	"github.com/snaapconnections/storefront/pkg/logger"
)

type advisorRequest struct {
	Message string `json:"message" validate:"required"`
}

func AdvisorAsk(svc advisor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload advisorRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reply, err := svc.Ask(r.Context(), payload.Message)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"reply": reply})
	}
}
