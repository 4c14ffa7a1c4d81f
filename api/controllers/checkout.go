package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/zaliant/storefront-backend/api/middleware"
	"github.com/zaliant/storefront-backend/api/responses"
	"github.com/zaliant/storefront-backend/api/validators"
	checkoutsvc "github.com/zaliant/storefront-backend/internal/checkout"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	PaymentMethod string `json:"payment_method"`
}

// Checkout converts the caller's cart into an order, license keys, and an
// invoice. Signed-in buyers are identified from their token; guests must
// supply a name and email in the body.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		token := middleware.CartTokenFromContext(r.Context())
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyer := checkoutsvc.Buyer{Name: payload.Name, Email: payload.Email}
		if rawUserID := middleware.UserIDFromContext(r.Context()); rawUserID != "" {
			userID, err := uuid.Parse(rawUserID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id claim"))
				return
			}
			buyer.UserID = &userID
			// Claims win over the body for signed-in buyers.
			if email := middleware.EmailFromContext(r.Context()); email != "" {
				buyer.Email = email
			}
		}

		method := enums.PaymentMethod(payload.PaymentMethod)
		if payload.PaymentMethod != "" && !method.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}

		result, err := svc.Execute(r.Context(), checkoutsvc.Input{
			CartToken:     token,
			Buyer:         buyer,
			PaymentMethod: method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
