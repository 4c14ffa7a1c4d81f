package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zaliant/storefront-backend/api/responses"
	"github.com/zaliant/storefront-backend/api/validators"
	licensesvc "github.com/zaliant/storefront-backend/internal/licenses"
	ordersvc "github.com/zaliant/storefront-backend/internal/orders"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
	"github.com/zaliant/storefront-backend/pkg/pagination"
)

type adminStatsResponse struct {
	Orders   *ordersvc.StatsSummary        `json:"orders"`
	Licenses map[enums.LicenseStatus]int64 `json:"licenses"`
}

// AdminStats returns the back-office dashboard counters: order volume,
// revenue, and license counts by status.
func AdminStats(orders ordersvc.Service, licenses licensesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orders == nil || licenses == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin services unavailable"))
			return
		}

		summary, err := orders.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		counts, err := licenses.CountByStatus(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminStatsResponse{Orders: summary, Licenses: counts})
	}
}

// AdminOrders returns a paginated list of every order.
func AdminOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.AdminList(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminLicenses returns a paginated list of keys, optionally filtered by
// status (?status=revoked).
func AdminLicenses(svc licensesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "licenses service unavailable"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listInput := licensesvc.ListParams{Params: params}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.LicenseStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid license status"))
				return
			}
			listInput.Status = &status
		}

		list, err := svc.ListKeys(r.Context(), listInput)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type revokeLicenseRequest struct {
	Reason string `json:"reason"`
}

// AdminRevokeLicense kills a key immediately. Revoking an already revoked
// key is a no-op.
func AdminRevokeLicense(svc licensesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "licenses service unavailable"))
			return
		}

		rawID := strings.TrimSpace(chi.URLParam(r, "id"))
		if rawID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "license id is required"))
			return
		}
		licenseID, err := uuid.Parse(rawID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid license id"))
			return
		}

		var payload revokeLicenseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Revoke(r.Context(), licenseID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AdminClearStats wipes every order and license key in one transaction.
// Demo-environment reset only.
func AdminClearStats(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		result, err := svc.ClearStats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func listParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
