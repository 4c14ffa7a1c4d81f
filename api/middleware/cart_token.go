package middleware

import (
	"net/http"
	"strings"

	"github.com/zaliant/storefront-backend/api/responses"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
)

// CartTokenHeader carries the guest cart identifier.
const CartTokenHeader = "X-Cart-Token"

const maxCartTokenLength = 128

// CartToken resolves the effective cart token for the request. Authenticated
// buyers get a stable token derived from their user id, so their cart
// follows them across devices; guests must supply their own opaque token.
func CartToken(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if userID := UserIDFromContext(r.Context()); userID != "" {
				token = "user:" + userID
			} else {
				token = strings.TrimSpace(r.Header.Get(CartTokenHeader))
			}

			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token required"))
				return
			}
			if len(token) > maxCartTokenLength {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token too long"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCartToken(r.Context(), token)))
		})
	}
}
