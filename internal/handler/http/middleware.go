package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/auth"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/httputil"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/logger"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/middleware"
)

type accountKey struct{}

// RequireRole authenticates the bearer token through gate and admits only the
// given roles. With no roles any authenticated account passes. The resolved
// account is stored in the request context and the request logger gains
// user_id and role.
func RequireRole(gate *auth.Gate, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := middleware.BearerToken(r)
			if err != nil {
				httputil.WriteError(w, r, domain.ErrTokenInvalid(), nil)
				return
			}

			account, err := gate.Authorize(r.Context(), token, roles...)
			if err != nil {
				httputil.WriteError(w, r, err, nil)
				return
			}

			ctx := context.WithValue(r.Context(), accountKey{}, account)
			ctx = logger.WithUserID(ctx, account.ID)
			ctx = logger.WithRole(ctx, string(account.Role))
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(
				slog.String("user_id", account.ID),
				slog.String("role", string(account.Role)),
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFromContext returns the account stored by RequireRole.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	a, ok := ctx.Value(accountKey{}).(*domain.Account)
	return a, ok
}

// mustAccount is used by handlers mounted behind RequireRole.
func mustAccount(r *http.Request) *domain.Account {
	a, ok := AccountFromContext(r.Context())
	if !ok {
		panic("handler mounted without RequireRole")
	}
	return a
}

// ContentTypeJSON rejects request bodies that are not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
