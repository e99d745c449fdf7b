package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"admin-notes-backend/pkg/auth"
	pkgerrors "admin-notes-backend/pkg/errors"

	"go.uber.org/zap"
)

// AuthCookieName is the cookie the admin page session token is read from
const AuthCookieName = "auth_token"

// Authenticate validates the session token and stores the caller in the
// request context. The token is read from the Authorization header, the
// auth_token cookie, or the token query parameter, in that order.
func Authenticate(validator *auth.JWTValidator, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("missing authentication token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Debug("Token rejected", zap.Error(err), zap.String("path", r.URL.Path))
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(tokenErrorMessage(err)).WithCause(err))
				return
			}

			ctx := auth.SetUserInContext(r.Context(), auth.NewUserContext(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid token signature"
	default:
		return "invalid token"
	}
}

// RequireCapability rejects callers that do not hold capability
func RequireCapability(capability string, errHandler *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
				return
			}
			if !user.Can(capability) {
				errHandler.Handle(w, r, pkgerrors.NewForbiddenError("you do not have permission to manage admin notes").
					WithCode(pkgerrors.CodeMissingCapability).
					WithDetails(map[string]interface{}{"capability": capability}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies the per-IP limiter. A nil limiter disables limiting.
func RateLimit(limiter *auth.IPRateLimiter, errHandler *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				errHandler.Handle(w, r, err)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				errHandler.Handle(w, r, pkgerrors.NewRateLimitError(limiter.Limit(), "minute"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP relies on chi's RealIP middleware having rewritten RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
