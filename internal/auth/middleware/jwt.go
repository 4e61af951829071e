package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/courierhq/courier/internal/auth/domain"
	"github.com/courierhq/courier/internal/metrics"
)

const ctxClaimsKey = "auth_claims"

type unauthorizedBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func reject(c echo.Context, reason domain.TokenFailure) error {
	metrics.IncAuthOutcome("token", "failure")
	msg := domain.ErrTokenRejected{Reason: reason}.Message()
	return c.JSON(http.StatusUnauthorized, unauthorizedBody{Success: false, Error: msg})
}

// NewSession returns an Echo middleware that validates session tokens from
// the Authorization header and stores the decoded claims in the context.
func NewSession(svc domain.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				return reject(c, domain.TokenMissingHeader)
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				return reject(c, domain.TokenMalformedScheme)
			}
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return reject(c, domain.TokenEmpty)
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				var rej domain.ErrTokenRejected
				if errors.As(err, &rej) {
					return reject(c, rej.Reason)
				}
				return reject(c, domain.TokenUnknown)
			}

			metrics.IncAuthOutcome("token", "success")
			c.Set(ctxClaimsKey, claims)
			return next(c)
		}
	}
}

// Claims returns the authenticated session claims from context.
func Claims(c echo.Context) (domain.Claims, bool) {
	v := c.Get(ctxClaimsKey)
	if v == nil {
		return domain.Claims{}, false
	}
	claims, ok := v.(domain.Claims)
	return claims, ok
}
