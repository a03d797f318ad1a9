package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const claimsKey = "claims"

const (
	msgMissingHeader = "Unauthorized Access"
	msgInvalidToken  = "unauthorized access"
	msgForbidden     = "forbidden access"
)

type Verifier interface {
	Verify(token string) (*tokens.Claims, error)
}

// AdminChecker answers from the user store, never from token contents.
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

type Gate struct {
	Tokens Verifier
	Admins AdminChecker
}

// RequireAuth accepts "Authorization: Bearer <token>" and stores the verified
// claims on the context.
func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, msgMissingHeader)
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
		}

		claims, err := g.Tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			logging.FromContext(c.Request().Context()).Debug("token_rejected", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
		}

		c.Set(claimsKey, claims)
		return next(c)
	}
}

// RequireAdmin must run after RequireAuth.
func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
		}

		ctx := c.Request().Context()
		admin, err := g.Admins.IsAdmin(ctx, claims.Email)
		if err != nil {
			logging.FromContext(ctx).Error("admin_lookup_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if !admin {
			return echo.NewHTTPError(http.StatusForbidden, msgForbidden)
		}
		return next(c)
	}
}

func ClaimsFrom(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*tokens.Claims)
	return claims, ok && claims != nil
}
