package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AuthHandler struct {
	Tokens *tokens.Service
}

// IssueToken signs whatever identity the body carries. There is no password
// check and no required field; only a body that is not a JSON object is
// rejected.
func (h *AuthHandler) IssueToken(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth.issue_token")

	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return badBody(l, "token_issue_failed", err)
	}

	token, err := h.Tokens.Issue(tokens.ClaimsFromBody(body))
	if err != nil {
		l.Error("token_issue_failed", "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}

	l.Info("token_issued")
	return c.JSON(http.StatusOK, transport.TokenResponse{Token: token})
}
