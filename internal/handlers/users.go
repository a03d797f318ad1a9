package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type UserHandler struct {
	Users *service.UserService
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list")

	users, err := h.Users.ListUsers(ctx)
	if err != nil {
		return failure(l, "users_list_failed", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) CheckAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.check_admin")

	var caller string
	if claims, ok := auth.ClaimsFrom(c); ok {
		caller = claims.Email
	}

	admin, err := h.Users.CheckAdmin(ctx, c.Param("email"), caller)
	if err != nil {
		return failure(l, "admin_check_failed", err)
	}
	return c.JSON(http.StatusOK, transport.AdminResponse{Admin: admin})
}

func (h *UserHandler) PromoteToAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.promote")

	res, err := h.Users.PromoteToAdmin(ctx, c.Param("id"))
	if err != nil {
		return failure(l, "user_promote_failed", err)
	}
	l.Info("user_promoted", "modified", res.ModifiedCount)
	return c.JSON(http.StatusOK, res)
}

func (h *UserHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.signup")

	var user models.User
	if err := c.Bind(&user); err != nil {
		return badBody(l, "user_signup_failed", err)
	}

	id, err := h.Users.Signup(ctx, user)
	if err != nil {
		return failure(l, "user_signup_failed", err)
	}
	l.Info("user_signed_up", "user_id", id)
	return c.JSON(http.StatusOK, transport.SignupResponse{Message: "User created", InsertedID: id})
}
