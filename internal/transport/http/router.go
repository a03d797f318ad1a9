package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
)

type Deps struct {
	Policy Policy
	Gate   *auth.Gate

	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *handlers.CartHandler
	HealthHandler  *handlers.HealthHandler
}

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
}

func (d *Deps) routes() []route {
	return []route{
		{http.MethodPost, "/jwt", d.AuthHandler.IssueToken},

		{http.MethodGet, "/users", d.UserHandler.ListUsers},
		{http.MethodGet, "/users/admin/:email", d.UserHandler.CheckAdmin},
		{http.MethodPatch, "/users/admin/:id", d.UserHandler.PromoteToAdmin},
		{http.MethodPost, "/users", d.UserHandler.Signup},

		{http.MethodPost, "/products", d.ProductHandler.CreateProduct},
		{http.MethodGet, "/products", d.ProductHandler.ListProducts},
		{http.MethodGet, "/products/:id", d.ProductHandler.GetProduct},
		{http.MethodPut, "/products/:id", d.ProductHandler.UpdateProduct},
		{http.MethodDelete, "/products/:id", d.ProductHandler.DeleteProduct},

		{http.MethodPost, "/cart/add/:productId", d.CartHandler.AddToCart},
		{http.MethodGet, "/cart/:email", d.CartHandler.GetCart},
		{http.MethodDelete, "/cart/delete/:itemId", d.CartHandler.RemoveCartItem},
	}
}

// Register mounts every API route behind the access level its policy entry
// declares. A route without an entry is a startup error.
func Register(e *echo.Echo, d *Deps) error {
	e.GET("/", d.HealthHandler.Root)
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)

	for _, r := range d.routes() {
		access, ok := d.Policy[key(r.method, r.path)]
		if !ok {
			return fmt.Errorf("route %s %s has no access policy", r.method, r.path)
		}

		var mw []echo.MiddlewareFunc
		switch access {
		case Public:
		case Authenticated:
			mw = append(mw, d.Gate.RequireAuth)
		case Admin:
			mw = append(mw, d.Gate.RequireAuth, d.Gate.RequireAdmin)
		default:
			return fmt.Errorf("route %s %s: unsupported access %s", r.method, r.path, access)
		}
		e.Add(r.method, r.path, r.handler, mw...)
	}
	return nil
}
