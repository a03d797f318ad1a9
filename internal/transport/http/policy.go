package httpserver

import (
	"fmt"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/config"
)

type Access int

const (
	Public Access = iota
	Authenticated
	Admin
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// RouteKey is a method and an echo path pattern, e.g. "GET /products/:id".
type RouteKey string

func key(method, path string) RouteKey {
	return RouteKey(method + " " + path)
}

type Policy map[RouteKey]Access

// ObservedPolicy keeps the coverage the storefront has always shipped with:
// only the user listing and admin check need a token.
var ObservedPolicy = Policy{
	key(http.MethodPost, "/jwt"):                   Public,
	key(http.MethodGet, "/users"):                  Authenticated,
	key(http.MethodGet, "/users/admin/:email"):     Authenticated,
	key(http.MethodPatch, "/users/admin/:id"):      Public,
	key(http.MethodPost, "/users"):                 Public,
	key(http.MethodPost, "/products"):              Public,
	key(http.MethodGet, "/products"):               Public,
	key(http.MethodGet, "/products/:id"):           Public,
	key(http.MethodPut, "/products/:id"):           Public,
	key(http.MethodDelete, "/products/:id"):        Public,
	key(http.MethodPost, "/cart/add/:productId"):   Public,
	key(http.MethodGet, "/cart/:email"):            Public,
	key(http.MethodDelete, "/cart/delete/:itemId"): Public,
}

// StrictPolicy closes the open mutation routes.
var StrictPolicy = Policy{
	key(http.MethodPost, "/jwt"):                   Public,
	key(http.MethodGet, "/users"):                  Authenticated,
	key(http.MethodGet, "/users/admin/:email"):     Authenticated,
	key(http.MethodPatch, "/users/admin/:id"):      Admin,
	key(http.MethodPost, "/users"):                 Public,
	key(http.MethodPost, "/products"):              Admin,
	key(http.MethodGet, "/products"):               Public,
	key(http.MethodGet, "/products/:id"):           Public,
	key(http.MethodPut, "/products/:id"):           Admin,
	key(http.MethodDelete, "/products/:id"):        Admin,
	key(http.MethodPost, "/cart/add/:productId"):   Authenticated,
	key(http.MethodGet, "/cart/:email"):            Authenticated,
	key(http.MethodDelete, "/cart/delete/:itemId"): Authenticated,
}

// PolicyByName resolves the AUTH_POLICY setting.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", config.PolicyObserved:
		return ObservedPolicy, nil
	case config.PolicyStrict:
		return StrictPolicy, nil
	default:
		return nil, fmt.Errorf("unknown auth policy %q", name)
	}
}
