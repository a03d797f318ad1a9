package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

type testServer struct {
	e      *echo.Echo
	tokens *tokens.Service
	users  *service.UserService
}

func newTestServer(t *testing.T, policy Policy) *testServer {
	t.Helper()
	gdb, err := db.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	tok := tokens.NewService([]byte("router-secret"))
	users := &service.UserService{Repo: r, Events: service.NopPublisher{}}
	catalog := &service.CatalogService{Repo: r, Events: service.NopPublisher{}, Indexer: service.NopIndexer{}}
	cart := &service.CartService{Repo: r, Catalog: catalog, Events: service.NopPublisher{}}

	e := echo.New()
	err = Register(e, &Deps{
		Policy:         policy,
		Gate:           &auth.Gate{Tokens: tok, Admins: users},
		AuthHandler:    &handlers.AuthHandler{Tokens: tok},
		UserHandler:    &handlers.UserHandler{Users: users},
		ProductHandler: &handlers.ProductHandler{Catalog: catalog},
		CartHandler:    &handlers.CartHandler{Cart: cart},
		HealthHandler:  &handlers.HealthHandler{DB: gdb},
	})
	require.NoError(t, err)
	return &testServer{e: e, tokens: tok, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) token(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/jwt", "", map[string]any{"email": email})
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct{ Token string }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["message"].(string)
}

func TestRegister_MissingPolicyEntry(t *testing.T) {
	t.Parallel()

	partial := Policy{}
	for k, v := range ObservedPolicy {
		partial[k] = v
	}
	delete(partial, key(http.MethodGet, "/cart/:email"))

	err := Register(echo.New(), &Deps{
		Policy:         partial,
		Gate:           &auth.Gate{},
		AuthHandler:    &handlers.AuthHandler{},
		UserHandler:    &handlers.UserHandler{},
		ProductHandler: &handlers.ProductHandler{},
		CartHandler:    &handlers.CartHandler{},
		HealthHandler:  &handlers.HealthHandler{},
	})
	assert.ErrorContains(t, err, "/cart/:email")
}

func TestPolicies_CoverTheSameRoutes(t *testing.T) {
	t.Parallel()

	require.Len(t, StrictPolicy, len(ObservedPolicy))
	for k := range ObservedPolicy {
		assert.Contains(t, StrictPolicy, k)
	}

	p, err := PolicyByName("strict")
	require.NoError(t, err)
	assert.Equal(t, StrictPolicy, p)
	_, err = PolicyByName("open")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, ObservedPolicy)

	rec := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ecommerce Server is running", rec.Body.String())

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", "", nil).Code)
}

func TestProtectedRoutes_Unauthenticated(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, ObservedPolicy)

	rec := s.do(t, http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized Access", message(t, rec))

	rec = s.do(t, http.MethodGet, "/users/admin/a@b.c", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized access", message(t, rec))
}

func TestIssueToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, ObservedPolicy)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/jwt", "", "{").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/jwt", "", "[1,2]").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/jwt", "", map[string]any{}).Code)

	rec := s.do(t, http.MethodPost, "/jwt", "", map[string]any{"email": "ann@example.com", "name": "Ann"})
	require.Equal(t, http.StatusOK, rec.Code)
	claims, err := s.tokens.Verify(decode[map[string]string](t, rec)["token"])
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "Ann", claims.Extra["name"])
}

func TestUserFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, ObservedPolicy)

	rec := s.do(t, http.MethodPost, "/users", "", map[string]any{"email": "ann@example.com", "name": "Ann"})
	require.Equal(t, http.StatusOK, rec.Code)
	signup := decode[map[string]any](t, rec)
	id, _ := signup["insertedId"].(string)
	require.NotEmpty(t, id)

	rec = s.do(t, http.MethodPost, "/users", "", map[string]any{"email": "ann@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tok := s.token(t, "ann@example.com")

	rec = s.do(t, http.MethodGet, "/users", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]map[string]any](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, id, users[0]["_id"])
	assert.Equal(t, "Ann", users[0]["name"])
	assert.Equal(t, "member", users[0]["role"])

	rec = s.do(t, http.MethodGet, "/users/admin/ann@example.com", tok, nil)
	assert.Equal(t, map[string]any{"admin": false}, decode[map[string]any](t, rec))

	rec = s.do(t, http.MethodPatch, "/users/admin/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"matchedCount": 1.0, "modifiedCount": 1.0}, decode[map[string]any](t, rec))

	rec = s.do(t, http.MethodGet, "/users/admin/ann@example.com", tok, nil)
	assert.Equal(t, map[string]any{"admin": true}, decode[map[string]any](t, rec))

	rec = s.do(t, http.MethodPatch, "/users/admin/missing", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decode[map[string]any](t, rec)["modifiedCount"])
}

func TestProductAndCartFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, ObservedPolicy)

	rec := s.do(t, http.MethodPost, "/products", "", map[string]any{
		"name": "Shoe", "price": 10, "description": "running", "brand": "Acme",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	pid := decode[map[string]any](t, rec)["productId"].(string)
	require.NotEmpty(t, pid)

	rec = s.do(t, http.MethodGet, "/products?search=SH", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/products?search=boots", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/products/"+pid, "", map[string]any{"name": "", "price": 5, "description": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/add/"+pid, "", map[string]any{"email": "ann@example.com", "quantity": "2"})
	require.Equal(t, http.StatusOK, rec.Code)
	itemID := decode[map[string]any](t, rec)["itemId"].(string)

	rec = s.do(t, http.MethodPost, "/cart/add/"+pid, "", map[string]any{"email": "ann@example.com", "quantity": 1.5})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, q := range []any{"-1", "abc", nil, true} {
		rec = s.do(t, http.MethodPost, "/cart/add/"+pid, "", map[string]any{"email": "ann@example.com", "quantity": q})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "quantity %v", q)
	}
	rec = s.do(t, http.MethodPost, "/cart/add/missing", "", map[string]any{"email": "ann@example.com", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/products/"+pid, "", map[string]any{"name": "Boot", "price": 20, "description": "leather"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/products/"+pid, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prod := decode[map[string]any](t, rec)
	assert.Equal(t, "Boot", prod["name"])
	assert.Equal(t, "Acme", prod["brand"])

	rec = s.do(t, http.MethodGet, "/cart/ann@example.com", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]map[string]any](t, rec)
	require.Len(t, items, 2)
	assert.Equal(t, itemID, items[0]["_id"])
	assert.Equal(t, 2.0, items[0]["quantity"])
	snapshot := items[0]["product"].(map[string]any)
	assert.Equal(t, "Shoe", snapshot["name"])
	assert.Equal(t, "Acme", snapshot["brand"])

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/cart/delete/"+itemID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/cart/delete/"+itemID, "", nil).Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/products/"+pid, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/products/"+pid, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/products/"+pid, "", nil).Code)
}

func TestStrictPolicy(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, StrictPolicy)
	ctx := context.Background()

	body := map[string]any{"name": "Hat", "price": 3, "description": "d"}
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/products", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/cart/ann@example.com", "", nil).Code)

	_, err := s.users.Signup(ctx, models.User{Email: "ann@example.com"})
	require.NoError(t, err)
	member := s.token(t, "ann@example.com")
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/products", member, body).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/cart/ann@example.com", member, nil).Code)

	rootID, err := s.users.Signup(ctx, models.User{Email: "root@example.com"})
	require.NoError(t, err)
	_, err = s.users.PromoteToAdmin(ctx, rootID)
	require.NoError(t, err)
	admin := s.token(t, "root@example.com")
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/products", admin, body).Code)

	// Reads stay public.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/products", "", nil).Code)
}

func TestProductWithoutPriceAndLenientQuantity(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, ObservedPolicy)

	rec := s.do(t, http.MethodPost, "/products", "", map[string]any{"name": "Gift card"})
	require.Equal(t, http.StatusCreated, rec.Code)
	pid := decode[map[string]any](t, rec)["productId"].(string)

	rec = s.do(t, http.MethodGet, "/products/"+pid, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decode[map[string]any](t, rec), "price")

	rec = s.do(t, http.MethodPost, "/cart/add/"+pid, "", map[string]any{"email": "ann@example.com", "quantity": "2 items"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/cart/ann@example.com", "", nil)
	items := decode[[]map[string]any](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, 2.0, items[0]["quantity"])
	assert.NotContains(t, items[0]["product"].(map[string]any), "price")
}

func TestBodies_RequireJSONContentType(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, ObservedPolicy)

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"email":"ann@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/products/missing", "", `{"price":"cheap"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
