package router

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/go-marketplace/config"
	"github.com/tradepost/go-marketplace/internal/api/auth"
	"github.com/tradepost/go-marketplace/internal/api/category"
	"github.com/tradepost/go-marketplace/internal/api/order"
	"github.com/tradepost/go-marketplace/internal/api/product"
	"github.com/tradepost/go-marketplace/internal/types"
)

// Stub services backing the full route table. They return fixed data; the
// point of these tests is the wiring, the middleware chain and the status
// codes, not the business logic.

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, types.RegisterRequest) (string, error) {
	return "stub-token", nil
}
func (stubAuthService) Login(context.Context, types.LoginRequest) (string, error) {
	return "stub-token", nil
}
func (stubAuthService) GetCurrentUser(_ context.Context, userID string) (*types.User, error) {
	return &types.User{ID: userID, Name: "alice", Role: types.RoleUser}, nil
}

type stubProductService struct{}

func (stubProductService) Create(context.Context, string, types.CreateProductParams) error {
	return nil
}
func (stubProductService) GetAll(context.Context) ([]*types.Product, error) {
	return []*types.Product{{ID: 1, Name: "lamp"}}, nil
}
func (stubProductService) GetByID(_ context.Context, id int64) (*types.Product, error) {
	return &types.Product{ID: id, Name: "lamp"}, nil
}
func (stubProductService) Update(context.Context, string, types.UpdateProductParams) error {
	return nil
}
func (stubProductService) Delete(context.Context, string, int64) error { return nil }

type stubCategoryService struct{}

func (stubCategoryService) GetAll(context.Context) ([]*types.Category, error) {
	return []*types.Category{{ID: 1, Name: "furniture"}}, nil
}
func (stubCategoryService) Create(context.Context, types.CreateCategoryParams) error { return nil }

type stubOrderService struct{}

func (stubOrderService) Create(context.Context, string, types.CreateOrderParams) error { return nil }
func (stubOrderService) GetOwn(context.Context, string) ([]*types.Order, error) {
	return nil, nil
}
func (stubOrderService) GetByID(_ context.Context, userID string, orderID int64) (*types.Order, error) {
	return &types.Order{ID: orderID, UserID: userID, Status: types.OrderWaitCheck}, nil
}

func newTestServer(t *testing.T) (http.Handler, *auth.TokenIssuer) {
	t.Helper()
	logger := slog.Default()
	jwtCfg := config.JWTConfig{
		SecretKey: "router-test-secret",
		Algorithm: "HS256",
		Issuer:    "go-marketplace",
		TokenTTL:  time.Hour,
	}
	issuer, err := auth.NewTokenIssuer(jwtCfg)
	require.NoError(t, err)
	verifier, err := auth.NewTokenVerifier(jwtCfg)
	require.NoError(t, err)

	r := SetupRouter(&Config{
		AuthHandler:            auth.NewAuthHandler(stubAuthService{}, logger),
		ProductHandler:         product.NewProductHandler(stubProductService{}, logger),
		CategoryHandler:        category.NewCategoryHandler(stubCategoryService{}, logger),
		OrderHandler:           order.NewOrderHandler(stubOrderService{}, logger),
		AuthenticateMiddleware: auth.Authenticate(logger, verifier),
		RequireAdminMiddleware: auth.RequireRole(logger, types.RoleAdmin),
	})
	return r, issuer
}

func issueToken(t *testing.T, issuer *auth.TokenIssuer, role types.Role) string {
	t.Helper()
	token, err := issuer.Issue(&types.User{ID: "user-123", Name: "alice", Role: role})
	require.NoError(t, err)
	return token
}

func TestPublicRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("Ping", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "pong", rr.Body.String())
	})

	t.Run("ProductListNeedsNoToken", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/product", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("ProductDetailNeedsNoToken", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/product/1", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("RegisterAndLogin", func(t *testing.T) {
		for _, path := range []string{"/register", "/login"} {
			body, _ := json.Marshal(map[string]string{
				"user_name": "alice",
				"password":  "password123",
				"phone":     "13312345678",
				"email":     "alice@example.com",
			})
			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body)))
			assert.Equal(t, http.StatusOK, rr.Code, path)
			assert.Contains(t, rr.Body.String(), "stub-token")
		}
	})
}

func TestProtectedRoutes(t *testing.T) {
	srv, issuer := newTestServer(t)
	userToken := issueToken(t, issuer, types.RoleUser)

	protected := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/currentUser", ""},
		{http.MethodGet, "/category", ""},
		{http.MethodPost, "/product", `{"product_name":"lamp","picture":"l.png","selling_price":1,"description":"d","category_id":1}`},
		{http.MethodPut, "/product", `{"product_id":1}`},
		{http.MethodDelete, "/product/1", ""},
		{http.MethodPost, "/order", `{"product_id":1}`},
		{http.MethodGet, "/order", ""},
		{http.MethodGet, "/order/1", ""},
	}

	t.Run("RejectedWithoutToken", func(t *testing.T) {
		for _, route := range protected {
			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, httptest.NewRequest(route.method, route.path, nil))
			assert.Equal(t, http.StatusForbidden, rr.Code, "%s %s", route.method, route.path)
		}
	})

	t.Run("AcceptedWithToken", func(t *testing.T) {
		for _, route := range protected {
			var req *http.Request
			if route.body != "" {
				req = httptest.NewRequest(route.method, route.path, bytes.NewReader([]byte(route.body)))
			} else {
				req = httptest.NewRequest(route.method, route.path, nil)
			}
			req.Header.Set("Authorization", "Bearer "+userToken)
			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusOK, rr.Code, "%s %s", route.method, route.path)
		}
	})
}

func TestAdminRoutes(t *testing.T) {
	srv, issuer := newTestServer(t)
	body := `{"category_name":"books"}`

	t.Run("AdminCreatesCategory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/category", bytes.NewReader([]byte(body)))
		req.Header.Set("Authorization", "Bearer "+issueToken(t, issuer, types.RoleAdmin))
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("RegularUserDenied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/category", bytes.NewReader([]byte(body)))
		req.Header.Set("Authorization", "Bearer "+issueToken(t, issuer, types.RoleUser))
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Permission denied")
	})

	t.Run("AnonymousDenied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/category", bytes.NewReader([]byte(body)))
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
