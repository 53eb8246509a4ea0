package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmarroquin/storefront-backend/internal/auth"
	"github.com/dmarroquin/storefront-backend/internal/orders"
	product "github.com/dmarroquin/storefront-backend/internal/products"
	"github.com/dmarroquin/storefront-backend/internal/users"
	pkgAuth "github.com/dmarroquin/storefront-backend/pkg/auth"
	"github.com/dmarroquin/storefront-backend/pkg/config"
	"github.com/dmarroquin/storefront-backend/pkg/enums"
	"github.com/dmarroquin/storefront-backend/pkg/logger"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
	"github.com/dmarroquin/storefront-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: uuid.New(), Email: req.Email}, nil
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubProductService struct{}

func (stubProductService) List(ctx context.Context, query product.ListQuery) (*product.ListResult, error) {
	return &product.ListResult{Products: []product.ProductDTO{}}, nil
}

func (stubProductService) Get(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: id}, nil
}

func (stubProductService) Create(ctx context.Context, userID uuid.UUID, req product.CreateProductRequest) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: uuid.New(), Name: req.Name}, nil
}

func (stubProductService) Update(ctx context.Context, userID, id uuid.UUID, req product.UpdateProductRequest) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: id}, nil
}

func (stubProductService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return nil
}

type stubOrderService struct {
	placed func(ctx context.Context, userID uuid.UUID, req orders.PlaceOrderRequest) (*orders.OrderDTO, error)
}

func (s stubOrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req orders.PlaceOrderRequest) (*orders.OrderDTO, error) {
	if s.placed != nil {
		return s.placed(ctx, userID, req)
	}
	return &orders.OrderDTO{ID: uuid.New(), UserID: userID}, nil
}

func (s stubOrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: orderID, UserID: userID}, nil
}

func (s stubOrderService) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{Orders: []orders.OrderDTO{}}, nil
}

func (s stubOrderService) UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status string) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: orderID, UserID: userID, Status: enums.OrderStatus(status)}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		nil, // metrics disabled
		stubAuthService{},
		stubProductService{},
		stubOrderService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestCatalogReadsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())

	list := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=electronics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, list)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public list got %d", resp.Code)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, get)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public get got %d", resp.Code)
	}
}

func TestProductWritesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"name":"Laptop","price":"999.50","stock":5,"category":"electronics"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProductWritesSucceedWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"name":"Laptop","price":"999.50","stock":5,"category":"electronics"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for authenticated create got %d", resp.Code)
	}
}

func TestOrdersGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestOrdersGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authenticated list got %d", resp.Code)
	}
}

func TestPlaceOrderForwardsAuthenticatedUser(t *testing.T) {
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	var gotUser uuid.UUID
	svc := stubOrderService{
		placed: func(ctx context.Context, userID uuid.UUID, req orders.PlaceOrderRequest) (*orders.OrderDTO, error) {
			gotUser = userID
			return &orders.OrderDTO{ID: uuid.New(), UserID: userID}, nil
		},
	}
	router := NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		stubAuthService{},
		stubProductService{},
		svc,
	)

	body := fmt.Sprintf(`{"products":[{"productId":%q,"quantity":2}]}`, uuid.NewString())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for authenticated place got %d", resp.Code)
	}
	if gotUser == uuid.Nil {
		t.Fatal("expected user id from token to reach the service")
	}
}

func TestRegisterRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}
