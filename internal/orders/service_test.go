package orders

import (
	"context"
	"testing"

	"github.com/dmarroquin/storefront-backend/pkg/db"
	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	"github.com/dmarroquin/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarroquin/storefront-backend/pkg/errors"
	"github.com/dmarroquin/storefront-backend/pkg/metrics"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	product "github.com/dmarroquin/storefront-backend/internal/products"
)

func buildTestService(t *testing.T, conn *gorm.DB, cache catalogInvalidator) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Products: product.NewRepository(conn),
		TX:       db.FromGorm(conn),
		Cache:    cache,
		Metrics:  metrics.NewStorefrontMetrics(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestPlaceOrderDrainsStockAndPurgesCache(t *testing.T) {
	conn := openTestDB(t)
	cache, _ := newTestCache(t)
	svc := buildTestService(t, conn, cache)
	ctx := context.Background()

	user := mustCreateTestUser(t, conn)
	prod := mustCreateTestProduct(t, conn, user.ID, "Limited", "25", 5)

	// Warm the catalog cache so the purge is observable.
	cacheKey := cache.Key(product.ListQuery{})
	cache.Store(ctx, cacheKey, &product.ListResult{TotalProducts: 1})

	order, err := svc.PlaceOrder(ctx, user.ID, PlaceOrderRequest{
		Products: []OrderLineRequest{{ProductID: prod.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if !order.TotalPrice.Equal(decimal.RequireFromString("125")) {
		t.Fatalf("expected total 125, got %s", order.TotalPrice)
	}
	if got := mustLoadStock(t, conn, prod.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
	if _, ok := cache.Get(ctx, cacheKey); ok {
		t.Fatalf("expected catalog cache to be purged after placement")
	}
}

func TestPlaceOrderInsufficientStockAfterDrain(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn, newOfflineCache())
	ctx := context.Background()

	user := mustCreateTestUser(t, conn)
	prod := mustCreateTestProduct(t, conn, user.ID, "Limited", "25", 5)

	if _, err := svc.PlaceOrder(ctx, user.ID, PlaceOrderRequest{
		Products: []OrderLineRequest{{ProductID: prod.ID, Quantity: 5}},
	}); err != nil {
		t.Fatalf("drain order: %v", err)
	}

	_, err := svc.PlaceOrder(ctx, user.ID, PlaceOrderRequest{
		Products: []OrderLineRequest{{ProductID: prod.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", typed.Details())
	}
	if details["available"] != 0 || details["requested"] != 1 {
		t.Fatalf("expected available=0 requested=1, got %v", details)
	}
	if got := mustCountRows(t, conn, &models.Order{}); got != 1 {
		t.Fatalf("expected no second order row, got %d orders", got)
	}
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn, newOfflineCache())
	ctx := context.Background()

	user := mustCreateTestUser(t, conn)
	ghost := uuid.New()

	_, err := svc.PlaceOrder(ctx, user.ID, PlaceOrderRequest{
		Products: []OrderLineRequest{{ProductID: ghost, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["product_id"] != ghost {
		t.Fatalf("expected details naming product %s, got %v", ghost, typed.Details())
	}
	if got := mustCountRows(t, conn, &models.Order{}); got != 0 {
		t.Fatalf("store must be unchanged, found %d orders", got)
	}
}

func TestPlaceOrderAuthoritativePricing(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn, newOfflineCache())
	ctx := context.Background()

	user := mustCreateTestUser(t, conn)
	laptop := mustCreateTestProduct(t, conn, user.ID, "Laptop", "999.50", 3)
	stand := mustCreateTestProduct(t, conn, user.ID, "Stand", "50.25", 10)

	order, err := svc.PlaceOrder(ctx, user.ID, PlaceOrderRequest{
		Products: []OrderLineRequest{
			{ProductID: laptop.ID, Quantity: 2},
			{ProductID: stand.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// 2 x 999.50 + 3 x 50.25
	if !order.TotalPrice.Equal(decimal.RequireFromString("2149.75")) {
		t.Fatalf("expected total 2149.75, got %s", order.TotalPrice)
	}
	for _, line := range order.Products {
		switch line.ProductID {
		case laptop.ID:
			if !line.Price.Equal(decimal.RequireFromString("1999.00")) {
				t.Fatalf("laptop line price: %s", line.Price)
			}
			if line.Product == nil || line.Product.Stock != 1 {
				t.Fatalf("expected laptop snapshot with stock 1, got %+v", line.Product)
			}
		case stand.ID:
			if !line.Price.Equal(decimal.RequireFromString("150.75")) {
				t.Fatalf("stand line price: %s", line.Price)
			}
		default:
			t.Fatalf("unexpected line %s", line.ProductID)
		}
	}
}

func TestCommitRollsBackOnStalePrecheck(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn, newOfflineCache())
	ctx := context.Background()

	user := mustCreateTestUser(t, conn)
	plenty := mustCreateTestProduct(t, conn, user.ID, "Plenty", "10", 5)
	drained := mustCreateTestProduct(t, conn, user.ID, "Drained", "10", 0)

	// Simulate a pre-check that raced a concurrent decrement: the snapshot
	// claims stock that the store no longer has.
	staleLines := []orderLine{
		{productID: plenty.ID, quantity: 2, unitPrice: decimal.RequireFromString("10"), linePrice: decimal.RequireFromString("20")},
		{productID: drained.ID, quantity: 1, unitPrice: decimal.RequireFromString("10"), linePrice: decimal.RequireFromString("10")},
	}

	impl := svc.(*service)
	_, _, err := impl.commit(ctx, user.ID, nil, staleLines, decimal.RequireFromString("30"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	// All-or-nothing: no order, no lines, no stock change for any line.
	if got := mustCountRows(t, conn, &models.Order{}); got != 0 {
		t.Fatalf("expected zero orders after rollback, got %d", got)
	}
	if got := mustCountRows(t, conn, &models.OrderItem{}); got != 0 {
		t.Fatalf("expected zero order items after rollback, got %d", got)
	}
	if got := mustLoadStock(t, conn, plenty.ID); got != 5 {
		t.Fatalf("expected first line stock untouched, got %d", got)
	}
}

func TestGetRejectsForeignOrder(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn, newOfflineCache())
	ctx := context.Background()

	owner := mustCreateTestUser(t, conn)
	intruder := mustCreateTestUser(t, conn)
	prod := mustCreateTestProduct(t, conn, owner.ID, "Thing", "5", 5)

	order, err := svc.PlaceOrder(ctx, owner.ID, PlaceOrderRequest{
		Products: []OrderLineRequest{{ProductID: prod.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	_, err = svc.Get(ctx, intruder.ID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestListByUserPaginates(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn, newOfflineCache())
	ctx := context.Background()

	user := mustCreateTestUser(t, conn)
	prod := mustCreateTestProduct(t, conn, user.ID, "Thing", "5", 100)
	for i := 0; i < 12; i++ {
		if _, err := svc.PlaceOrder(ctx, user.ID, PlaceOrderRequest{
			Products: []OrderLineRequest{{ProductID: prod.ID, Quantity: 1}},
		}); err != nil {
			t.Fatalf("place order %d: %v", i, err)
		}
	}

	list, err := svc.ListByUser(ctx, user.ID, pagination.Params{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Pagination.Total != 12 || list.Pagination.TotalPages != 2 {
		t.Fatalf("unexpected pagination: %+v", list.Pagination)
	}
	if len(list.Orders) != 2 {
		t.Fatalf("expected 2 orders on page 2, got %d", len(list.Orders))
	}
}

func TestUpdateStatus(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn, newOfflineCache())
	ctx := context.Background()

	user := mustCreateTestUser(t, conn)
	prod := mustCreateTestProduct(t, conn, user.ID, "Thing", "5", 5)
	order, err := svc.PlaceOrder(ctx, user.ID, PlaceOrderRequest{
		Products: []OrderLineRequest{{ProductID: prod.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	updated, err := svc.UpdateStatus(ctx, user.ID, order.ID, "shipped")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}

	_, err = svc.UpdateStatus(ctx, user.ID, order.ID, "taking-a-nap")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bogus status, got %v", err)
	}
}

func TestPlaceOrderWorksWithoutCache(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn, newOfflineCache())
	ctx := context.Background()

	user := mustCreateTestUser(t, conn)
	prod := mustCreateTestProduct(t, conn, user.ID, "Thing", "5", 5)

	if _, err := svc.PlaceOrder(ctx, user.ID, PlaceOrderRequest{
		Products: []OrderLineRequest{{ProductID: prod.ID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("order placement must not depend on the cache: %v", err)
	}
}
