package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	product "github.com/dmarroquin/storefront-backend/internal/products"
	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	"github.com/dmarroquin/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarroquin/storefront-backend/pkg/errors"
	"github.com/dmarroquin/storefront-backend/pkg/metrics"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service defines order operations used by the controllers.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderDTO, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status string) (*OrderDTO, error)
}

type service struct {
	repo     Repository
	products *product.Repository
	tx       txRunner
	cache    catalogInvalidator
	metrics  *metrics.StorefrontMetrics
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	Repo     Repository
	Products *product.Repository
	TX       txRunner
	Cache    catalogInvalidator
	Metrics  *metrics.StorefrontMetrics
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.TX == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("catalog invalidator required")
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		tx:       params.TX,
		cache:    params.Cache,
		metrics:  params.Metrics,
	}, nil
}

// orderLine carries the pre-check snapshot for one requested line.
type orderLine struct {
	productID uuid.UUID
	quantity  int
	unitPrice decimal.Decimal
	linePrice decimal.Decimal
}

// PlaceOrder runs the two-phase validate-then-commit flow: an optimistic
// pre-check outside the transaction, then an authoritative re-check and stock
// decrement inside a single atomic transaction.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(req.Products) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one product")
	}
	for _, line := range req.Products {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required on every line")
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
	}

	lines, total, err := s.precheck(ctx, req)
	if err != nil {
		return nil, err
	}

	order, snapshots, err := s.commit(ctx, userID, req.Description, lines, total)
	if err != nil {
		return nil, err
	}

	// Stock changed; cached catalog pages are stale now.
	s.cache.Invalidate(ctx)
	s.metrics.IncOrderPlaced()

	return fromModel(order, snapshots), nil
}

// precheck resolves every requested line against live stock without holding
// any lock. It computes the authoritative pricing; client-supplied prices are
// never consulted.
func (s *service) precheck(ctx context.Context, req PlaceOrderRequest) ([]orderLine, decimal.Decimal, error) {
	lines := make([]orderLine, 0, len(req.Products))
	total := decimal.Zero

	for _, requested := range req.Products {
		prod, err := s.products.FindByID(ctx, requested.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.metrics.IncOrderRejected("product_not_found")
				return nil, decimal.Zero, productNotFound(requested.ProductID)
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if prod.Stock < requested.Quantity {
			s.metrics.IncOrderRejected("insufficient_stock")
			return nil, decimal.Zero, insufficientStock(prod.ID, prod.Name, prod.Stock, requested.Quantity)
		}

		linePrice := prod.Price.Mul(decimal.NewFromInt(int64(requested.Quantity)))
		lines = append(lines, orderLine{
			productID: prod.ID,
			quantity:  requested.Quantity,
			unitPrice: prod.Price,
			linePrice: linePrice,
		})
		total = total.Add(linePrice)
	}

	return lines, total, nil
}

// commit creates the order, re-validates every line against current stock
// inside the transaction, snapshots line pricing, and decrements stock. Any
// failed re-check aborts the whole transaction: no order, no lines, no stock
// change.
func (s *service) commit(ctx context.Context, userID uuid.UUID, description *string, lines []orderLine, total decimal.Decimal) (*models.Order, map[uuid.UUID]*product.ProductDTO, error) {
	var order *models.Order
	snapshots := make(map[uuid.UUID]*product.ProductDTO, len(lines))

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productRepo := s.products.WithTx(tx)

		created, err := repo.CreateOrder(ctx, &models.Order{
			UserID:      userID,
			Description: description,
			Status:      enums.OrderStatusPending,
			TotalPrice:  total,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			// The pre-check read is stale by now under concurrency; this
			// re-read plus the guarded decrement is the authoritative check.
			prod, err := productRepo.FindByID(ctx, line.productID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					s.metrics.IncOrderRejected("product_not_found")
					return productNotFound(line.productID)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
			}
			if prod.Stock < line.quantity {
				s.metrics.IncOrderRejected("insufficient_stock")
				return insufficientStock(prod.ID, prod.Name, prod.Stock, line.quantity)
			}

			decremented, err := productRepo.DecrementStock(ctx, prod.ID, line.quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !decremented {
				s.metrics.IncOrderRejected("insufficient_stock")
				return insufficientStock(prod.ID, prod.Name, prod.Stock, line.quantity)
			}

			items = append(items, models.OrderItem{
				OrderID:   created.ID,
				ProductID: prod.ID,
				Quantity:  line.quantity,
				Price:     line.linePrice,
			})

			snapshot := product.FromModel(prod)
			snapshot.Stock = prod.Stock - line.quantity
			snapshots[prod.ID] = snapshot
		}

		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		created.Items = items
		order = created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, snapshots, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return fromModel(order, s.resolveSnapshots(ctx, order)), nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	rows, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *fromModel(&rows[i], nil))
	}
	return &OrderList{
		Orders:     dtos,
		Pagination: pagination.NewPage(params, total),
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status string) (*OrderDTO, error) {
	parsed, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == parsed {
		return fromModel(order, nil), nil
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = parsed
	return fromModel(order, nil), nil
}

func (s *service) loadOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

// resolveSnapshots loads the current product rows for an order's lines.
// Products deleted since the order committed simply have no snapshot.
func (s *service) resolveSnapshots(ctx context.Context, order *models.Order) map[uuid.UUID]*product.ProductDTO {
	snapshots := make(map[uuid.UUID]*product.ProductDTO, len(order.Items))
	for _, item := range order.Items {
		prod, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			continue
		}
		snapshots[item.ProductID] = product.FromModel(prod)
	}
	return snapshots
}

func productNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id)).
		WithDetails(map[string]any{"product_id": id})
}

func insufficientStock(id uuid.UUID, name string, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for product %s", name)).
		WithDetails(map[string]any{
			"product_id": id,
			"available":  available,
			"requested":  requested,
		})
}
