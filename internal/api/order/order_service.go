package order

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/go-marketplace/internal/types"
)

var _ OrderService = (*OrderServiceImpl)(nil)

type OrderService interface {
	Create(ctx context.Context, buyerID string, params types.CreateOrderParams) error
	GetOwn(ctx context.Context, userID string) ([]*types.Order, error)

	// GetByID returns types.ErrPermissionDenied when the order belongs to a
	// different identity.
	GetByID(ctx context.Context, requesterID string, orderID int64) (*types.Order, error)
}

type OrderServiceImpl struct {
	logger *slog.Logger
	repo   OrderRepository
}

func NewOrderService(repo OrderRepository, logger *slog.Logger) *OrderServiceImpl {
	return &OrderServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *OrderServiceImpl) Create(ctx context.Context, buyerID string, params types.CreateOrderParams) error {
	ctx, span := otel.Tracer("OrderService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("user.id", buyerID),
		attribute.Int64("product.id", params.ProductID),
	))
	defer span.End()

	if err := s.repo.Create(ctx, buyerID, params.ProductID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return err
	}

	s.logger.InfoContext(ctx, "Order placed",
		slog.String("buyerID", buyerID), slog.Int64("productID", params.ProductID))
	span.SetStatus(codes.Ok, "Order created")
	return nil
}

func (s *OrderServiceImpl) GetOwn(ctx context.Context, userID string) ([]*types.Order, error) {
	ctx, span := otel.Tracer("OrderService").Start(ctx, "GetOwn", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	orders, err := s.repo.GetAllByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("error fetching orders: %w", err)
	}

	span.SetStatus(codes.Ok, "Orders fetched")
	return orders, nil
}

func (s *OrderServiceImpl) GetByID(ctx context.Context, requesterID string, orderID int64) (*types.Order, error) {
	ctx, span := otel.Tracer("OrderService").Start(ctx, "GetByID", trace.WithAttributes(
		attribute.String("user.id", requesterID),
		attribute.Int64("order.id", orderID),
	))
	defer span.End()

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	if order.UserID != requesterID {
		s.logger.WarnContext(ctx, "Ownership violation on order",
			slog.String("ownerID", order.UserID), slog.String("requesterID", requesterID))
		span.SetStatus(codes.Error, "not owner")
		return nil, types.ErrPermissionDenied
	}

	span.SetStatus(codes.Ok, "Order fetched")
	return order, nil
}
