package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/go-marketplace/internal/api"
	"github.com/tradepost/go-marketplace/internal/types"
)

var _ OrderRepository = (*PostgresOrderRepo)(nil)

type OrderRepository interface {
	// Create places an order for a product and marks the product sold in the
	// same transaction. Returns types.ErrNotFound for a missing product and
	// types.ErrConflict when the product is already sold.
	Create(ctx context.Context, buyerID string, productID int64) error
	GetAllByUser(ctx context.Context, userID string) ([]*types.Order, error)
	GetByID(ctx context.Context, orderID int64) (*types.Order, error)
}

type PostgresOrderRepo struct {
	logger *slog.Logger
	pgpool api.PostgresPool
}

func NewPostgresOrderRepo(pgpool api.PostgresPool, logger *slog.Logger) *PostgresOrderRepo {
	return &PostgresOrderRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresOrderRepo) Create(ctx context.Context, buyerID string, productID int64) error {
	ctx, span := otel.Tracer("OrderRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "orders"),
		attribute.Int64("product.id", productID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"),
		slog.String("buyerID", buyerID), slog.Int64("productID", productID))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	// Row lock serializes two buyers racing on the same product.
	var availableInt int
	err = tx.QueryRow(ctx,
		`SELECT available FROM products WHERE product_id = $1 FOR UPDATE`, productID).Scan(&availableInt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "product not found")
			return types.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "product lock failed")
		return fmt.Errorf("database error locking product: %w", err)
	}
	if availableInt != 0 {
		span.SetStatus(codes.Error, "product already sold")
		return fmt.Errorf("product already sold: %w", types.ErrConflict)
	}

	if _, err = tx.Exec(ctx,
		`UPDATE products SET available = 1 WHERE product_id = $1`, productID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "product update failed")
		return fmt.Errorf("database error marking product sold: %w", err)
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO orders (status, create_date, user_id, product_id) VALUES ($1, $2, $3, $4)`,
		types.OrderWaitCheck.Int(), time.Now().UTC(), buyerID, productID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("database error creating order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("database error committing order: %w", err)
	}

	l.InfoContext(ctx, "Order created")
	span.SetStatus(codes.Ok, "Order created")
	return nil
}

func (r *PostgresOrderRepo) GetAllByUser(ctx context.Context, userID string) ([]*types.Order, error) {
	ctx, span := otel.Tracer("OrderRepo").Start(ctx, "GetAllByUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "orders"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`SELECT order_id, status, create_date, user_id, product_id
         FROM orders WHERE user_id = $1 ORDER BY order_id`, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query orders", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching orders: %w", err)
	}
	defer rows.Close()

	var orders []*types.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan order row", slog.Any("error", err))
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning order: %w", err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading orders: %w", err)
	}

	span.SetStatus(codes.Ok, "Orders fetched")
	return orders, nil
}

func (r *PostgresOrderRepo) GetByID(ctx context.Context, orderID int64) (*types.Order, error) {
	ctx, span := otel.Tracer("OrderRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "orders"),
		attribute.Int64("order.id", orderID),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx,
		`SELECT order_id, status, create_date, user_id, product_id
         FROM orders WHERE order_id = $1`, orderID)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "order not found")
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query order", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching order: %w", err)
	}

	span.SetStatus(codes.Ok, "Order fetched")
	return o, nil
}

func scanOrder(row pgx.Row) (*types.Order, error) {
	var o types.Order
	var statusInt int
	if err := row.Scan(&o.ID, &statusInt, &o.CreateDate, &o.UserID, &o.ProductID); err != nil {
		return nil, err
	}
	status, err := types.OrderStatusFromInt(statusInt)
	if err != nil {
		return nil, fmt.Errorf("invalid order record: %w", err)
	}
	o.Status = status
	return &o, nil
}
