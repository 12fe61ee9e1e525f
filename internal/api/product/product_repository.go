package product

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
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/go-marketplace/app/observability/metrics"
	"github.com/tradepost/go-marketplace/internal/api"
	"github.com/tradepost/go-marketplace/internal/types"
)

var _ ProductRepository = (*PostgresProductRepo)(nil)

type ProductRepository interface {
	Create(ctx context.Context, ownerID string, params types.CreateProductParams) error
	GetAll(ctx context.Context) ([]*types.Product, error)
	GetByID(ctx context.Context, productID int64) (*types.Product, error)
	Update(ctx context.Context, params types.UpdateProductParams) error
	Delete(ctx context.Context, productID int64) error
}

type PostgresProductRepo struct {
	logger *slog.Logger
	pgpool api.PostgresPool
}

func NewPostgresProductRepo(pgpool api.PostgresPool, logger *slog.Logger) *PostgresProductRepo {
	return &PostgresProductRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const productColumns = `p.product_id, p.product_name, p.picture, p.selling_price,
       p.description, p.available, p.user_id, p.category_id, c.category_name`

// Create inserts a product owned by ownerID. New products start unsold.
func (r *PostgresProductRepo) Create(ctx context.Context, ownerID string, params types.CreateProductParams) error {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "products"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"), slog.String("ownerID", ownerID))

	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO products (product_name, picture, selling_price, description, available, user_id, category_id)
         VALUES ($1, $2, $3, $4, 0, $5, $6)`,
		params.Name, params.Picture, params.SellingPrice, params.Description, ownerID, params.CategoryID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to insert product", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return fmt.Errorf("database error creating product: %w", err)
	}

	span.SetStatus(codes.Ok, "Product created")
	return nil
}

func (r *PostgresProductRepo) GetAll(ctx context.Context) ([]*types.Product, error) {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "GetAll", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "products"),
	))
	defer span.End()

	// The storefront listing is the hottest query in the system.
	start := time.Now()
	defer func() {
		metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("query", "product_list")))
	}()

	rows, err := r.pgpool.Query(ctx,
		`SELECT `+productColumns+`
         FROM products p
         JOIN categories c ON c.category_id = p.category_id
         ORDER BY p.product_id`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query products", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching products: %w", err)
	}
	defer rows.Close()

	var products []*types.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan product row", slog.Any("error", err))
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading products: %w", err)
	}

	span.SetStatus(codes.Ok, "Products fetched")
	return products, nil
}

func (r *PostgresProductRepo) GetByID(ctx context.Context, productID int64) (*types.Product, error) {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "products"),
		attribute.Int64("product.id", productID),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx,
		`SELECT `+productColumns+`
         FROM products p
         JOIN categories c ON c.category_id = p.category_id
         WHERE p.product_id = $1`, productID)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "product not found")
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query product", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching product: %w", err)
	}

	span.SetStatus(codes.Ok, "Product fetched")
	return p, nil
}

// Update applies the non-nil fields of params. COALESCE keeps the partial
// update in a single statement.
func (r *PostgresProductRepo) Update(ctx context.Context, params types.UpdateProductParams) error {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "products"),
		attribute.Int64("product.id", params.ProductID),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		`UPDATE products SET
            product_name  = COALESCE($2, product_name),
            picture       = COALESCE($3, picture),
            selling_price = COALESCE($4, selling_price),
            description   = COALESCE($5, description),
            category_id   = COALESCE($6, category_id)
         WHERE product_id = $1`,
		params.ProductID, params.Name, params.Picture, params.SellingPrice, params.Description, params.CategoryID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update product", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("database error updating product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "product not found")
		return types.ErrNotFound
	}

	span.SetStatus(codes.Ok, "Product updated")
	return nil
}

func (r *PostgresProductRepo) Delete(ctx context.Context, productID int64) error {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "products"),
		attribute.Int64("product.id", productID),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, productID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete product", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("database error deleting product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "product not found")
		return types.ErrNotFound
	}

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

func scanProduct(row pgx.Row) (*types.Product, error) {
	var p types.Product
	var availableInt int
	err := row.Scan(
		&p.ID, &p.Name, &p.Picture, &p.SellingPrice,
		&p.Description, &availableInt, &p.UserID, &p.CategoryID, &p.CategoryName,
	)
	if err != nil {
		return nil, err
	}
	p.Available = availableInt != 0
	return &p, nil
}
