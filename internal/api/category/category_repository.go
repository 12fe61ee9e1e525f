package category

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/go-marketplace/internal/api"
	"github.com/tradepost/go-marketplace/internal/types"
)

var _ CategoryRepository = (*PostgresCategoryRepo)(nil)

type CategoryRepository interface {
	GetAll(ctx context.Context) ([]*types.Category, error)
	Create(ctx context.Context, params types.CreateCategoryParams) error
}

type PostgresCategoryRepo struct {
	logger *slog.Logger
	pgpool api.PostgresPool
}

func NewPostgresCategoryRepo(pgpool api.PostgresPool, logger *slog.Logger) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresCategoryRepo) GetAll(ctx context.Context) ([]*types.Category, error) {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "GetAll", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`SELECT category_id, category_name FROM categories ORDER BY category_id`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query categories", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching categories: %w", err)
	}
	defer rows.Close()

	var categories []*types.Category
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan category row", slog.Any("error", err))
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning category: %w", err)
		}
		categories = append(categories, &c)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading categories: %w", err)
	}

	span.SetStatus(codes.Ok, "Categories fetched")
	return categories, nil
}

func (r *PostgresCategoryRepo) Create(ctx context.Context, params types.CreateCategoryParams) error {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
	))
	defer span.End()

	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO categories (category_name) VALUES ($1)`, params.Name)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert category", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return fmt.Errorf("database error creating category: %w", err)
	}

	span.SetStatus(codes.Ok, "Category created")
	return nil
}
