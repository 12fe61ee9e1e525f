package product

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

var _ ProductService = (*ProductServiceImpl)(nil)

type ProductService interface {
	Create(ctx context.Context, ownerID string, params types.CreateProductParams) error
	GetAll(ctx context.Context) ([]*types.Product, error)
	GetByID(ctx context.Context, productID int64) (*types.Product, error)

	// Update and Delete enforce ownership: a requester that is not the
	// product's owner gets types.ErrPermissionDenied and the product is
	// left unchanged.
	Update(ctx context.Context, requesterID string, params types.UpdateProductParams) error
	Delete(ctx context.Context, requesterID string, productID int64) error
}

type ProductServiceImpl struct {
	logger *slog.Logger
	repo   ProductRepository
}

func NewProductService(repo ProductRepository, logger *slog.Logger) *ProductServiceImpl {
	return &ProductServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ProductServiceImpl) Create(ctx context.Context, ownerID string, params types.CreateProductParams) error {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("user.id", ownerID),
	))
	defer span.End()

	if err := s.repo.Create(ctx, ownerID, params); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return fmt.Errorf("error creating product: %w", err)
	}

	s.logger.InfoContext(ctx, "Product created", slog.String("ownerID", ownerID))
	span.SetStatus(codes.Ok, "Product created")
	return nil
}

func (s *ProductServiceImpl) GetAll(ctx context.Context) ([]*types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "GetAll")
	defer span.End()

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("error fetching products: %w", err)
	}

	span.SetStatus(codes.Ok, "Products fetched")
	return products, nil
}

func (s *ProductServiceImpl) GetByID(ctx context.Context, productID int64) (*types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "GetByID", trace.WithAttributes(
		attribute.Int64("product.id", productID),
	))
	defer span.End()

	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Product fetched")
	return product, nil
}

func (s *ProductServiceImpl) Update(ctx context.Context, requesterID string, params types.UpdateProductParams) error {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("user.id", requesterID),
		attribute.Int64("product.id", params.ProductID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"),
		slog.String("requesterID", requesterID), slog.Int64("productID", params.ProductID))

	if err := s.checkOwnership(ctx, requesterID, params.ProductID); err != nil {
		span.SetStatus(codes.Error, "ownership check failed")
		return err
	}

	if err := s.repo.Update(ctx, params); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}

	l.InfoContext(ctx, "Product updated")
	span.SetStatus(codes.Ok, "Product updated")
	return nil
}

func (s *ProductServiceImpl) Delete(ctx context.Context, requesterID string, productID int64) error {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("user.id", requesterID),
		attribute.Int64("product.id", productID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Delete"),
		slog.String("requesterID", requesterID), slog.Int64("productID", productID))

	if err := s.checkOwnership(ctx, requesterID, productID); err != nil {
		span.SetStatus(codes.Error, "ownership check failed")
		return err
	}

	if err := s.repo.Delete(ctx, productID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}

	l.InfoContext(ctx, "Product deleted")
	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

// checkOwnership compares the resource's owner-identity field against the
// requester's resolved identity.
func (s *ProductServiceImpl) checkOwnership(ctx context.Context, requesterID string, productID int64) error {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.UserID != requesterID {
		s.logger.WarnContext(ctx, "Ownership violation",
			slog.String("ownerID", product.UserID), slog.String("requesterID", requesterID))
		return types.ErrPermissionDenied
	}
	return nil
}
