package category

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/tradepost/go-marketplace/internal/types"
)

const listCacheKey = "category:list"

var _ CategoryService = (*CategoryServiceImpl)(nil)

type CategoryService interface {
	GetAll(ctx context.Context) ([]*types.Category, error)
	Create(ctx context.Context, params types.CreateCategoryParams) error
}

// CategoryServiceImpl caches the category list briefly; categories change
// rarely but are read on every storefront render.
type CategoryServiceImpl struct {
	logger *slog.Logger
	repo   CategoryRepository
	cache  *gocache.Cache
}

func NewCategoryService(repo CategoryRepository, logger *slog.Logger) *CategoryServiceImpl {
	return &CategoryServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  gocache.New(1*time.Minute, 5*time.Minute),
	}
}

func (s *CategoryServiceImpl) GetAll(ctx context.Context) ([]*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "GetAll")
	defer span.End()

	if cached, found := s.cache.Get(listCacheKey); found {
		span.SetStatus(codes.Ok, "Categories fetched (cache)")
		return cached.([]*types.Category), nil
	}

	categories, err := s.repo.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("error fetching categories: %w", err)
	}

	s.cache.Set(listCacheKey, categories, gocache.DefaultExpiration)
	span.SetStatus(codes.Ok, "Categories fetched")
	return categories, nil
}

func (s *CategoryServiceImpl) Create(ctx context.Context, params types.CreateCategoryParams) error {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "Create")
	defer span.End()

	if err := s.repo.Create(ctx, params); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return fmt.Errorf("error creating category: %w", err)
	}

	// Readers must see the new category on the next list.
	s.cache.Delete(listCacheKey)

	s.logger.InfoContext(ctx, "Category created", slog.String("name", params.Name))
	span.SetStatus(codes.Ok, "Category created")
	return nil
}
