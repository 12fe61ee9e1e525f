package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/tradepost/go-marketplace/app/db"
	"github.com/tradepost/go-marketplace/config"
	"github.com/tradepost/go-marketplace/internal/api/auth"
	"github.com/tradepost/go-marketplace/internal/api/category"
	"github.com/tradepost/go-marketplace/internal/api/order"
	"github.com/tradepost/go-marketplace/internal/api/product"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool

	TokenVerifier *auth.TokenVerifier

	AuthHandler     *auth.AuthHandler
	ProductHandler  *product.ProductHandler
	CategoryHandler *category.CategoryHandler
	OrderHandler    *order.OrderHandler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWT)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	verifier, err := auth.NewTokenVerifier(cfg.Auth.JWT)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("token verifier: %w", err)
	}

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, hasher, issuer, logger)
	authHandler := auth.NewAuthHandler(authService, logger)

	productRepo := product.NewPostgresProductRepo(pool, logger)
	productService := product.NewProductService(productRepo, logger)
	productHandler := product.NewProductHandler(productService, logger)

	categoryRepo := category.NewPostgresCategoryRepo(pool, logger)
	categoryService := category.NewCategoryService(categoryRepo, logger)
	categoryHandler := category.NewCategoryHandler(categoryService, logger)

	orderRepo := order.NewPostgresOrderRepo(pool, logger)
	orderService := order.NewOrderService(orderRepo, logger)
	orderHandler := order.NewOrderHandler(orderService, logger)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		Pool:            pool,
		TokenVerifier:   verifier,
		AuthHandler:     authHandler,
		ProductHandler:  productHandler,
		CategoryHandler: categoryHandler,
		OrderHandler:    orderHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
