package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/go-marketplace/app/observability/metrics"
	"github.com/tradepost/go-marketplace/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	// Register creates a new identity and returns a token minted from the
	// persisted record. Returns types.ErrConflict when the email is taken.
	Register(ctx context.Context, req types.RegisterRequest) (string, error)

	// Login verifies credentials by user name and returns a fresh token.
	// Returns types.ErrUnauthenticated on unknown user or bad password,
	// indistinguishably.
	Login(ctx context.Context, req types.LoginRequest) (string, error)

	// GetCurrentUser re-reads the identity behind a verified token.
	GetCurrentUser(ctx context.Context, userID string) (*types.User, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	hasher *PasswordHasher
	issuer *TokenIssuer
}

func NewAuthService(repo AuthRepo, hasher *PasswordHasher, issuer *TokenIssuer, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		hasher: hasher,
		issuer: issuer,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.email", req.Email),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("email", req.Email))

	// Fast path only; the storage unique constraint is the real guard.
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "email check failed")
		return "", fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		span.SetStatus(codes.Error, "email already registered")
		metrics.Get().RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "conflict")))
		return "", fmt.Errorf("email already registered: %w", types.ErrConflict)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "hashing failed")
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	user := &types.User{
		ID:           uuid.NewString(),
		Name:         req.UserName,
		Phone:        req.Phone,
		Role:         types.RoleUser,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err = s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, types.ErrConflict) {
			// Lost the race to another registration with the same email.
			span.SetStatus(codes.Error, "email already registered")
			metrics.Get().RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "conflict")))
			return "", err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return "", err
	}

	// Re-fetch so the token reflects exactly what was stored, not the
	// request echo.
	persisted, err := s.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "re-fetch failed")
		return "", fmt.Errorf("error reloading user: %w", err)
	}

	token, err := s.issuer.Issue(persisted)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issuance failed")
		return "", fmt.Errorf("error issuing token: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", persisted.ID))
	span.SetStatus(codes.Ok, "User registered")
	metrics.Get().RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))
	return token, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"), slog.String("userName", req.UserName))

	user, err := s.repo.GetUserByName(ctx, req.UserName)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// Same outcome as a bad password: no account enumeration.
			span.SetStatus(codes.Error, "unknown user")
			metrics.Get().LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failure")))
			return "", types.ErrUnauthenticated
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return "", fmt.Errorf("error fetching user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		l.WarnContext(ctx, "Password verification failed")
		span.SetStatus(codes.Error, "invalid credentials")
		metrics.Get().LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failure")))
		return "", types.ErrUnauthenticated
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issuance failed")
		return "", fmt.Errorf("error issuing token: %w", err)
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID))
	span.SetStatus(codes.Ok, "Login successful")
	metrics.Get().LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))
	return token, nil
}

func (s *AuthServiceImpl) GetCurrentUser(ctx context.Context, userID string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GetCurrentUser", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "User fetched")
	return user, nil
}
