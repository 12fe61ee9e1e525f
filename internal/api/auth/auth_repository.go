package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/go-marketplace/internal/api"
	"github.com/tradepost/go-marketplace/internal/types"
)

// Postgres unique_violation, the authoritative guard against duplicate emails.
const uniqueViolationCode = "23505"

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	CreateUser(ctx context.Context, user *types.User) error
	GetUserByID(ctx context.Context, userID string) (*types.User, error)
	GetUserByName(ctx context.Context, userName string) (*types.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool api.PostgresPool
}

func NewPostgresAuthRepo(pgpool api.PostgresPool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

// CreateUser inserts a new identity record. The users.email unique constraint
// is what actually serializes concurrent registrations racing on the same
// email; a violation is reported as types.ErrConflict.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, user *types.User) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"), slog.String("userID", user.ID))

	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO users (user_id, user_name, phone, role, email, profile_picture, hash)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, user.Phone, user.Role.Int(), user.Email, user.ProfilePicture, user.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			l.WarnContext(ctx, "Duplicate email on insert", slog.String("email", user.Email))
			span.SetStatus(codes.Error, "duplicate email")
			return fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return fmt.Errorf("database error creating user: %w", err)
	}

	span.SetStatus(codes.Ok, "User created")
	return nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	return r.getUser(ctx, span,
		`SELECT user_id, user_name, phone, role, email, profile_picture, hash
         FROM users WHERE user_id = $1`, userID)
}

func (r *PostgresAuthRepo) GetUserByName(ctx context.Context, userName string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByName", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	return r.getUser(ctx, span,
		`SELECT user_id, user_name, phone, role, email, profile_picture, hash
         FROM users WHERE user_name = $1`, userName)
}

func (r *PostgresAuthRepo) getUser(ctx context.Context, span trace.Span, query string, arg any) (*types.User, error) {
	var user types.User
	var roleInt int
	err := r.pgpool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Phone, &roleInt, &user.Email, &user.ProfilePicture, &user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "user not found")
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	role, err := types.RoleFromInt(roleInt)
	if err != nil {
		// Corrupt role column; surface it, do not default.
		r.logger.ErrorContext(ctx, "Invalid role in user row", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid role value")
		return nil, fmt.Errorf("invalid user record: %w", err)
	}
	user.Role = role

	span.SetStatus(codes.Ok, "User fetched")
	return &user, nil
}

// EmailExists is a fast-path duplicate check. It is advisory only: the unique
// constraint in CreateUser remains the guard under race.
func (r *PostgresAuthRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "EmailExists", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var exists bool
	err := r.pgpool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check email existence", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return false, fmt.Errorf("database error checking email: %w", err)
	}

	span.SetStatus(codes.Ok, "Email checked")
	return exists, nil
}
