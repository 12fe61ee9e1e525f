package auth

import (
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/go-marketplace/internal/api"
	"github.com/tradepost/go-marketplace/internal/types"
)

// AuthHandler handles HTTP requests for registration, login and identity lookup.
type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an identity and returns a signed token echoing the persisted record.
// @Router       /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/register"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Register"))

	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			api.ValidationErrorResponse(w, r, fieldErrs)
			return
		}
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.authService.Register(ctx, req)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			span.SetStatus(codes.Error, "email exists")
			api.ErrorResponse(w, r, http.StatusConflict, "Email already exists")
			return
		}
		l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to register user")
		return
	}

	span.SetStatus(codes.Ok, "User registered")
	api.WriteJSONResponse(w, r, http.StatusOK, types.TokenResponse{Token: token})
}

// Login godoc
// @Summary      Authenticate a user
// @Description  Verifies credentials by user name and returns a signed token.
// @Router       /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/login"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			api.ValidationErrorResponse(w, r, fieldErrs)
			return
		}
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.authService.Login(ctx, req)
	if err != nil {
		if errors.Is(err, types.ErrUnauthenticated) {
			// Deliberately generic: never reveal which sub-check failed.
			span.SetStatus(codes.Error, "invalid credentials")
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to login")
		return
	}

	span.SetStatus(codes.Ok, "Login successful")
	api.WriteJSONResponse(w, r, http.StatusOK, types.TokenResponse{Token: token})
}

// CurrentUser godoc
// @Summary      Current identity
// @Description  Re-reads the identity behind the presented token. Password hash is never included.
// @Security     BearerAuth
// @Router       /currentUser [get]
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "CurrentUser", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/currentUser"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "CurrentUser"))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "missing identity")
		api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	user, err := h.authService.GetCurrentUser(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// Token names an identity that no longer exists.
			span.SetStatus(codes.Error, "identity gone")
			api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch current user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	span.SetStatus(codes.Ok, "User fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, user.Public())
}
