package category

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

type CategoryHandler struct {
	categoryService CategoryService
	logger          *slog.Logger
}

func NewCategoryHandler(categoryService CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// List godoc
// @Summary      List categories
// @Security     BearerAuth
// @Router       /category [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), "List", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/category"),
	))
	defer span.End()

	categories, err := h.categoryService.GetAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list categories", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	if categories == nil {
		categories = []*types.Category{}
	}

	span.SetStatus(codes.Ok, "Categories listed")
	api.WriteJSONResponse(w, r, http.StatusOK, categories)
}

// Create godoc
// @Summary      Create category (admin only)
// @Security     BearerAuth
// @Router       /category [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), "Create", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/category"),
	))
	defer span.End()

	var params types.CreateCategoryParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			api.ValidationErrorResponse(w, r, fieldErrs)
			return
		}
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.categoryService.Create(ctx, params); err != nil {
		h.logger.ErrorContext(ctx, "Failed to create category", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create category")
		return
	}

	span.SetStatus(codes.Ok, "Category created")
	api.WriteJSONResponse(w, r, http.StatusOK, types.MessageResponse{Message: "success"})
}
