package product

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/go-marketplace/internal/api"
	"github.com/tradepost/go-marketplace/internal/api/auth"
	"github.com/tradepost/go-marketplace/internal/types"
)

type ProductHandler struct {
	productService ProductService
	logger         *slog.Logger
}

func NewProductHandler(productService ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// List godoc
// @Summary      List products
// @Router       /product [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "List", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/product"),
	))
	defer span.End()

	products, err := h.productService.GetAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list products", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	if products == nil {
		products = []*types.Product{}
	}

	span.SetStatus(codes.Ok, "Products listed")
	api.WriteJSONResponse(w, r, http.StatusOK, products)
}

// Get godoc
// @Summary      Get product by id
// @Router       /product/{id} [get]
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "Get", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/product/{id}"),
	))
	defer span.End()

	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		span.SetStatus(codes.Error, "bad product id")
		api.ErrorResponse(w, r, http.StatusNotFound, "Not Found")
		return
	}

	product, err := h.productService.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "product not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Not Found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to fetch product", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	span.SetStatus(codes.Ok, "Product fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, product)
}

// Create godoc
// @Summary      Create product
// @Description  The creator becomes the owner; new products start unsold.
// @Security     BearerAuth
// @Router       /product [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "Create", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/product"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "CreateProduct"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "missing identity")
		api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	var params types.CreateProductParams
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

	if err := h.productService.Create(ctx, userID, params); err != nil {
		l.ErrorContext(ctx, "Failed to create product", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create product")
		return
	}

	span.SetStatus(codes.Ok, "Product created")
	api.WriteJSONResponse(w, r, http.StatusOK, types.MessageResponse{Message: "success"})
}

// Update godoc
// @Summary      Update product
// @Description  Owner-only partial update; any subset of the create fields may be sent.
// @Security     BearerAuth
// @Router       /product [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "Update", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/product"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UpdateProduct"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "missing identity")
		api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	var params types.UpdateProductParams
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

	if err := h.productService.Update(ctx, userID, params); err != nil {
		h.writeMutationError(ctx, w, r, span, err, "update")
		return
	}

	span.SetStatus(codes.Ok, "Product updated")
	api.WriteJSONResponse(w, r, http.StatusOK, types.MessageResponse{Message: "success"})
}

// Delete godoc
// @Summary      Delete product
// @Security     BearerAuth
// @Router       /product/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "Delete", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/product/{id}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "DeleteProduct"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "missing identity")
		api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		span.SetStatus(codes.Error, "bad product id")
		api.ErrorResponse(w, r, http.StatusNotFound, "Not Found")
		return
	}

	if err := h.productService.Delete(ctx, userID, productID); err != nil {
		h.writeMutationError(ctx, w, r, span, err, "delete")
		return
	}

	span.SetStatus(codes.Ok, "Product deleted")
	api.WriteJSONResponse(w, r, http.StatusOK, types.MessageResponse{Message: "success"})
}

// writeMutationError translates service errors for the owner-gated mutations.
// Ownership violations map to 401 to stay distinguishable from the guard's 403.
func (h *ProductHandler) writeMutationError(ctx context.Context, w http.ResponseWriter, r *http.Request, span trace.Span, err error, op string) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		span.SetStatus(codes.Error, "product not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "Not Found")
	case errors.Is(err, types.ErrPermissionDenied):
		span.SetStatus(codes.Error, "not owner")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Permission denied")
	default:
		h.logger.ErrorContext(ctx, "Product mutation failed",
			slog.String("op", op), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "mutation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to "+op+" product")
	}
}
