package order

import (
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

type OrderHandler struct {
	orderService OrderService
	logger       *slog.Logger
}

func NewOrderHandler(orderService OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// Create godoc
// @Summary      Place an order
// @Description  Creates an order for an unsold product and marks it sold.
// @Security     BearerAuth
// @Router       /order [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("OrderHandler").Start(r.Context(), "Create", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/order"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "CreateOrder"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "missing identity")
		api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	var params types.CreateOrderParams
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

	if err := h.orderService.Create(ctx, userID, params); err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			span.SetStatus(codes.Error, "product not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Not Found")
		case errors.Is(err, types.ErrConflict):
			span.SetStatus(codes.Error, "product sold")
			api.ErrorResponse(w, r, http.StatusConflict, "Product is already sold")
		default:
			l.ErrorContext(ctx, "Failed to create order", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "create failed")
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}

	span.SetStatus(codes.Ok, "Order created")
	api.WriteJSONResponse(w, r, http.StatusOK, types.MessageResponse{Message: "success"})
}

// List godoc
// @Summary      List own orders
// @Security     BearerAuth
// @Router       /order [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("OrderHandler").Start(r.Context(), "List", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/order"),
	))
	defer span.End()

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		span.SetStatus(codes.Error, "missing identity")
		api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	orders, err := h.orderService.GetOwn(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list orders", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	if orders == nil {
		orders = []*types.Order{}
	}

	span.SetStatus(codes.Ok, "Orders listed")
	api.WriteJSONResponse(w, r, http.StatusOK, orders)
}

// Get godoc
// @Summary      Get own order by id
// @Security     BearerAuth
// @Router       /order/{id} [get]
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("OrderHandler").Start(r.Context(), "Get", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/order/{id}"),
	))
	defer span.End()

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		span.SetStatus(codes.Error, "missing identity")
		api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		span.SetStatus(codes.Error, "bad order id")
		api.ErrorResponse(w, r, http.StatusNotFound, "Not Found")
		return
	}

	order, err := h.orderService.GetByID(ctx, userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			span.SetStatus(codes.Error, "order not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Not Found")
		case errors.Is(err, types.ErrPermissionDenied):
			span.SetStatus(codes.Error, "not owner")
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Permission denied")
		default:
			h.logger.ErrorContext(ctx, "Failed to fetch order", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch order")
		}
		return
	}

	span.SetStatus(codes.Ok, "Order fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, order)
}
