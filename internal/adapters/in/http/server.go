// Package http exposes order creation, the read endpoints polled by trackers and the
// operator action webhook over echo.
package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"fulfillment/internal/adapters/in/chatops"
	"fulfillment/internal/adapters/out/botapi"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/go-telegram/bot/models"
	"github.com/labstack/echo/v4"
)

const (
	// OperatorSecretHeader carries the shared secret of the operator webhook.
	OperatorSecretHeader = "X-Operator-Secret"
	// TelegramSecretHeader carries the secret token registered with setWebhook.
	TelegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// OperatorActions is the operator control channel as seen from HTTP.
type OperatorActions interface {
	HandleAction(ctx context.Context, action chatops.Action) ports.Ack
	AnnounceOrder(ctx context.Context, o *order.Order)
}

// Server holds the HTTP handlers. It coordinates between requests and application use cases.
type Server struct {
	createOrderHandler     commands.CreateOrderCommandHandler
	getOrderHandler        queries.GetOrderQueryHandler
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler
	operator               OperatorActions
	operatorSecret         string
	logger                 *slog.Logger
}

// NewServer creates the server. An empty operatorSecret disables the webhook check.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler,
	operator OperatorActions,
	operatorSecret string,
	logger *slog.Logger,
) *Server {
	return &Server{
		createOrderHandler:     createOrderHandler,
		getOrderHandler:        getOrderHandler,
		getActiveOrdersHandler: getActiveOrdersHandler,
		operator:               operator,
		operatorSecret:         operatorSecret,
		logger:                 logger.With("component", "http"),
	}
}

// CreateOrder handles POST /api/v1/orders - creates a new pending order and announces
// it to the operator.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req CreateOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	orderID := kernel.NewOrderID()
	if req.OrderID != "" {
		id, err := kernel.OrderIDFromString(req.OrderID)
		if err != nil {
			return badRequest(ctx, "Invalid order data: "+err.Error())
		}
		orderID = id
	}

	cmd, err := commands.NewCreateOrderCommand(orderID, kernel.OptionalChannelRef(req.CustomerRef))
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	reqCtx := ctx.Request().Context()
	created, err := s.createOrderHandler.Handle(reqCtx, cmd)
	if err != nil {
		return s.failure(ctx, err, "Failed to create order")
	}

	s.operator.AnnounceOrder(reqCtx, created)

	return ctx.JSON(http.StatusCreated, toOrderResponse(queries.NewOrderResponse(created)))
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(ctx echo.Context) error {
	id, err := kernel.OrderIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id: "+err.Error())
	}

	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	resp, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.failure(ctx, err, "Failed to retrieve order")
	}

	return ctx.JSON(http.StatusOK, toOrderResponse(resp))
}

// GetActiveOrders handles GET /api/v1/orders/active?customer=<ref> - the customer's
// non-terminal orders, most recently created first.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	ref, err := kernel.ChannelRefFromString(ctx.QueryParam("customer"))
	if err != nil {
		return badRequest(ctx, "Query parameter customer is required")
	}

	query, err := queries.NewGetActiveOrdersQuery(ref)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	orders, err := s.getActiveOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.failure(ctx, err, "Failed to retrieve orders")
	}

	response := make([]OrderResponse, len(orders))
	for i, o := range orders {
		response[i] = toOrderResponse(o)
	}

	return ctx.JSON(http.StatusOK, response)
}

// HandleOperatorAction handles POST /api/v1/operator/actions. Rejected actions are
// still answered with 200: the rejection is the operator's answer, not a transport error.
func (s *Server) HandleOperatorAction(ctx echo.Context) error {
	if !s.authorized(ctx, OperatorSecretHeader) {
		return unauthorized(ctx)
	}

	var req OperatorActionRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	ack := s.operator.HandleAction(ctx.Request().Context(), chatops.Action{
		ID:         req.ActionID,
		MessageRef: req.MessageRef,
		Data:       req.Data,
		Operator:   req.Operator,
	})

	return ctx.JSON(http.StatusOK, OperatorActionResponse{OK: ack.OK, Text: ack.Text})
}

// HandleTelegramUpdate handles POST /api/v1/operator/telegram, the Bot API webhook.
// Updates other than button taps are acknowledged and dropped, and so is every
// tap once answered: Telegram retries any reply that is not 200.
func (s *Server) HandleTelegramUpdate(ctx echo.Context) error {
	if !s.authorized(ctx, TelegramSecretHeader) {
		return unauthorized(ctx)
	}

	var update models.Update
	if err := ctx.Bind(&update); err != nil {
		return badRequest(ctx, "Invalid update body")
	}

	cb, ok := botapi.CallbackFromUpdate(update)
	if !ok {
		return ctx.NoContent(http.StatusOK)
	}

	s.operator.HandleAction(ctx.Request().Context(), chatops.Action{
		ID:         cb.ID,
		MessageRef: cb.MessageRef,
		Data:       cb.Data,
		Operator:   cb.Operator,
	})
	return ctx.NoContent(http.StatusOK)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

func (s *Server) failure(ctx echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{Code: http.StatusNotFound, Message: "Order not found"})
	case errors.Is(err, errs.ErrObjectAlreadyExists):
		return ctx.JSON(http.StatusConflict, ErrorResponse{Code: http.StatusConflict, Message: "Order already exists"})
	case errors.Is(err, errs.ErrValueIsInvalid), errors.Is(err, errs.ErrValueIsRequired):
		return badRequest(ctx, err.Error())
	case errors.Is(err, errs.ErrStoreUnavailable):
		s.logger.ErrorContext(ctx.Request().Context(), message, "error", err)
		return ctx.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: http.StatusServiceUnavailable, Message: message})
	default:
		s.logger.ErrorContext(ctx.Request().Context(), message, "error", err)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{Code: http.StatusInternalServerError, Message: message})
	}
}

func (s *Server) authorized(ctx echo.Context, header string) bool {
	if s.operatorSecret == "" {
		return true
	}
	given := ctx.Request().Header.Get(header)
	return subtle.ConstantTimeCompare([]byte(given), []byte(s.operatorSecret)) == 1
}

func unauthorized(ctx echo.Context) error {
	return ctx.JSON(http.StatusUnauthorized, ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: "Invalid operator secret",
	})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{Code: http.StatusBadRequest, Message: message})
}
