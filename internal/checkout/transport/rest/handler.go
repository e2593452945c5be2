// Package rest provides HTTP handlers for checkout operations.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	checkouterrors "github.com/pharmacart/backend/internal/checkout/errors"
	"github.com/pharmacart/backend/internal/checkout/service"
	"github.com/pharmacart/backend/pkg/web"
)

type Handler struct {
	service  service.CheckoutService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the checkout API with the provided service.
func NewHandler(service service.CheckoutService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the checkout routes on the medicine subrouter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/braintree/token", h.ClientToken)
	r.Group(func(r chi.Router) {
		r.Use(web.AuthMiddleware)
		r.Post("/braintree/payment", h.Pay)
		r.Get("/orders", h.Orders)
	})
}

// ClientToken issues a one-time client token for the browser payment SDK.
func (h *Handler) ClientToken(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, err := h.service.ClientToken(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error generating client token", "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, "Error while generating token", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Client Token", map[string]string{"clientToken": token})
}

// PaymentRequest is the body of the payment endpoint. Cart is the
// transient client-side cart; its prices are charged as posted.
type PaymentRequest struct {
	Nonce string                `json:"nonce" validate:"required"`
	Cart  []service.CartItemDto `json:"cart" validate:"omitempty,dive"`
}

// Pay charges the posted cart and records the resulting order.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	buyerID, ok := web.RequireUserID(w, r, mLogger)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		mLogger.WarnContext(r.Context(), "Invalid payment request", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Payment nonce is required", err)
		return
	}

	mLogger.DebugContext(r.Context(), "Received payment request", "buyer", buyerID, "items", len(req.Cart))
	receipt, err := h.service.Pay(r.Context(), buyerID, req.Nonce, req.Cart)
	if err != nil {
		if ge, ok := checkouterrors.IsGateway(err); ok {
			mLogger.WarnContext(r.Context(), "Gateway declined payment", "op", ge.Op, "error", err)
			web.RespondError(w, mLogger, http.StatusBadGateway, "Payment was not processed", err)
			return
		}
		mLogger.ErrorContext(r.Context(), "Error processing payment", "buyer", buyerID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error while processing payment", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Payment Successful", receipt)
}

// Orders returns the authenticated buyer's order history.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	buyerID, ok := web.RequireUserID(w, r, mLogger)
	if !ok {
		return
	}
	orders, err := h.service.OrdersByBuyer(r.Context(), buyerID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving orders", "buyer", buyerID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Error while getting orders", err)
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, "Buyer Orders", orders)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
