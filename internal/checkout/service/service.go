// Package service provides the implementation of checkout business logic.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacart/backend/internal/checkout/gateway"
	"github.com/pharmacart/backend/internal/checkout/store"
)

// CheckoutService defines the payment operations.
// It abstracts the underlying business logic and data access.
type CheckoutService interface {
	// ClientToken requests a one-time client token from the payment
	// gateway and returns it verbatim. Returns a GatewayError on failure.
	ClientToken(ctx context.Context) (string, error)

	// Pay charges the cart total against the tokenized payment method
	// and records an order for the buyer. Returns a GatewayError and
	// records nothing when the gateway rejects the sale.
	Pay(ctx context.Context, buyerID uuid.UUID, nonce string, cart []CartItemDto) (*ReceiptDto, error)

	// OrdersByBuyer returns the buyer's order history, newest first.
	OrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]OrderDto, error)
}

// Service implements CheckoutService.
type Service struct {
	orderStore store.OrderStore
	gateway    gateway.Gateway
}

// NewService creates a new instance of CheckoutService with the
// provided order store and payment gateway.
func NewService(orderStore store.OrderStore, gw gateway.Gateway) *Service {
	return &Service{
		orderStore: orderStore,
		gateway:    gw,
	}
}

// CartItemDto is one line of the transient cart posted at checkout.
type CartItemDto struct {
	MedicineID uuid.UUID `json:"medicine_id" validate:"required"`
	Name       string    `json:"name"`
	Price      int64     `json:"price" validate:"min=0"`
}

// ReceiptDto acknowledges a settled payment.
type ReceiptDto struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
}

// OrderDto represents the data transfer object for a recorded order.
type OrderDto struct {
	ID        string          `json:"id"`
	BuyerID   string          `json:"buyer_id"`
	Medicine  []CartItemDto   `json:"medicine"`
	Payment   json.RawMessage `json:"payment"`
	CreatedAt string          `json:"created_at"`
}

// ClientToken requests a one-time client token from the gateway.
func (s *Service) ClientToken(ctx context.Context) (string, error) {
	token, err := s.gateway.GenerateClientToken(ctx)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Pay computes the cart total, submits the sale for immediate
// settlement and records the order on success.
func (s *Service) Pay(ctx context.Context, buyerID uuid.UUID, nonce string, cart []CartItemDto) (*ReceiptDto, error) {
	var total int64
	for _, item := range cart {
		total += item.Price
	}

	result, err := s.gateway.SubmitSale(ctx, total, nonce, true)
	if err != nil {
		slog.WarnContext(ctx, "Payment gateway rejected sale", "buyer", buyerID, "amount", total, "error", err)
		return nil, err
	}

	items, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	payment, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway result: %w", err)
	}

	// The sale is already settled at this point; the insert below is a
	// separate step, so a crash in between leaves a captured payment
	// with no order row.
	order, err := s.orderStore.CreateOrder(ctx, store.CreateOrderParams{
		BuyerID: buyerID,
		Items:   items,
		Payment: payment,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Payment settled but order persistence failed", "buyer", buyerID, "transaction", result.TransactionID, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "Order recorded", "order", order.ID, "buyer", buyerID, "amount", total, "transaction", result.TransactionID)
	return &ReceiptDto{
		OrderID:       order.ID.String(),
		TransactionID: result.TransactionID,
		Amount:        total,
	}, nil
}

// OrdersByBuyer retrieves the buyer's orders and returns them as OrderDtos.
func (s *Service) OrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]OrderDto, error) {
	orders, err := s.orderStore.FindOrdersByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders for buyer %s: %w", buyerID, err)
	}
	dtos := make([]OrderDto, len(orders))
	for i, o := range orders {
		dto := OrderDto{
			ID:        o.ID.String(),
			BuyerID:   o.BuyerID.String(),
			Payment:   json.RawMessage(o.Payment),
			CreatedAt: o.CreatedAt.Format(time.RFC3339),
		}
		if err := json.Unmarshal(o.Items, &dto.Medicine); err != nil {
			return nil, fmt.Errorf("failed to decode cart snapshot for order %s: %w", o.ID, err)
		}
		dtos[i] = dto
	}
	return dtos, nil
}
