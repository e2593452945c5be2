// Package store provides persistence for orders.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Order is a record of one settled payment. Items is the denormalized
// cart snapshot and Payment the gateway result, both as raw JSON;
// neither is ever mutated after creation.
type Order struct {
	ID        uuid.UUID
	BuyerID   uuid.UUID
	Items     []byte
	Payment   []byte
	CreatedAt time.Time
}

type CreateOrderParams struct {
	BuyerID uuid.UUID
	Items   []byte
	Payment []byte
}

// OrderStore defines the persistence operations of checkout.
type OrderStore interface {
	// CreateOrder inserts a new order and returns the stored row.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error)

	// FindOrdersByBuyer returns the buyer's orders, newest first.
	FindOrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]Order, error)
}
