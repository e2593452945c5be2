package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	checkouterrors "github.com/pharmacart/backend/internal/checkout/errors"
)

// PgStore implements OrderStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of OrderStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// CreateOrder inserts a new order and returns the stored row.
func (p *PgStore) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	order := Order{
		BuyerID: params.BuyerID,
		Items:   params.Items,
		Payment: params.Payment,
	}
	err := p.db.QueryRow(ctx,
		`INSERT INTO orders (buyer_id, items, payment)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		params.BuyerID, params.Items, params.Payment,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", checkouterrors.ErrCreateOrder, err)
	}
	return &order, nil
}

// FindOrdersByBuyer returns the buyer's orders, newest first.
func (p *PgStore) FindOrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]Order, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, buyer_id, items, payment, created_at
		 FROM orders
		 WHERE buyer_id = $1
		 ORDER BY created_at DESC`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders by buyer: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.Items, &o.Payment, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order rows: %w", err)
	}
	return orders, nil
}
