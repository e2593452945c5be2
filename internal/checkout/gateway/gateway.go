// Package gateway abstracts the payment provider behind a narrow
// interface so the checkout service never talks to an SDK directly.
package gateway

import "context"

// SaleResult is the provider's answer to a submitted sale. It is stored
// verbatim on the order for traceability.
type SaleResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Success       bool   `json:"success"`
}

// Gateway is the outbound port for payment capability.
type Gateway interface {
	// GenerateClientToken requests a one-time client token used by the
	// browser-side payment SDK.
	GenerateClientToken(ctx context.Context) (string, error)

	// SubmitSale submits a sale transaction for the given amount (minor
	// units) against the tokenized payment method. settleImmediately
	// submits the transaction for settlement in the same call.
	SubmitSale(ctx context.Context, amount int64, nonce string, settleImmediately bool) (*SaleResult, error)
}
