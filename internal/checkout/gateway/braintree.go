package gateway

import (
	"context"
	"time"

	braintree "github.com/braintree-go/braintree-go"
	checkouterrors "github.com/pharmacart/backend/internal/checkout/errors"
)

// BraintreeGateway implements Gateway on top of the Braintree Go SDK.
// Credentials are injected at construction; nothing is read from the
// environment at call time.
type BraintreeGateway struct {
	bt      *braintree.Braintree
	timeout time.Duration
}

// NewBraintreeGateway builds a gateway client for the given environment
// ("sandbox" or "production") and merchant credentials. Every SDK call
// runs under the configured timeout.
func NewBraintreeGateway(environment, merchantID, publicKey, privateKey string, timeout time.Duration) *BraintreeGateway {
	env := braintree.Sandbox
	if environment == "production" {
		env = braintree.Production
	}
	return &BraintreeGateway{
		bt:      braintree.New(env, merchantID, publicKey, privateKey),
		timeout: timeout,
	}
}

// GenerateClientToken requests a one-time client token from Braintree.
func (g *BraintreeGateway) GenerateClientToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	token, err := g.bt.ClientToken().Generate(ctx)
	if err != nil {
		return "", &checkouterrors.GatewayError{Op: "client token", Err: err}
	}
	return token, nil
}

// SubmitSale submits a sale transaction for the given amount in minor units.
func (g *BraintreeGateway) SubmitSale(ctx context.Context, amount int64, nonce string, settleImmediately bool) (*SaleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tx, err := g.bt.Transaction().Create(ctx, &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(amount, 2),
		PaymentMethodNonce: nonce,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: settleImmediately,
		},
	})
	if err != nil {
		return nil, &checkouterrors.GatewayError{Op: "sale", Err: err}
	}
	return &SaleResult{
		TransactionID: tx.Id,
		Status:        string(tx.Status),
		Amount:        amount,
		Success:       true,
	}, nil
}
