// Package errors provides custom error types for checkout operations.
package errors

import (
	"errors"
	"fmt"
)

var ErrCreateOrder = errors.New("failed to create order")

// GatewayError reports a failure surfaced by the payment gateway, for
// either token generation or a sale submission. Err carries the
// gateway's own error payload; its shape is provider-defined.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsGateway reports whether err is a GatewayError and returns it.
func IsGateway(err error) (*GatewayError, bool) {
	var ge *GatewayError
	ok := errors.As(err, &ge)
	return ge, ok
}
