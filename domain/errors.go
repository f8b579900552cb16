package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be a valid number", ErrInvalidInput)
	ErrBelowMinimum      = errors.New("minimum donation amount is $10")
	ErrCenterNotFound    = errors.New("center not found")
	ErrDonationNotFound  = errors.New("donation not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrGateway           = errors.New("payment gateway error")
	ErrGatewayProtocol   = errors.New("payment gateway protocol error")
	ErrDuplicateCenterID = errors.New("duplicate center id")
	ErrInternal          = errors.New("internal error")
)

func NewInvalidInputError(details string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, details)
}

func NewCenterNotFoundError(centerId string) error {
	return fmt.Errorf("%w: %s", ErrCenterNotFound, centerId)
}

func NewDonationNotFoundError(donationId string) error {
	return fmt.Errorf("%w: %s", ErrDonationNotFound, donationId)
}

func NewPaymentNotFoundError(paymentId string) error {
	return fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentId)
}

func NewGatewayProtocolError(details string) error {
	return fmt.Errorf("%w: %s", ErrGatewayProtocol, details)
}

func NewInternalError(details string) error {
	return fmt.Errorf("%w: %s", ErrInternal, details)
}

// GatewayError is a failure reported by (or while talking to) the payment provider.
// Details holds the provider's own error payload when it sent one.
type GatewayError struct {
	Op         string
	StatusCode int
	Details    json.RawMessage
	Err        error
}

func (e *GatewayError) Error() string {
	msg := "payment gateway error during " + e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGateway}
	}
	return []error{ErrGateway, e.Err}
}

// GatewayFailure normalizes an error returned by a gateway call so callers only
// ever see PaymentNotFound, GatewayProtocolError or a *GatewayError.
func GatewayFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPaymentNotFound) || errors.Is(err, ErrGateway) || errors.Is(err, ErrGatewayProtocol) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &GatewayError{Op: op, Err: fmt.Errorf("gateway call timed out: %w", err)}
	}
	return &GatewayError{Op: op, Err: err}
}
