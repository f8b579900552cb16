package gateways

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/infra/tracing"
	protocols "github.com/giovaniif/fundraising/protocols"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// checkoutSessions is the part of the Stripe API client this gateway uses.
type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// PaymentGatewayStripe maps the two step flow onto Stripe Checkout: the
// session URL is the approval URL and executing means confirming the session
// was paid.
type PaymentGatewayStripe struct {
	sessions checkoutSessions
}

func NewPaymentGatewayStripe(secretKey string) *PaymentGatewayStripe {
	sc := client.New(secretKey, nil)
	return &PaymentGatewayStripe{sessions: sc.CheckoutSessions}
}

func newPaymentGatewayStripeWithSessions(sessions checkoutSessions) *PaymentGatewayStripe {
	return &PaymentGatewayStripe{sessions: sessions}
}

func (s *PaymentGatewayStripe) CreatePaymentIntent(ctx context.Context, request protocols.PaymentIntentRequest) (*protocols.PaymentIntent, error) {
	ctx, span := tracing.Start(ctx, "stripe.create_checkout_session")
	defer span.End()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(request.ReturnUrl),
		CancelURL:  stripe.String(request.CancelUrl),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(request.Currency)),
				UnitAmount: stripe.Int64(toMinorUnits(request.Amount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(request.ItemName),
					Description: stripe.String(request.Description),
				},
			},
		}},
	}
	params.Context = ctx
	params.AddMetadata("center_id", request.Sku)

	session, err := s.sessions.New(params)
	if err != nil {
		err = stripeFailure("create checkout session", err, "")
		tracing.RecordError(span, err)
		return nil, err
	}
	intent := &protocols.PaymentIntent{Id: session.ID}
	if session.URL != "" {
		intent.Links = append(intent.Links, protocols.Link{Href: session.URL, Rel: protocols.ApprovalLinkRel, Method: http.MethodGet})
	}
	return intent, nil
}

func (s *PaymentGatewayStripe) ExecutePayment(ctx context.Context, paymentId string, payerId string) (*protocols.ExecutedPayment, error) {
	ctx, span := tracing.Start(ctx, "stripe.confirm_checkout_session")
	defer span.End()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	session, err := s.sessions.Get(paymentId, params)
	if err != nil {
		err = stripeFailure("retrieve checkout session", err, paymentId)
		tracing.RecordError(span, err)
		return nil, err
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		err := &domain.GatewayError{
			Op:  "confirm checkout session",
			Err: fmt.Errorf("checkout session %s payment status is %q", paymentId, session.PaymentStatus),
		}
		tracing.RecordError(span, err)
		return nil, err
	}
	return &protocols.ExecutedPayment{
		Id:       session.ID,
		PayerId:  payerId,
		Method:   "stripe",
		Amount:   fromMinorUnits(session.AmountTotal),
		Currency: strings.ToUpper(string(session.Currency)),
	}, nil
}

func stripeFailure(op string, err error, paymentId string) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &domain.GatewayError{Op: op, Err: err}
	}
	if paymentId != "" && (stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing) {
		return domain.NewPaymentNotFoundError(paymentId)
	}
	gatewayErr := &domain.GatewayError{Op: op, StatusCode: stripeErr.HTTPStatusCode, Err: err}
	if stripeErr.LastResponse != nil && len(stripeErr.LastResponse.RawJSON) > 0 {
		gatewayErr.Details = stripeErr.LastResponse.RawJSON
	}
	return gatewayErr
}

// Stripe amounts are integers in the currency's minor unit. Only two decimal
// currencies are supported.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
