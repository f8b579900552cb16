package protocols

import (
	"context"

	"github.com/shopspring/decimal"
)

const ApprovalLinkRel = "approval_url"

type PaymentIntentRequest struct {
	Amount      decimal.Decimal
	Currency    string
	ItemName    string
	Sku         string
	Description string
	ReturnUrl   string
	CancelUrl   string
}

type Link struct {
	Href   string
	Rel    string
	Method string
}

type PaymentIntent struct {
	Id    string
	Links []Link
}

// ApprovalUrl returns the href of the link the payer must be redirected to, or "".
func (p *PaymentIntent) ApprovalUrl() string {
	for _, link := range p.Links {
		if link.Rel == ApprovalLinkRel {
			return link.Href
		}
	}
	return ""
}

type ExecutedPayment struct {
	Id       string
	PayerId  string
	Method   string
	Amount   decimal.Decimal
	Currency string
}

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, request PaymentIntentRequest) (*PaymentIntent, error)
	ExecutePayment(ctx context.Context, paymentId string, payerId string) (*ExecutedPayment, error)
}
