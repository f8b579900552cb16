package initiate

import (
	"context"
	"log/slog"
	"time"

	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/domain/donation"
	protocols "github.com/giovaniif/fundraising/protocols"
)

const DefaultTimeout = 30 * time.Second

func NewInitiate(repository donation.Repository, gateway protocols.PaymentGateway, timeout time.Duration) *Initiate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Initiate{
		repository: repository,
		gateway:    gateway,
		timeout:    timeout,
	}
}

// Initiate asks the gateway for a payment intent and returns where the payer
// must go to approve it. Nothing is recorded locally until Finalize.
func (i *Initiate) Initiate(ctx context.Context, input Input) (Output, error) {
	c, err := i.repository.GetCenter(input.CenterId)
	if err != nil {
		return Output{}, err
	}
	amount, err := donation.ParseAmount(input.Amount)
	if err != nil {
		return Output{}, err
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	intent, err := i.gateway.CreatePaymentIntent(gatewayCtx, protocols.PaymentIntentRequest{
		Amount:      amount.Round(2),
		Currency:    c.Currency,
		ItemName:    "Donation to " + c.Name,
		Sku:         c.Id,
		Description: "Donation to support " + c.Name,
		ReturnUrl:   input.ReturnUrl,
		CancelUrl:   input.CancelUrl,
	})
	if err != nil {
		err = domain.GatewayFailure("create payment", err)
		slog.ErrorContext(ctx, "failed to create payment", slog.String("center_id", c.Id), slog.Any("err", err))
		return Output{}, err
	}
	if intent == nil || intent.Id == "" {
		slog.ErrorContext(ctx, "payment gateway returned no payment id")
		return Output{}, domain.NewGatewayProtocolError("no payment id in create response")
	}

	approvalUrl := intent.ApprovalUrl()
	if approvalUrl == "" {
		slog.ErrorContext(ctx, "no approval URL found in gateway response", slog.String("payment_id", intent.Id))
		return Output{}, domain.NewGatewayProtocolError("no approval URL")
	}

	slog.InfoContext(ctx, "created payment",
		slog.String("payment_id", intent.Id),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("currency", c.Currency),
		slog.String("center_id", c.Id),
	)
	return Output{PaymentId: intent.Id, ApprovalUrl: approvalUrl}, nil
}

type Input struct {
	CenterId  string
	Amount    string
	ReturnUrl string
	CancelUrl string
}

type Output struct {
	PaymentId   string
	ApprovalUrl string
}

type Initiate struct {
	repository donation.Repository
	gateway    protocols.PaymentGateway
	timeout    time.Duration
}
