package finalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/domain/center"
	"github.com/giovaniif/fundraising/domain/donation"
	protocols "github.com/giovaniif/fundraising/protocols"
)

const DefaultTimeout = 30 * time.Second

func NewFinalize(repository donation.Repository, gateway protocols.PaymentGateway, publisher protocols.EventPublisher, clock protocols.Clock, timeout time.Duration) *Finalize {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Finalize{
		repository: repository,
		gateway:    gateway,
		publisher:  publisher,
		clock:      clock,
		timeout:    timeout,
	}
}

// Finalize executes a payment the payer approved and records it as a completed
// donation. The amount recorded is what the gateway captured, never what the
// client sent.
func (f *Finalize) Finalize(ctx context.Context, input Input) (Output, error) {
	c, err := f.repository.GetCenter(input.CenterId)
	if err != nil {
		return Output{}, err
	}
	if strings.TrimSpace(input.PaymentId) == "" || strings.TrimSpace(input.PayerId) == "" {
		return Output{}, domain.NewInvalidInputError("payment_id and payer_id are required")
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	payment, err := f.gateway.ExecutePayment(gatewayCtx, input.PaymentId, input.PayerId)
	if err != nil {
		err = domain.GatewayFailure("execute payment", err)
		slog.ErrorContext(ctx, "failed to execute payment", slog.String("payment_id", input.PaymentId), slog.Any("err", err))
		return Output{}, err
	}
	if err := reconcile(payment, c); err != nil {
		slog.ErrorContext(ctx, "executed payment does not match center", slog.String("payment_id", input.PaymentId), slog.Any("err", err))
		return Output{}, err
	}

	method := payment.Method
	if method == "" {
		method = donation.MethodPaypal
	}
	stored, updated, err := f.repository.Record(donation.Donation{
		CenterId:      c.Id,
		Amount:        payment.Amount,
		DonorName:     input.DonorName,
		PaymentMethod: method,
		Status:        donation.StatusCompleted,
		PaymentId:     input.PaymentId,
		PayerId:       input.PayerId,
	})
	if err != nil {
		slog.ErrorContext(ctx, "payment executed but donation was not recorded", slog.String("payment_id", input.PaymentId), slog.Any("err", err))
		return Output{}, err
	}
	slog.InfoContext(ctx, "executed payment",
		slog.String("payment_id", input.PaymentId),
		slog.String("donation_id", stored.Id),
		slog.String("amount", stored.Amount.String()),
		slog.String("currency", stored.Currency),
		slog.String("center_id", stored.CenterId),
	)

	event := protocols.DonationRecorded{Donation: stored, Center: updated, RecordedAt: f.clock.Now()}
	if err := f.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish donation event", slog.String("donation_id", stored.Id), slog.Any("err", err))
	}

	return Output{Donation: stored, Center: updated}, nil
}

// reconcile checks the gateway's capture against the center it is credited to.
func reconcile(payment *protocols.ExecutedPayment, c center.Center) error {
	if payment == nil {
		return domain.NewGatewayProtocolError("empty execute response")
	}
	if !payment.Amount.IsPositive() {
		return domain.NewGatewayProtocolError(fmt.Sprintf("captured amount %s is not positive", payment.Amount))
	}
	if !strings.EqualFold(payment.Currency, c.Currency) {
		return domain.NewGatewayProtocolError(fmt.Sprintf("captured currency %q, center %s uses %q", payment.Currency, c.Id, c.Currency))
	}
	return nil
}

type Input struct {
	PaymentId string
	PayerId   string
	CenterId  string
	DonorName string
}

type Output struct {
	Donation donation.Donation
	Center   center.Center
}

type Finalize struct {
	repository donation.Repository
	gateway    protocols.PaymentGateway
	publisher  protocols.EventPublisher
	clock      protocols.Clock
	timeout    time.Duration
}
