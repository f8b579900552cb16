package donate

import (
	"context"
	"log/slog"

	"github.com/giovaniif/fundraising/domain/center"
	"github.com/giovaniif/fundraising/domain/donation"
	protocols "github.com/giovaniif/fundraising/protocols"
)

func NewDonate(repository donation.Repository, publisher protocols.EventPublisher, clock protocols.Clock) *Donate {
	return &Donate{
		repository: repository,
		publisher:  publisher,
		clock:      clock,
	}
}

// Donate records a donation that does not go through a payment gateway. It is
// stored as pending and never confirmed further by this service.
func (d *Donate) Donate(ctx context.Context, input Input) (Output, error) {
	if _, err := d.repository.GetCenter(input.CenterId); err != nil {
		return Output{}, err
	}
	amount, err := donation.ParseAmount(input.Amount)
	if err != nil {
		return Output{}, err
	}

	stored, updated, err := d.repository.Record(donation.Donation{
		CenterId:      input.CenterId,
		Amount:        amount,
		DonorName:     input.DonorName,
		PaymentMethod: input.PaymentMethod,
		Status:        donation.StatusPending,
	})
	if err != nil {
		return Output{}, err
	}
	slog.InfoContext(ctx, "processed donation",
		slog.String("donation_id", stored.Id),
		slog.String("amount", stored.Amount.String()),
		slog.String("currency", stored.Currency),
		slog.String("center_id", stored.CenterId),
	)

	event := protocols.DonationRecorded{Donation: stored, Center: updated, RecordedAt: d.clock.Now()}
	if err := d.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish donation event", slog.String("donation_id", stored.Id), slog.Any("err", err))
	}

	return Output{Donation: stored, Center: updated}, nil
}

type Input struct {
	CenterId      string
	Amount        string
	DonorName     string
	PaymentMethod string
}

type Output struct {
	Donation donation.Donation
	Center   center.Center
}

type Donate struct {
	repository donation.Repository
	publisher  protocols.EventPublisher
	clock      protocols.Clock
}
