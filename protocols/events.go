package protocols

import (
	"context"
	"time"

	"github.com/giovaniif/fundraising/domain/center"
	"github.com/giovaniif/fundraising/domain/donation"
)

const DonationRecordedEvent = "donation.recorded"

type DonationRecorded struct {
	Donation   donation.Donation
	Center     center.Center
	RecordedAt time.Time
}

type EventPublisher interface {
	Publish(ctx context.Context, event DonationRecorded) error
}
