package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/giovaniif/fundraising/domain/center"
	"github.com/giovaniif/fundraising/domain/donation"
	protocols "github.com/giovaniif/fundraising/protocols"
)

// donationEvent is the wire shape shared by every event sink.
type donationEvent struct {
	Type       string            `json:"type"`
	RecordedAt time.Time         `json:"recorded_at"`
	Donation   donation.Donation `json:"donation"`
	Center     centerTotals      `json:"center"`
}

type centerTotals struct {
	Id           string     `json:"id"`
	FundsRaised  string     `json:"funds_raised"`
	Donors       int        `json:"donors"`
	Goal         string     `json:"goal"`
	Currency     string     `json:"currency"`
	LastDonation *time.Time `json:"last_donation"`
}

func newDonationEvent(event protocols.DonationRecorded) donationEvent {
	return donationEvent{
		Type:       protocols.DonationRecordedEvent,
		RecordedAt: event.RecordedAt.UTC(),
		Donation:   event.Donation,
		Center:     totalsOf(event.Center),
	}
}

func totalsOf(c center.Center) centerTotals {
	return centerTotals{
		Id:           c.Id,
		FundsRaised:  c.FundsRaised.String(),
		Donors:       c.Donors,
		Goal:         c.Goal.String(),
		Currency:     c.Currency,
		LastDonation: c.LastDonation,
	}
}

func encodeDonationEvent(event protocols.DonationRecorded) ([]byte, error) {
	return json.Marshal(newDonationEvent(event))
}

// FanOutPublisher hands every event to all publishers and joins their errors.
type FanOutPublisher struct {
	publishers []protocols.EventPublisher
}

func NewFanOutPublisher(publishers ...protocols.EventPublisher) *FanOutPublisher {
	return &FanOutPublisher{publishers: publishers}
}

func (f *FanOutPublisher) Add(publisher protocols.EventPublisher) {
	f.publishers = append(f.publishers, publisher)
}

func (f *FanOutPublisher) Publish(ctx context.Context, event protocols.DonationRecorded) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
