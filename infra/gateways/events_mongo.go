package gateways

import (
	"context"
	"fmt"
	"time"

	protocols "github.com/giovaniif/fundraising/protocols"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const auditCollection = "donation_events"

type auditDocument struct {
	Type          string          `bson:"type"`
	RecordedAt    time.Time       `bson:"recorded_at"`
	DonationId    string          `bson:"donation_id"`
	CenterId      string          `bson:"center_id"`
	Amount        bson.Decimal128 `bson:"amount"`
	Currency      string          `bson:"currency"`
	DonorName     string          `bson:"donor_name"`
	PaymentMethod string          `bson:"payment_method"`
	Status        string          `bson:"status"`
	PaymentId     string          `bson:"payment_id,omitempty"`
	PayerId       string          `bson:"payer_id,omitempty"`
	FundsRaised   string          `bson:"center_funds_raised"`
	Donors        int             `bson:"center_donors"`
}

// EventPublisherMongo keeps an append-only audit trail of recorded donations.
// The service never reads it back.
type EventPublisherMongo struct {
	insert func(ctx context.Context, document any) error
}

func NewEventPublisherMongo(db *mongo.Database) *EventPublisherMongo {
	collection := db.Collection(auditCollection)
	return &EventPublisherMongo{insert: func(ctx context.Context, document any) error {
		_, err := collection.InsertOne(ctx, document)
		return err
	}}
}

func (m *EventPublisherMongo) Publish(ctx context.Context, event protocols.DonationRecorded) error {
	d := event.Donation
	amount, err := bson.ParseDecimal128(d.Amount.String())
	if err != nil {
		return fmt.Errorf("mongo amount: %w", err)
	}
	doc := auditDocument{
		Type:          protocols.DonationRecordedEvent,
		RecordedAt:    event.RecordedAt.UTC(),
		DonationId:    d.Id,
		CenterId:      d.CenterId,
		Amount:        amount,
		Currency:      d.Currency,
		DonorName:     d.DonorName,
		PaymentMethod: d.PaymentMethod,
		Status:        string(d.Status),
		PaymentId:     d.PaymentId,
		PayerId:       d.PayerId,
		FundsRaised:   event.Center.FundsRaised.String(),
		Donors:        event.Center.Donors,
	}
	if err := m.insert(ctx, doc); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}
