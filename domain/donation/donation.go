package donation

import (
	"strings"
	"time"

	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/domain/center"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

const MethodPaypal = "paypal"

var (
	MinimumAmount = decimal.NewFromInt(10)
	MaximumAmount = decimal.NewFromInt(1_000_000_000)
)

// Bounds on the textual form, checked before any arithmetic so a short
// string such as "1e10000000" never expands into a huge coefficient.
const (
	maxAmountLength = 32
	minExponent     = -8
	maxExponent     = 9
)

type Donation struct {
	Id            string          `json:"id"`
	CenterId      string          `json:"center_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	DonorName     string          `json:"donor_name"`
	PaymentMethod string          `json:"payment_method"`
	Status        Status          `json:"status"`
	PaymentId     string          `json:"payment_id,omitempty"`
	PayerId       string          `json:"payer_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ParseAmount turns client input into a donation amount, rejecting anything
// that is not a finite number, is under MinimumAmount or above MaximumAmount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" || len(value) > maxAmountLength {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}
	if exp := amount.Exponent(); exp < minExponent || exp > maxExponent {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}
	if amount.GreaterThan(MaximumAmount) {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}
	if amount.LessThan(MinimumAmount) {
		return decimal.Decimal{}, domain.ErrBelowMinimum
	}
	return amount, nil
}

// Repository is the shared center registry and donation ledger. Record appends
// the donation and applies it to its center as one step.
type Repository interface {
	GetCenter(centerId string) (center.Center, error)
	ListCenters() []center.Center
	Record(donation Donation) (Donation, center.Center, error)
	GetDonation(donationId string) (Donation, error)
	ListDonations() []Donation
}
