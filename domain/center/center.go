package center

import (
	"time"

	"github.com/shopspring/decimal"
)

type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type Center struct {
	Id           string          `json:"id"`
	Name         string          `json:"name"`
	Location     Location        `json:"location"`
	FundsRaised  decimal.Decimal `json:"funds_raised"`
	Goal         decimal.Decimal `json:"goal"`
	Donors       int             `json:"donors"`
	LastDonation *time.Time      `json:"last_donation"`
	CreatedAt    time.Time       `json:"created_at"`
	Currency     string          `json:"currency"`
}

// ApplyDonation adds one donation to the running totals. Donors counts
// donations, not distinct people.
func (c *Center) ApplyDonation(amount decimal.Decimal, at time.Time) {
	c.FundsRaised = c.FundsRaised.Add(amount)
	c.Donors++
	ts := at
	c.LastDonation = &ts
}

// Copy returns a value that shares no pointers with c.
func (c Center) Copy() Center {
	if c.LastDonation != nil {
		ts := *c.LastDonation
		c.LastDonation = &ts
	}
	return c
}
