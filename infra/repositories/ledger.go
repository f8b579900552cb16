package repositories

import (
	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/domain/donation"
)

// ledger is the append-only donation log. Not safe for concurrent use.
type ledger struct {
	donations map[string]donation.Donation
	order     []string
	newId     func() string
}

func newLedger(newId func() string) *ledger {
	return &ledger{
		donations: make(map[string]donation.Donation),
		newId:     newId,
	}
}

func (l *ledger) append(d donation.Donation) (donation.Donation, error) {
	if d.Id == "" {
		d.Id = l.newId()
	}
	if _, exists := l.donations[d.Id]; exists {
		return donation.Donation{}, domain.NewInternalError("donation id collision: " + d.Id)
	}
	l.donations[d.Id] = d
	l.order = append(l.order, d.Id)
	return d, nil
}

// undo drops the most recent append. Only used to roll back a Record that
// could not be applied to its center.
func (l *ledger) undo(donationId string) {
	if n := len(l.order); n > 0 && l.order[n-1] == donationId {
		l.order = l.order[:n-1]
		delete(l.donations, donationId)
	}
}

func (l *ledger) get(donationId string) (donation.Donation, error) {
	d, ok := l.donations[donationId]
	if !ok {
		return donation.Donation{}, domain.NewDonationNotFoundError(donationId)
	}
	return d, nil
}

func (l *ledger) list() []donation.Donation {
	donations := make([]donation.Donation, 0, len(l.order))
	for _, id := range l.order {
		donations = append(donations, l.donations[id])
	}
	return donations
}
