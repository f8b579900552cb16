package repositories

import (
	"sync"

	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/domain/center"
	"github.com/giovaniif/fundraising/domain/donation"
	protocols "github.com/giovaniif/fundraising/protocols"
	"github.com/google/uuid"
)

// Store is the in-memory center registry and donation ledger. One RWMutex
// guards both, so a donation is never visible in the ledger without its effect
// on the center totals, or the other way around.
type Store struct {
	mutex    sync.RWMutex
	registry *registry
	ledger   *ledger
	clock    protocols.Clock
}

func NewStore(centers []center.Center, clock protocols.Clock) (*Store, error) {
	return NewStoreWithIds(centers, clock, uuid.NewString)
}

func NewStoreWithIds(centers []center.Center, clock protocols.Clock, newId func() string) (*Store, error) {
	r, err := newRegistry(centers)
	if err != nil {
		return nil, err
	}
	return &Store{
		registry: r,
		ledger:   newLedger(newId),
		clock:    clock,
	}, nil
}

func (s *Store) GetCenter(centerId string) (center.Center, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.registry.get(centerId)
}

func (s *Store) ListCenters() []center.Center {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.registry.list()
}

func (s *Store) GetDonation(donationId string) (donation.Donation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.ledger.get(donationId)
}

func (s *Store) ListDonations() []donation.Donation {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.ledger.list()
}

// Record stamps the donation, appends it to the ledger and applies it to its
// center inside one critical section. Currency always comes from the center.
func (s *Store) Record(d donation.Donation) (donation.Donation, center.Center, error) {
	if !d.Amount.IsPositive() {
		return donation.Donation{}, center.Center{}, domain.NewInvalidInputError("donation amount must be positive")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	c, err := s.registry.get(d.CenterId)
	if err != nil {
		return donation.Donation{}, center.Center{}, err
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.clock.Now().UTC()
	}
	d.Currency = c.Currency

	stored, err := s.ledger.append(d)
	if err != nil {
		return donation.Donation{}, center.Center{}, err
	}
	updated, err := s.registry.applyDonation(stored.CenterId, stored.Amount, stored.CreatedAt)
	if err != nil {
		s.ledger.undo(stored.Id)
		return donation.Donation{}, center.Center{}, err
	}
	return stored, updated, nil
}
