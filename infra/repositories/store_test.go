package repositories

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/domain/center"
	"github.com/giovaniif/fundraising/domain/donation"
	"github.com/shopspring/decimal"
)

type fixedClock struct {
	now time.Time
}

func (f *fixedClock) Now() time.Time {
	return f.now
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	centers, err := center.Build(center.DefaultCatalog(), center.BuildOptions{})
	if err != nil {
		t.Fatalf("expected nil error building centers, got %v", err)
	}
	store, err := NewStore(centers, &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("expected nil error creating store, got %v", err)
	}
	return store
}

func assertTotalsMatchLedger(t *testing.T, store *Store) {
	t.Helper()
	sums := map[string]decimal.Decimal{}
	counts := map[string]int{}
	for _, d := range store.ListDonations() {
		sums[d.CenterId] = sums[d.CenterId].Add(d.Amount)
		counts[d.CenterId]++
	}
	for _, c := range store.ListCenters() {
		if !c.FundsRaised.Equal(sums[c.Id]) {
			t.Errorf("expected %s funds %s, got %s", c.Id, sums[c.Id], c.FundsRaised)
		}
		if c.Donors != counts[c.Id] {
			t.Errorf("expected %s donors %d, got %d", c.Id, counts[c.Id], c.Donors)
		}
	}
}

func TestRecordAppliesDonation(t *testing.T) {
	store := newTestStore(t)

	stored, updated, err := store.Record(donation.Donation{
		CenterId:      "toronto_canada",
		Amount:        decimal.NewFromInt(40),
		DonorName:     "Ada",
		PaymentMethod: "bank_transfer",
		Status:        donation.StatusPending,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if stored.Id == "" {
		t.Fatalf("expected an id to be assigned")
	}
	if stored.Currency != "USD" {
		t.Fatalf("expected currency inherited from center, got %q", stored.Currency)
	}
	if !updated.FundsRaised.Equal(decimal.NewFromInt(40)) || updated.Donors != 1 {
		t.Fatalf("unexpected center totals: %+v", updated)
	}
	if updated.LastDonation == nil || !updated.LastDonation.Equal(stored.CreatedAt) {
		t.Fatalf("expected last donation %v, got %v", stored.CreatedAt, updated.LastDonation)
	}

	got, err := store.GetDonation(stored.Id)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.Id != stored.Id || got.DonorName != "Ada" {
		t.Fatalf("unexpected donation %+v", got)
	}
	assertTotalsMatchLedger(t, store)
}

func TestRecordUnknownCenter(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Record(donation.Donation{CenterId: "atlantis", Amount: decimal.NewFromInt(50)})
	if !errors.Is(err, domain.ErrCenterNotFound) {
		t.Fatalf("expected ErrCenterNotFound, got %v", err)
	}
	if n := len(store.ListDonations()); n != 0 {
		t.Fatalf("expected empty ledger, got %d donations", n)
	}
	assertTotalsMatchLedger(t, store)
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Record(donation.Donation{CenterId: "toronto_canada", Amount: decimal.Zero})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecordIdCollision(t *testing.T) {
	centers, _ := center.Build(center.DefaultCatalog(), center.BuildOptions{})
	store, err := NewStoreWithIds(centers, &fixedClock{now: time.Now()}, func() string { return "same" })
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, _, err := store.Record(donation.Donation{CenterId: "toronto_canada", Amount: decimal.NewFromInt(10)}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	_, _, err = store.Record(donation.Donation{CenterId: "toronto_canada", Amount: decimal.NewFromInt(10)})
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal on id collision, got %v", err)
	}
	c, _ := store.GetCenter("toronto_canada")
	if c.Donors != 1 {
		t.Fatalf("expected collision to leave totals untouched, got %d donors", c.Donors)
	}
	assertTotalsMatchLedger(t, store)
}

func TestNewStoreRejectsDuplicateCenters(t *testing.T) {
	centers := []center.Center{{Id: "a"}, {Id: "a"}}
	if _, err := NewStore(centers, &fixedClock{}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestListCentersIsStable(t *testing.T) {
	store := newTestStore(t)

	first := store.ListCenters()
	second := store.ListCenters()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical lists, got %v and %v", first, second)
	}
	if first[0].Id != "vancouver_canada" || first[len(first)-1].Id != "new_york_usa" {
		t.Fatalf("expected catalog order, got %s ... %s", first[0].Id, first[len(first)-1].Id)
	}
}

func TestReturnedCentersAreCopies(t *testing.T) {
	store := newTestStore(t)

	c, _ := store.GetCenter("vancouver_canada")
	c.Donors = 99
	c.FundsRaised = decimal.NewFromInt(1000)

	fresh, _ := store.GetCenter("vancouver_canada")
	if fresh.Donors != 0 || !fresh.FundsRaised.IsZero() {
		t.Fatalf("expected store to be unaffected by caller mutation, got %+v", fresh)
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetCenter("atlantis"); !errors.Is(err, domain.ErrCenterNotFound) {
		t.Fatalf("expected ErrCenterNotFound, got %v", err)
	}
	if _, err := store.GetDonation("nope"); !errors.Is(err, domain.ErrDonationNotFound) {
		t.Fatalf("expected ErrDonationNotFound, got %v", err)
	}
}

func TestConcurrentRecordsDoNotLoseUpdates(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Record(donation.Donation{CenterId: "vancouver_canada", Amount: decimal.NewFromInt(50)})
			if err != nil {
				t.Errorf("expected nil error, got %v", err)
			}
		}()
	}
	wg.Wait()

	c, _ := store.GetCenter("vancouver_canada")
	if !c.FundsRaised.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected funds 100, got %s", c.FundsRaised)
	}
	if c.Donors != 2 {
		t.Fatalf("expected 2 donors, got %d", c.Donors)
	}
	if n := len(store.ListDonations()); n != 2 {
		t.Fatalf("expected 2 donations, got %d", n)
	}
}

func TestConcurrentRecordsKeepTotalsConsistent(t *testing.T) {
	store := newTestStore(t)
	ids := []string{"vancouver_canada", "toronto_canada", "new_york_usa"}

	var wg sync.WaitGroup
	for i := 0; i < 90; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := decimal.RequireFromString(fmt.Sprintf("%d.25", 10+i))
			if _, _, err := store.Record(donation.Donation{CenterId: ids[i%len(ids)], Amount: amount}); err != nil {
				t.Errorf("expected nil error, got %v", err)
			}
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.ListCenters()
			store.ListDonations()
		}()
	}
	wg.Wait()

	if n := len(store.ListDonations()); n != 90 {
		t.Fatalf("expected 90 donations, got %d", n)
	}
	assertTotalsMatchLedger(t, store)
}
