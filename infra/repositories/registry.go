package repositories

import (
	"time"

	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/domain/center"
	"github.com/shopspring/decimal"
)

// registry holds centers in catalog order. Not safe for concurrent use; Store
// owns the lock.
type registry struct {
	centers map[string]*center.Center
	order   []string
}

func newRegistry(centers []center.Center) (*registry, error) {
	r := &registry{
		centers: make(map[string]*center.Center, len(centers)),
		order:   make([]string, 0, len(centers)),
	}
	for _, c := range centers {
		if _, exists := r.centers[c.Id]; exists {
			return nil, domain.NewInternalError("center " + c.Id + " registered twice")
		}
		stored := c.Copy()
		r.centers[c.Id] = &stored
		r.order = append(r.order, c.Id)
	}
	return r, nil
}

func (r *registry) get(centerId string) (center.Center, error) {
	c, ok := r.centers[centerId]
	if !ok {
		return center.Center{}, domain.NewCenterNotFoundError(centerId)
	}
	return c.Copy(), nil
}

func (r *registry) list() []center.Center {
	centers := make([]center.Center, 0, len(r.order))
	for _, id := range r.order {
		centers = append(centers, r.centers[id].Copy())
	}
	return centers
}

func (r *registry) applyDonation(centerId string, amount decimal.Decimal, at time.Time) (center.Center, error) {
	c, ok := r.centers[centerId]
	if !ok {
		return center.Center{}, domain.NewCenterNotFoundError(centerId)
	}
	c.ApplyDonation(amount, at)
	return c.Copy(), nil
}
