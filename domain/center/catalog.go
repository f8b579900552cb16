package center

import (
	"fmt"
	"strings"
	"time"

	"github.com/giovaniif/fundraising/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency = "USD"
	DefaultGoal     = 200000
)

type CatalogEntry struct {
	Country string
	City    string
	// Name and Goal are optional overrides.
	Name string
	Goal decimal.Decimal
}

// DefaultCatalog is the set of centers the service starts with.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{Country: "Canada", City: "Vancouver"},
		{Country: "Canada", City: "Toronto"},
		{Country: "Canada", City: "Montreal"},
		{Country: "USA", City: "San Francisco"},
		{Country: "USA", City: "Los Angeles"},
		{Country: "USA", City: "New York"},
	}
}

// ID derives the center slug: "San Francisco", "USA" -> "san_francisco_usa".
func ID(city, country string) string {
	return strings.ReplaceAll(strings.ToLower(city), " ", "_") + "_" + strings.ToLower(country)
}

func DefaultName(city string) string {
	return city + " Suicide Prevention Center"
}

type BuildOptions struct {
	Currency  string
	Goal      decimal.Decimal
	CreatedAt time.Time
}

// Build creates one zeroed Center per catalog entry, in catalog order.
func Build(catalog []CatalogEntry, opts BuildOptions) ([]Center, error) {
	currency := opts.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	goal := opts.Goal
	if goal.IsNegative() {
		return nil, domain.NewInvalidInputError("goal must be positive")
	}
	if goal.IsZero() {
		goal = decimal.NewFromInt(DefaultGoal)
	}

	seen := make(map[string]struct{}, len(catalog))
	centers := make([]Center, 0, len(catalog))
	for _, entry := range catalog {
		if strings.TrimSpace(entry.City) == "" || strings.TrimSpace(entry.Country) == "" {
			return nil, domain.NewInvalidInputError("catalog entry needs both city and country")
		}
		id := ID(entry.City, entry.Country)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateCenterID, id)
		}
		seen[id] = struct{}{}

		name := entry.Name
		if name == "" {
			name = DefaultName(entry.City)
		}
		if entry.Goal.IsNegative() {
			return nil, domain.NewInvalidInputError("goal for " + id + " must be positive")
		}
		centerGoal := goal
		if entry.Goal.IsPositive() {
			centerGoal = entry.Goal
		}
		centers = append(centers, Center{
			Id:          id,
			Name:        name,
			Location:    Location{City: entry.City, Country: entry.Country},
			FundsRaised: decimal.Zero,
			Goal:        centerGoal,
			CreatedAt:   opts.CreatedAt.UTC(),
			Currency:    currency,
		})
	}
	return centers, nil
}
