package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"

	"github.com/giovaniif/fundraising/domain/center"
)

type catalogFile struct {
	Currency string         `toml:"currency"`
	Goal     any            `toml:"goal"`
	Centers  []catalogEntry `toml:"centers"`
}

type catalogEntry struct {
	Country string `toml:"country"`
	City    string `toml:"city"`
	Name    string `toml:"name"`
	Goal    any    `toml:"goal"`
}

// Catalog is the center list plus the build options it implies.
type Catalog struct {
	Entries []center.CatalogEntry
	Options center.BuildOptions
}

// LoadCatalog returns the built-in catalog when CatalogFile is unset.
// File-level currency and goal override the environment.
func (c Config) LoadCatalog() (Catalog, error) {
	catalog := Catalog{
		Entries: center.DefaultCatalog(),
		Options: center.BuildOptions{Currency: c.CenterCurrency, Goal: c.CenterGoal},
	}
	if c.CatalogFile == "" {
		return catalog, nil
	}

	var file catalogFile
	if _, err := toml.DecodeFile(c.CatalogFile, &file); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog %s: %w", c.CatalogFile, err)
	}
	if len(file.Centers) == 0 {
		return Catalog{}, fmt.Errorf("catalog %s has no centers", c.CatalogFile)
	}
	if file.Currency != "" {
		currency := strings.ToUpper(strings.TrimSpace(file.Currency))
		if err := validation.Validate(currency, validation.Length(3, 3), is.CurrencyCode); err != nil {
			return Catalog{}, fmt.Errorf("catalog currency %q: %w", file.Currency, err)
		}
		catalog.Options.Currency = currency
	}
	if file.Goal != nil {
		goal, err := goalOf(file.Goal)
		if err != nil {
			return Catalog{}, fmt.Errorf("catalog goal: %w", err)
		}
		catalog.Options.Goal = goal
	}

	catalog.Entries = make([]center.CatalogEntry, 0, len(file.Centers))
	for i, entry := range file.Centers {
		out := center.CatalogEntry{Country: entry.Country, City: entry.City, Name: entry.Name}
		if entry.Goal != nil {
			goal, err := goalOf(entry.Goal)
			if err != nil {
				return Catalog{}, fmt.Errorf("catalog center %d goal: %w", i, err)
			}
			out.Goal = goal
		}
		catalog.Entries = append(catalog.Entries, out)
	}
	return catalog, nil
}

func goalOf(v any) (decimal.Decimal, error) {
	goal, err := decimalOf(v)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if err := positiveDecimal(goal); err != nil {
		return decimal.Decimal{}, err
	}
	return goal, nil
}

func decimalOf(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported value %v", v)
	}
}
