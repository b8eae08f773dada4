// Package seed populates reference countries and sample grants on first boot.
package seed

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/grant-portal/internal/model"
	"github.com/iliyamo/grant-portal/internal/repository"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Store is the subset of repository.Storage the seeder writes to.
type Store interface {
	repository.CountryStore
	repository.GrantStore
}

type countryRecord struct {
	Name     string `yaml:"name"`
	Code     string `yaml:"code"`
	Currency string `yaml:"currency"`
	Flag     string `yaml:"flag"`
	Inactive bool   `yaml:"inactive"`
}

type grantRecord struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Category     string   `yaml:"category"`
	Country      string   `yaml:"country"`
	Amount       *float64 `yaml:"amount"`
	MinAmount    *float64 `yaml:"min_amount"`
	MaxAmount    *float64 `yaml:"max_amount"`
	Currency     string   `yaml:"currency"`
	TotalSpots   int      `yaml:"total_spots"`
	DeadlineDays int      `yaml:"deadline_days"`
	Status       string   `yaml:"status"`
	Eligibility  string   `yaml:"eligibility"`
}

// Result counts rows inserted and skipped by one Run.
type Result struct {
	Countries int
	Grants    int
	Failed    int
}

type Seeder struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time

	countries []countryRecord
	grants    []grantRecord
}

// New loads the embedded seed files.
func New(store Store, log logrus.FieldLogger) (*Seeder, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Seeder{store: store, log: log.WithField("component", "seed"), now: time.Now}
	if err := decode("data/countries.yaml", &s.countries); err != nil {
		return nil, err
	}
	if err := decode("data/grants.yaml", &s.grants); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(name string, out any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// Run inserts countries when the countries table is empty and grants when
// the grants table is empty.  Individual insert failures are logged and
// skipped; only the emptiness checks abort the run.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	n, err := s.store.CountCountries(ctx)
	if err != nil {
		return res, fmt.Errorf("count countries: %w", err)
	}
	if n == 0 {
		for _, rec := range s.countries {
			c := model.Country{
				Name:     rec.Name,
				Code:     strings.ToUpper(rec.Code),
				Currency: strings.ToUpper(rec.Currency),
				Flag:     rec.Flag,
				IsActive: !rec.Inactive,
			}
			if _, err := s.store.CreateCountry(ctx, c); err != nil {
				s.log.WithError(err).WithField("code", c.Code).Warn("seed country failed")
				res.Failed++
				continue
			}
			res.Countries++
		}
	}

	n, err = s.store.CountGrants(ctx)
	if err != nil {
		return res, fmt.Errorf("count grants: %w", err)
	}
	if n == 0 {
		now := s.now().UTC()
		for _, rec := range s.grants {
			g, err := s.buildGrant(ctx, rec, now)
			if err == nil {
				_, err = s.store.CreateGrant(ctx, g)
			}
			if err != nil {
				s.log.WithError(err).WithField("title", rec.Title).Warn("seed grant failed")
				res.Failed++
				continue
			}
			res.Grants++
		}
	}

	s.log.WithFields(logrus.Fields{
		"countries": res.Countries,
		"grants":    res.Grants,
		"failed":    res.Failed,
	}).Info("seed complete")
	return res, nil
}

func (s *Seeder) buildGrant(ctx context.Context, rec grantRecord, now time.Time) (model.Grant, error) {
	country, err := s.store.GetCountryByCode(ctx, rec.Country)
	if err != nil {
		return model.Grant{}, fmt.Errorf("country %q: %w", rec.Country, err)
	}
	cat := model.GrantCategory(rec.Category)
	if !cat.Valid() {
		return model.Grant{}, fmt.Errorf("unknown category %q", rec.Category)
	}
	status := model.GrantActive
	if rec.Status != "" {
		status = model.GrantStatus(rec.Status)
	}
	currency := rec.Currency
	if currency == "" {
		currency = country.Currency
	}
	return model.Grant{
		Title:          rec.Title,
		Description:    rec.Description,
		Category:       cat,
		CountryID:      country.ID,
		Amount:         rec.Amount,
		MinAmount:      rec.MinAmount,
		MaxAmount:      rec.MaxAmount,
		Currency:       currency,
		TotalSpots:     rec.TotalSpots,
		AvailableSpots: rec.TotalSpots,
		Deadline:       now.AddDate(0, 0, rec.DeadlineDays),
		Status:         status,
		Eligibility:    rec.Eligibility,
	}, nil
}
