// Package repository contains data access logic separated from HTTP handlers.
// This file defines the country repository.  Countries are reference data
// seeded once at startup and listed by the public API.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/grant-portal/internal/model"
)

const countryColumns = "id, name, code, currency, flag, is_active"

// CountryRepo encapsulates all database queries related to countries.
type CountryRepo struct {
	db *sqlx.DB
}

func NewCountryRepo(db *sqlx.DB) *CountryRepo {
	return &CountryRepo{db: db}
}

// CreateCountry inserts a country, assigning an id when none is set.  Codes
// and currencies are stored upper-case.
func (r *CountryRepo) CreateCountry(ctx context.Context, c model.Country) (model.Country, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	const q = `INSERT INTO countries (id, name, code, currency, flag, is_active)
	           VALUES (:id, :name, :code, :currency, :flag, :is_active)`
	if _, err := r.db.NamedExecContext(ctx, q, c); err != nil {
		return model.Country{}, err
	}
	return c, nil
}

// GetCountry fetches a country by id.
func (r *CountryRepo) GetCountry(ctx context.Context, id string) (model.Country, error) {
	var c model.Country
	err := r.db.GetContext(ctx, &c, "SELECT "+countryColumns+" FROM countries WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Country{}, ErrCountryNotFound
	}
	return c, err
}

// GetCountryByCode fetches a country by its ISO code, case-insensitively.
func (r *CountryRepo) GetCountryByCode(ctx context.Context, code string) (model.Country, error) {
	var c model.Country
	err := r.db.GetContext(ctx, &c, "SELECT "+countryColumns+" FROM countries WHERE code = $1",
		strings.ToUpper(strings.TrimSpace(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Country{}, ErrCountryNotFound
	}
	return c, err
}

// ListActiveCountries returns active countries ordered by name.
func (r *CountryRepo) ListActiveCountries(ctx context.Context) ([]model.Country, error) {
	out := []model.Country{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+countryColumns+" FROM countries WHERE is_active = TRUE ORDER BY name")
	return out, err
}

// CountCountries returns the number of rows regardless of the active flag.
func (r *CountryRepo) CountCountries(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM countries")
	return n, err
}
