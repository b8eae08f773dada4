package repository

import (
	"context"
	"time"

	"github.com/iliyamo/grant-portal/internal/model"
)

// UserStore persists user profiles and login sessions.
type UserStore interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	UpsertUser(ctx context.Context, u model.UpsertUser) (model.User, error)

	StoreSession(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	RevokeSession(ctx context.Context, tokenHash string) (string, error)
	RevokeAllSessions(ctx context.Context, userID string) error
}

// CountryStore persists reference countries.
type CountryStore interface {
	ListActiveCountries(ctx context.Context) ([]model.Country, error)
	GetCountry(ctx context.Context, id string) (model.Country, error)
	GetCountryByCode(ctx context.Context, code string) (model.Country, error)
	CreateCountry(ctx context.Context, c model.Country) (model.Country, error)
	CountCountries(ctx context.Context) (int64, error)
}

// GrantStore persists funding opportunities.
type GrantStore interface {
	ListGrants(ctx context.Context, f model.GrantFilter) ([]model.Grant, error)
	GetGrant(ctx context.Context, id string) (model.Grant, error)
	CreateGrant(ctx context.Context, g model.Grant) (model.Grant, error)
	CountGrants(ctx context.Context) (int64, error)
	CloseExpiredGrants(ctx context.Context, now time.Time) (int64, error)
}

// ApplicationStore persists grant applications.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, a model.Application) (model.Application, error)
	GetApplication(ctx context.Context, id string) (model.Application, error)
	ListApplicationsByUser(ctx context.Context, userID string) ([]model.Application, error)
	HasApplied(ctx context.Context, userID, grantID string) (bool, error)
	UpdateApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus) (model.Application, error)
}

// ContactStore persists support inquiries.
type ContactStore interface {
	CreateContactMessage(ctx context.Context, m model.ContactMessage) (model.ContactMessage, error)
}

// AwardStore persists disbursed awards and the aggregates computed from them.
type AwardStore interface {
	CreateAward(ctx context.Context, a model.GrantAward) (model.GrantAward, error)
	ListAwardsByUser(ctx context.Context, userID string) ([]model.GrantAward, error)
	ReferralExists(ctx context.Context, name string) (bool, error)
	GrantStats(ctx context.Context) (model.GrantStats, error)
}

// Storage is the single facade handlers and services depend on.
type Storage interface {
	UserStore
	CountryStore
	GrantStore
	ApplicationStore
	ContactStore
	AwardStore
}
