package repository

import "github.com/jmoiron/sqlx"

// Store implements Storage on PostgreSQL by composing the per-table repos.
type Store struct {
	*UserRepo
	*SessionRepo
	*CountryRepo
	*GrantRepo
	*ApplicationRepo
	*ContactRepo
	*AwardRepo
}

var _ Storage = (*Store)(nil)

// NewStore wires every repo to the same connection pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		UserRepo:        NewUserRepo(db),
		SessionRepo:     NewSessionRepo(db),
		CountryRepo:     NewCountryRepo(db),
		GrantRepo:       NewGrantRepo(db),
		ApplicationRepo: NewApplicationRepo(db),
		ContactRepo:     NewContactRepo(db),
		AwardRepo:       NewAwardRepo(db),
	}
}
