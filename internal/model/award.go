package model

import "time"

// GrantAward records a disbursed amount.  Awards are append-only.
type GrantAward struct {
	ID            string    `db:"id" json:"id"`
	GrantID       string    `db:"grant_id" json:"grantId"`
	ApplicationID string    `db:"application_id" json:"applicationId"`
	UserID        string    `db:"user_id" json:"userId"`
	Amount        float64   `db:"amount" json:"amount"`
	Currency      string    `db:"currency" json:"currency"`
	AwardedAt     time.Time `db:"awarded_at" json:"awardedAt"`

	GrantTitle string `db:"grant_title" json:"grantTitle,omitempty"`
}

// GrantStats is the public statistics rollup.
type GrantStats struct {
	TotalAwarded    float64 `json:"totalAwarded"`
	TotalRecipients int64   `json:"totalRecipients"`
	CountriesServed int64   `json:"countriesServed"`
	SuccessRate     int     `json:"successRate"`
}
