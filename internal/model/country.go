package model

// Country is static reference data; grants belong to exactly one country.
type Country struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Code     string `db:"code" json:"code"`
	Currency string `db:"currency" json:"currency"`
	Flag     string `db:"flag" json:"flag"`
	IsActive bool   `db:"is_active" json:"isActive"`
}
