package model

import "time"

// GrantCategory is one of a fixed set of funding areas.
type GrantCategory string

const (
	CategoryEducation   GrantCategory = "education"
	CategoryBusiness    GrantCategory = "business"
	CategoryHealthcare  GrantCategory = "healthcare"
	CategoryTechnology  GrantCategory = "technology"
	CategoryAgriculture GrantCategory = "agriculture"
	CategoryArts        GrantCategory = "arts"
	CategoryCommunity   GrantCategory = "community"
	CategoryResearch    GrantCategory = "research"
)

// GrantCategories lists every valid category in display order.
var GrantCategories = []GrantCategory{
	CategoryEducation, CategoryBusiness, CategoryHealthcare, CategoryTechnology,
	CategoryAgriculture, CategoryArts, CategoryCommunity, CategoryResearch,
}

// Valid reports whether c is a known category.
func (c GrantCategory) Valid() bool {
	for _, k := range GrantCategories {
		if k == c {
			return true
		}
	}
	return false
}

type GrantStatus string

const (
	GrantActive GrantStatus = "active"
	GrantClosed GrantStatus = "closed"
	GrantDraft  GrantStatus = "draft"
)

// Grant is a funding opportunity.  Either Amount or the MinAmount/MaxAmount
// range is set.  AvailableSpots is displayed as a live counter but nothing
// decrements it yet.
type Grant struct {
	ID             string        `db:"id" json:"id"`
	Title          string        `db:"title" json:"title"`
	Description    string        `db:"description" json:"description"`
	Category       GrantCategory `db:"category" json:"category"`
	CountryID      string        `db:"country_id" json:"countryId"`
	Amount         *float64      `db:"amount" json:"amount,omitempty"`
	MinAmount      *float64      `db:"min_amount" json:"minAmount,omitempty"`
	MaxAmount      *float64      `db:"max_amount" json:"maxAmount,omitempty"`
	Currency       string        `db:"currency" json:"currency"`
	TotalSpots     int           `db:"total_spots" json:"totalSpots"`
	AvailableSpots int           `db:"available_spots" json:"availableSpots"`
	Deadline       time.Time     `db:"deadline" json:"deadline"`
	Status         GrantStatus   `db:"status" json:"status"`
	Eligibility    string        `db:"eligibility" json:"eligibility"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

// GrantFilter narrows ListGrants.  Country matches either a country id or an
// ISO code; empty fields do not filter.
type GrantFilter struct {
	Country  string
	Category GrantCategory
}
