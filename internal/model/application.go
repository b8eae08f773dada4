package model

import "time"

type ApplicationStatus string

const (
	StatusPending      ApplicationStatus = "pending"
	StatusUnderReview  ApplicationStatus = "under_review"
	StatusQualified    ApplicationStatus = "qualified"
	StatusNotQualified ApplicationStatus = "not_qualified"
	StatusSelected     ApplicationStatus = "selected"
	StatusAwarded      ApplicationStatus = "awarded"
	StatusRejected     ApplicationStatus = "rejected"
)

// Application is one user's submission against one grant.  A user may apply
// to a given grant at most once.
type Application struct {
	ID            string            `db:"id" json:"id"`
	UserID        string            `db:"user_id" json:"userId"`
	GrantID       string            `db:"grant_id" json:"grantId"`
	FirstName     string            `db:"first_name" json:"firstName"`
	LastName      string            `db:"last_name" json:"lastName"`
	Email         string            `db:"email" json:"email"`
	Phone         string            `db:"phone" json:"phone"`
	Address       string            `db:"address" json:"address"`
	Reason        string            `db:"reason" json:"reason"`
	ReferralName  *string           `db:"referral_name" json:"referralName"`
	HasReferral   bool              `db:"has_referral" json:"hasReferral"`
	AutoQualified bool              `db:"auto_qualified" json:"autoQualified"`
	Status        ApplicationStatus `db:"status" json:"status"`
	SubmittedAt   time.Time         `db:"submitted_at" json:"submittedAt"`
	ReviewedAt    *time.Time        `db:"reviewed_at" json:"reviewedAt"`
	SelectedAt    *time.Time        `db:"selected_at" json:"selectedAt"`

	// GrantTitle is filled by list queries joining grants.
	GrantTitle string `db:"grant_title" json:"grantTitle,omitempty"`
}
