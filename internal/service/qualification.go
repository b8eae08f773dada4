// Package service holds the business flows that sit between handlers and
// storage: application qualification and domain event publishing.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"github.com/iliyamo/grant-portal/internal/metrics"
	"github.com/iliyamo/grant-portal/internal/model"
	"github.com/iliyamo/grant-portal/internal/repository"
)

// QualifyThreshold is the cut-off for the random draw: a draw strictly above
// it qualifies, giving a 70% acceptance rate.
const QualifyThreshold = 0.3

const (
	MsgReferralQualified = "Your referral was verified and your application has been automatically qualified."
	MsgQualified         = "Congratulations! Your application has been qualified for review."
	MsgNotQualified      = "Thank you for applying. Unfortunately your application did not qualify at this time."
)

// ErrGrantNotOpen is returned when applying to a closed or draft grant.
var ErrGrantNotOpen = errors.New("grant is not accepting applications")

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// NewRandomSource returns a goroutine-safe source seeded from the clock.
func NewRandomSource() RandomSource {
	return NewSeededSource(uint64(time.Now().UnixNano()))
}

// NewSeededSource returns a reproducible goroutine-safe source.
func NewSeededSource(seed uint64) RandomSource {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// ApplicationInput is the validated submission payload.
type ApplicationInput struct {
	GrantID      string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Address      string
	Reason       string
	ReferralName string
}

// Submission is the outcome returned to the applicant.
type Submission struct {
	Application model.Application
	Message     string
}

// Qualifier runs the submission flow.
type Qualifier struct {
	store repository.Storage
	rnd   RandomSource
	log   logrus.FieldLogger
}

func NewQualifier(store repository.Storage, rnd RandomSource, log logrus.FieldLogger) *Qualifier {
	if store == nil {
		panic("nil storage passed to NewQualifier")
	}
	if rnd == nil {
		rnd = NewRandomSource()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Qualifier{store: store, rnd: rnd, log: log}
}

// CheckReferral reports whether name matches a past award recipient.
func (q *Qualifier) CheckReferral(ctx context.Context, name string) (bool, error) {
	found, err := q.store.ReferralExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("referral lookup: %w", err)
	}
	metrics.RecordReferralCheck(found)
	return found, nil
}

// Submit validates eligibility, decides qualification and persists the
// application.  A matching referral always qualifies; otherwise one random
// draw decides.
func (q *Qualifier) Submit(ctx context.Context, userID string, in ApplicationInput) (Submission, error) {
	grant, err := q.store.GetGrant(ctx, in.GrantID)
	if err != nil {
		return Submission{}, err
	}
	applied, err := q.store.HasApplied(ctx, userID, grant.ID)
	if err != nil {
		return Submission{}, fmt.Errorf("duplicate check: %w", err)
	}
	if applied {
		return Submission{}, repository.ErrDuplicateApplication
	}
	if grant.Status != model.GrantActive {
		return Submission{}, ErrGrantNotOpen
	}

	app := model.Application{
		UserID:    userID,
		GrantID:   grant.ID,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		Reason:    strings.TrimSpace(in.Reason),
	}

	message := ""
	if referral := strings.TrimSpace(in.ReferralName); referral != "" {
		app.ReferralName = &referral
		found, err := q.CheckReferral(ctx, referral)
		if err != nil {
			return Submission{}, err
		}
		if found {
			app.HasReferral = true
			app.AutoQualified = true
			message = MsgReferralQualified
		}
	}
	if !app.HasReferral {
		app.AutoQualified = q.rnd.Float64() > QualifyThreshold
		if app.AutoQualified {
			message = MsgQualified
		} else {
			message = MsgNotQualified
		}
	}
	app.Status = model.StatusNotQualified
	if app.AutoQualified {
		app.Status = model.StatusQualified
	}

	saved, err := q.store.CreateApplication(ctx, app)
	if err != nil {
		return Submission{}, err
	}
	saved.GrantTitle = grant.Title
	metrics.RecordApplication(string(saved.Status), saved.HasReferral)
	q.log.WithFields(logrus.Fields{
		"application_id": saved.ID,
		"grant_id":       saved.GrantID,
		"user_id":        userID,
		"status":         saved.Status,
		"has_referral":   saved.HasReferral,
	}).Info("application submitted")
	return Submission{Application: saved, Message: message}, nil
}
