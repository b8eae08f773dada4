// Package memory is an in-memory implementation of repository.Storage.  It is
// safe for concurrent use and is primarily intended for tests and local
// development without PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/grant-portal/internal/model"
	"github.com/iliyamo/grant-portal/internal/repository"
)

type session struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

// Store keeps every table in maps guarded by one RWMutex.
type Store struct {
	mu           sync.RWMutex
	users        map[string]model.User
	sessions     map[string]session
	countries    map[string]model.Country
	grants       map[string]model.Grant
	applications map[string]model.Application
	contacts     []model.ContactMessage
	awards       []model.GrantAward
}

var _ repository.Storage = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:        make(map[string]model.User),
		sessions:     make(map[string]session),
		countries:    make(map[string]model.Country),
		grants:       make(map[string]model.Grant),
		applications: make(map[string]model.Application),
	}
}

// --- UserStore --------------------------------------------------------------

func (s *Store) GetUser(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) UpsertUser(_ context.Context, in model.UpsertUser) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	u, ok := s.users[in.ID]
	if !ok {
		u = model.User{ID: in.ID, CreatedAt: now}
	}
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		u.Email = &e
	} else {
		u.Email = nil
	}
	u.FirstName, u.LastName, u.ProfileImageURL = in.FirstName, in.LastName, in.ProfileImageURL
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) StoreSession(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[tokenHash]; ok {
		return fmt.Errorf("session token hash already stored")
	}
	s.sessions[tokenHash] = session{userID: userID, expiresAt: expiresAt.UTC()}
	return nil
}

func (s *Store) RevokeSession(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenHash]
	if !ok || sess.revoked || !time.Now().UTC().Before(sess.expiresAt) {
		return "", repository.ErrSessionInvalid
	}
	sess.revoked = true
	s.sessions[tokenHash] = sess
	return sess.userID, nil
}

func (s *Store) RevokeAllSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, sess := range s.sessions {
		if sess.userID == userID {
			sess.revoked = true
			s.sessions[k] = sess
		}
	}
	return nil
}

// --- CountryStore -----------------------------------------------------------

func (s *Store) ListActiveCountries(_ context.Context) ([]model.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Country{}
	for _, c := range s.countries {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCountry(_ context.Context, id string) (model.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.countries[id]
	if !ok {
		return model.Country{}, repository.ErrCountryNotFound
	}
	return c, nil
}

func (s *Store) GetCountryByCode(_ context.Context, code string) (model.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range s.countries {
		if c.Code == code {
			return c, nil
		}
	}
	return model.Country{}, repository.ErrCountryNotFound
}

func (s *Store) CreateCountry(_ context.Context, c model.Country) (model.Country, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	for _, existing := range s.countries {
		if existing.Code == c.Code {
			return model.Country{}, fmt.Errorf("country code %s already exists", c.Code)
		}
	}
	s.countries[c.ID] = c
	return c, nil
}

func (s *Store) CountCountries(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.countries)), nil
}

// --- GrantStore -------------------------------------------------------------

func (s *Store) ListGrants(_ context.Context, f model.GrantFilter) ([]model.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	country := strings.TrimSpace(f.Country)
	out := []model.Grant{}
	for _, g := range s.grants {
		if g.Status == model.GrantDraft {
			continue
		}
		if f.Category != "" && g.Category != f.Category {
			continue
		}
		if country != "" {
			c := s.countries[g.CountryID]
			if g.CountryID != country && c.Code != strings.ToUpper(country) {
				continue
			}
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetGrant(_ context.Context, id string) (model.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[id]
	if !ok {
		return model.Grant{}, repository.ErrGrantNotFound
	}
	return g, nil
}

func (s *Store) CreateGrant(_ context.Context, g model.Grant) (model.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.countries[g.CountryID]; !ok {
		return model.Grant{}, repository.ErrCountryNotFound
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = model.GrantActive
	}
	if g.AvailableSpots == 0 {
		g.AvailableSpots = g.TotalSpots
	}
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	g.Deadline = g.Deadline.UTC()
	s.grants[g.ID] = g
	return g, nil
}

func (s *Store) CountGrants(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.grants)), nil
}

func (s *Store) CloseExpiredGrants(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, g := range s.grants {
		if g.Status == model.GrantActive && g.Deadline.Before(now) {
			g.Status = model.GrantClosed
			g.UpdatedAt = now.UTC()
			s.grants[id] = g
			n++
		}
	}
	return n, nil
}

// --- ApplicationStore -------------------------------------------------------

func (s *Store) CreateApplication(_ context.Context, a model.Application) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[a.GrantID]
	if !ok {
		return model.Application{}, repository.ErrGrantNotFound
	}
	for _, existing := range s.applications {
		if existing.UserID == a.UserID && existing.GrantID == a.GrantID {
			return model.Application{}, repository.ErrDuplicateApplication
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.StatusPending
	}
	a.SubmittedAt = time.Now().UTC()
	a.GrantTitle = ""
	s.applications[a.ID] = a
	a.GrantTitle = g.Title
	return a, nil
}

func (s *Store) GetApplication(_ context.Context, id string) (model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.applications[id]
	if !ok {
		return model.Application{}, repository.ErrApplicationNotFound
	}
	a.GrantTitle = s.grants[a.GrantID].Title
	return a, nil
}

func (s *Store) ListApplicationsByUser(_ context.Context, userID string) ([]model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Application{}
	for _, a := range s.applications {
		if a.UserID == userID {
			a.GrantTitle = s.grants[a.GrantID].Title
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (s *Store) HasApplied(_ context.Context, userID, grantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.applications {
		if a.UserID == userID && a.GrantID == grantID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateApplicationStatus(_ context.Context, id string, status model.ApplicationStatus) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return model.Application{}, repository.ErrApplicationNotFound
	}
	now := time.Now().UTC()
	a.Status = status
	if status != model.StatusPending {
		a.ReviewedAt = &now
	}
	if status == model.StatusSelected {
		a.SelectedAt = &now
	}
	s.applications[id] = a
	a.GrantTitle = s.grants[a.GrantID].Title
	return a, nil
}

// --- ContactStore -----------------------------------------------------------

func (s *Store) CreateContactMessage(_ context.Context, m model.ContactMessage) (model.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	m.CreatedAt = time.Now().UTC()
	s.contacts = append(s.contacts, m)
	return m, nil
}

// ContactMessages returns a copy of the stored inquiries.
func (s *Store) ContactMessages() []model.ContactMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ContactMessage(nil), s.contacts...)
}

// --- AwardStore -------------------------------------------------------------

func (s *Store) CreateAward(_ context.Context, a model.GrantAward) (model.GrantAward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AwardedAt.IsZero() {
		a.AwardedAt = time.Now().UTC()
	}
	a.GrantTitle = ""
	s.awards = append(s.awards, a)
	return a, nil
}

func (s *Store) ListAwardsByUser(_ context.Context, userID string) ([]model.GrantAward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.GrantAward{}
	for _, a := range s.awards {
		if a.UserID == userID {
			a.GrantTitle = s.grants[a.GrantID].Title
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AwardedAt.After(out[j].AwardedAt) })
	return out, nil
}

func (s *Store) ReferralExists(_ context.Context, name string) (bool, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.awards {
		u, ok := s.users[a.UserID]
		if !ok {
			continue
		}
		full := strings.ToLower(deref(u.FirstName) + " " + deref(u.LastName))
		if strings.Contains(full, needle) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GrantStats(_ context.Context) (model.GrantStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st model.GrantStats
	for _, a := range s.awards {
		st.TotalAwarded += a.Amount
	}
	st.TotalRecipients = int64(len(s.awards))
	for _, c := range s.countries {
		if c.IsActive {
			st.CountriesServed++
		}
	}
	var selected int64
	for _, a := range s.applications {
		if a.Status == model.StatusSelected {
			selected++
		}
	}
	st.SuccessRate = repository.SuccessRate(selected, int64(len(s.applications)))
	return st, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
