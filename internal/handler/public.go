package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/grant-portal/internal/model"
	"github.com/iliyamo/grant-portal/internal/queue"
	"github.com/iliyamo/grant-portal/internal/repository"
	"github.com/iliyamo/grant-portal/internal/service"
)

// PublicHandler serves the unauthenticated API: reference data, grant
// browsing, statistics, contact inquiries and referral checks.
type PublicHandler struct {
	Store     repository.Storage
	Qualifier *service.Qualifier
	Publisher service.Publisher
	Log       logrus.FieldLogger
}

// grantDetail is a grant with its country inlined.
type grantDetail struct {
	model.Grant
	Country *model.Country `json:"country,omitempty"`
}

type contactReq struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type referralReq struct {
	ReferralName string `json:"referralName" validate:"max=200"`
}

type referralResp struct {
	Exists        bool `json:"exists"`
	AutoQualified bool `json:"autoQualified"`
}

func (h *PublicHandler) ListCountries(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	countries, err := h.Store.ListActiveCountries(ctx)
	if err != nil {
		return respondError(c, h.Log, err, "list countries")
	}
	return c.JSON(http.StatusOK, countries)
}

// ListGrants returns non-draft grants, optionally filtered by ?country=
// (id or ISO code) and ?category=.
func (h *PublicHandler) ListGrants(c echo.Context) error {
	f := model.GrantFilter{
		Country:  strings.TrimSpace(c.QueryParam("country")),
		Category: model.GrantCategory(strings.ToLower(strings.TrimSpace(c.QueryParam("category")))),
	}
	if f.Category != "" && !f.Category.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": map[string]string{"category": "must be a known grant category"},
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	grants, err := h.Store.ListGrants(ctx, f)
	if err != nil {
		return respondError(c, h.Log, err, "list grants")
	}
	return c.JSON(http.StatusOK, grants)
}

func (h *PublicHandler) GetGrant(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	g, err := h.Store.GetGrant(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err, "get grant")
	}
	out := grantDetail{Grant: g}
	country, err := h.Store.GetCountry(ctx, g.CountryID)
	switch {
	case err == nil:
		out.Country = &country
	case !repository.IsNotFound(err):
		return respondError(c, h.Log, err, "get grant country")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PublicHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	stats, err := h.Store.GrantStats(ctx)
	if err != nil {
		return respondError(c, h.Log, err, "grant stats")
	}
	return c.JSON(http.StatusOK, stats)
}

// Contact stores the inquiry and announces it on the queue.  A publish
// failure is logged; the inquiry is already saved.
func (h *PublicHandler) Contact(c echo.Context) error {
	var req contactReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	msg, err := h.Store.CreateContactMessage(ctx, model.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	})
	if err != nil {
		return respondError(c, h.Log, err, "create contact message")
	}

	if h.Publisher != nil {
		ev := queue.ContactReceivedEvent{
			MessageID:  msg.ID,
			Name:       msg.Name,
			Email:      msg.Email,
			Subject:    msg.Subject,
			Message:    msg.Message,
			ReceivedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := h.Publisher.PublishContactReceived(ctx, ev); err != nil {
			h.Log.WithError(err).WithField("message_id", msg.ID).Warn("publish contact.received failed")
		}
	}
	return c.JSON(http.StatusCreated, msg)
}

// CheckReferral reports whether referralName matches a past award
// recipient.  A match means an application would be auto-qualified.
func (h *PublicHandler) CheckReferral(c echo.Context) error {
	var req referralReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	found, err := h.Qualifier.CheckReferral(ctx, req.ReferralName)
	if err != nil {
		return respondError(c, h.Log, err, "check referral")
	}
	return c.JSON(http.StatusOK, referralResp{Exists: found, AutoQualified: found})
}
