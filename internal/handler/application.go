package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/grant-portal/internal/model"
	"github.com/iliyamo/grant-portal/internal/repository"
	"github.com/iliyamo/grant-portal/internal/service"
)

// ApplicationHandler serves the authenticated user's applications and
// awards.  Every route requires middleware.SessionAuth.
type ApplicationHandler struct {
	Store     repository.Storage
	Qualifier *service.Qualifier
	Log       logrus.FieldLogger
}

type applicationReq struct {
	GrantID      string `json:"grantId" validate:"required"`
	FirstName    string `json:"firstName" validate:"required,max=100"`
	LastName     string `json:"lastName" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email,max=320"`
	Phone        string `json:"phone" validate:"required,max=40"`
	Address      string `json:"address" validate:"required,max=500"`
	Reason       string `json:"reason" validate:"required,max=5000"`
	ReferralName string `json:"referralName" validate:"max=200"`
}

type submitResp struct {
	Application model.Application `json:"application"`
	Message     string            `json:"message"`
}

func (h *ApplicationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	apps, err := h.Store.ListApplicationsByUser(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err, "list applications")
	}
	return c.JSON(http.StatusOK, apps)
}

// Submit validates the payload and runs the qualification flow.
func (h *ApplicationHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req applicationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sub, err := h.Qualifier.Submit(ctx, uid, service.ApplicationInput{
		GrantID:      req.GrantID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Reason:       req.Reason,
		ReferralName: req.ReferralName,
	})
	if err != nil {
		return respondError(c, h.Log, err, "submit application")
	}
	return c.JSON(http.StatusCreated, submitResp{Application: sub.Application, Message: sub.Message})
}

// Get returns one application; other users' applications are 403.
func (h *ApplicationHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	app, err := h.Store.GetApplication(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err, "get application")
	}
	if app.UserID != uid {
		return respondError(c, h.Log, repository.ErrForbidden, "get application")
	}
	return c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) ListAwards(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	awards, err := h.Store.ListAwardsByUser(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err, "list awards")
	}
	return c.JSON(http.StatusOK, awards)
}
