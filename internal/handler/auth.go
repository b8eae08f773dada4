package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/grant-portal/internal/model"
	"github.com/iliyamo/grant-portal/internal/repository"
	"github.com/iliyamo/grant-portal/internal/utils"
)

// AuthHandler exchanges identity-provider ID tokens for local sessions and
// manages their lifecycle.
type AuthHandler struct {
	Users          repository.UserStore
	Verifier       utils.IDTokenVerifier
	SigningKey     []byte
	AccessTTLMin   int
	RefreshTTLDays int
	Log            logrus.FieldLogger
}

type callbackReq struct {
	IDToken string `json:"idToken" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

// Callback verifies the provider's ID token, upserts the user profile and
// opens a session.
func (h *AuthHandler) Callback(c echo.Context) error {
	var req callbackReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	claims, err := h.Verifier.Verify(req.IDToken)
	if err != nil {
		h.Log.WithError(err).Info("id token rejected")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid id token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.UpsertUser(ctx, claims.Upsert())
	if err != nil {
		return respondError(c, h.Log, err, "upsert user")
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondError(c, h.Log, err, "issue session")
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is returned.  Each refresh token can be redeemed once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	userID, err := h.Users.RevokeSession(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return respondError(c, h.Log, err, "revoke session")
	}
	u, err := h.Users.GetUser(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return respondError(c, h.Log, err, "load user")
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondError(c, h.Log, err, "issue session")
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if raw != "" {
		if _, err := h.Users.RevokeSession(ctx, utils.HashRefreshRaw(raw)); err != nil {
			if errors.Is(err, repository.ErrSessionInvalid) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
			}
			return respondError(c, h.Log, err, "revoke session")
		}
		return c.NoContent(http.StatusNoContent)
	}

	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refreshToken"})
	}
	if err := h.Users.RevokeAllSessions(ctx, uid); err != nil {
		return respondError(c, h.Log, err, "revoke all sessions")
	}
	return c.NoContent(http.StatusNoContent)
}

// CurrentUser returns the profile of the session's user.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetUser(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err, "get user")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.SigningKey, u.ID, h.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Users.StoreSession(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}
