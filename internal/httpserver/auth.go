package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/examstack/exam_scheduler/internal/middleware"
	"github.com/examstack/exam_scheduler/internal/service"
	"github.com/examstack/exam_scheduler/pkg/cookies"
	"github.com/examstack/exam_scheduler/pkg/logging"
)

type AuthHTTP struct {
	Sessions *service.SessionService
	Tokens   *service.RefreshTokenService
}

// Login accepts either an admin username+password or a teacher
// "{firstname} {lastname}"+phone pair in the same two fields. Both failure
// shapes come back as the same 401 body.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		if errors.Is(err, service.ErrConflict) {
			l.Warn("login_failed", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "account conflict")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	c.SetCookie(cookies.Create(cookies.AccessToken, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(cookies.Create(cookies.RefreshToken, res.RefreshToken, "/", res.RefreshExp))
	l.Info("login_successful")

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"principal":     res.Principal,
	})
}

// WhoAmI re-validates the session. When the access token has gone stale
// and the refresh token still holds, the renewed access token is set as a
// cookie and echoed in the body for the caller to adopt.
func (h *AuthHTTP) WhoAmI(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_whoami")

	res, err := h.Sessions.Resolve(ctx, cookieValue(c, cookies.AccessToken), cookieValue(c, cookies.RefreshToken))
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) || errors.Is(err, service.ErrPrincipalNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
		}
		l.Error("whoami_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	resp := echo.Map{"principal": res.Principal}
	if res.AccessToken != "" {
		c.SetCookie(cookies.Create(cookies.AccessToken, res.AccessToken, "/", res.AccessExp))
		resp["access_token"] = res.AccessToken
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	token := cookieValue(c, cookies.RefreshToken)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.Bind(&req); err == nil {
			token = req.RefreshToken
		}
	}

	if err := h.Sessions.Logout(ctx, token); err != nil {
		if errors.Is(err, service.ErrMissingToken) {
			return echo.NewHTTPError(http.StatusBadRequest, "refresh token is required")
		}
		l.Error("logout_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	c.SetCookie(cookies.Delete(cookies.AccessToken, "/"))
	c.SetCookie(cookies.Delete(cookies.RefreshToken, "/"))
	l.Info("logout_successful")

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// ListSessions lists the caller's live refresh tokens, one per device.
func (h *AuthHTTP) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()

	rows, err := h.Tokens.FindByAccount(ctx, middleware.AccountID(c))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid account")
		}
		logging.FromContext(ctx).Error("sessions_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"sessions": rows})
}

// LogoutAll revokes every session for the caller.
func (h *AuthHTTP) LogoutAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout_all")

	if err := h.Sessions.LogoutAll(ctx, middleware.AccountID(c)); err != nil {
		l.Error("logout_all_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	c.SetCookie(cookies.Delete(cookies.AccessToken, "/"))
	c.SetCookie(cookies.Delete(cookies.RefreshToken, "/"))
	l.Info("all_sessions_revoked")

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out everywhere"})
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
