package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/examstack/exam_scheduler/internal/models"
	"github.com/examstack/exam_scheduler/internal/service"
	"github.com/examstack/exam_scheduler/pkg/cookies"
)

const (
	ctxAccountID = "account_id"
	ctxRole      = "role"
	ctxUsername  = "username"
)

// SessionAuth guards routes by resolving the cookie tokens through the
// session service. A stale access token is renewed transparently when the
// refresh token still holds, and the new cookie is set on the way through.
type SessionAuth struct {
	Sessions *service.SessionService
}

func NewSessionAuth(sessions *service.SessionService) *SessionAuth {
	return &SessionAuth{Sessions: sessions}
}

func (m *SessionAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, "")
}

func (m *SessionAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, models.RoleAdmin)
}

func (m *SessionAuth) require(next echo.HandlerFunc, role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		access := cookieValue(c, cookies.AccessToken)
		refresh := cookieValue(c, cookies.RefreshToken)

		res, err := m.Sessions.Resolve(c.Request().Context(), access, refresh)
		if err != nil {
			c.SetCookie(cookies.Delete(cookies.AccessToken, "/"))
			c.SetCookie(cookies.Delete(cookies.RefreshToken, "/"))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
		}

		if role != "" && res.Principal.Role != role {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}

		if res.AccessToken != "" {
			c.SetCookie(cookies.Create(cookies.AccessToken, res.AccessToken, "/", res.AccessExp))
		}

		c.Set(ctxAccountID, res.Principal.ID)
		c.Set(ctxRole, res.Principal.Role)
		c.Set(ctxUsername, res.Principal.Username)

		return next(c)
	}
}

// AccountID returns the authenticated account id set by RequireAuth, zero
// when the route was not guarded.
func AccountID(c echo.Context) uint {
	if v, ok := c.Get(ctxAccountID).(uint); ok {
		return v
	}
	return 0
}

func Role(c echo.Context) string {
	if v, ok := c.Get(ctxRole).(string); ok {
		return v
	}
	return ""
}

func Username(c echo.Context) string {
	if v, ok := c.Get(ctxUsername).(string); ok {
		return v
	}
	return ""
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
