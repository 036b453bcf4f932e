package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/examstack/exam_scheduler/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMw := middleware.NewSessionAuth(d.AuthHandler.Sessions)

	e.POST("/auth/login", d.AuthHandler.Login)
	e.GET("/auth/whoami", d.AuthHandler.WhoAmI)
	e.POST("/auth/logout", d.AuthHandler.Logout)

	private := e.Group("/auth")
	private.Use(authMw.RequireAuth)

	private.GET("/sessions", d.AuthHandler.ListSessions)
	private.POST("/logout-all", d.AuthHandler.LogoutAll)
}
