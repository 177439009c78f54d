package server

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/exerbeasts/internal/app"
	"github.com/nfrund/exerbeasts/internal/handlers"
	"github.com/nfrund/exerbeasts/internal/middleware"
	"github.com/nfrund/exerbeasts/internal/registry"
)

// Server holds the HTTP server and the application it serves.
type Server struct {
	E        *echo.Echo
	App      *app.App
	Registry *registry.Registry
}

// New creates the echo instance with the global middleware stack. Routes are
// mounted by Boot.
func New(a *app.App) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	setupErrorHandling(e)

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())

	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))
	e.Use(middleware.Player())
	e.Use(middleware.Logger)

	return &Server{
		E:        e,
		App:      a,
		Registry: registry.New(),
	}
}
