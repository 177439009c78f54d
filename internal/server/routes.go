package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/exerbeasts/internal/websocket"
)

// RegisterRoutes mounts the framework routes. Module routes are mounted by Boot.
func (s *Server) RegisterRoutes() {
	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	s.E.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/battle")
	})

	s.E.GET("/ws/html", s.App.Bridge.Handler(websocket.ConnectionTypeHTML))
	s.E.GET("/ws/data", s.App.Bridge.Handler(websocket.ConnectionTypeData))
}
