package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	// SessionName is the cookie that carries the player id.
	SessionName = "exerbeasts_session"
	// PlayerContextKey is the echo context key holding the player id.
	PlayerContextKey = "player_id"

	sessionPlayerKey = "player_id"
)

// Player assigns every visitor a stable anonymous player id stored in the
// session cookie. It must run after the echo-contrib session middleware.
func Player() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := session.Get(SessionName, c)
			if err != nil {
				// A cookie signed with an old secret decodes to a fresh session; keep going with it.
				FromContext(c.Request().Context()).Warn("Discarding unreadable session", "error", err)
			}
			if sess == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session store unavailable")
			}

			id, _ := sess.Values[sessionPlayerKey].(string)
			if _, perr := uuid.Parse(id); perr != nil {
				id = uuid.NewString()
				sess.Values[sessionPlayerKey] = id
				sess.Options = &sessions.Options{
					Path:     "/",
					MaxAge:   86400 * 7,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				}
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to save session").SetInternal(err)
				}
			}

			c.Set(PlayerContextKey, id)
			return next(c)
		}
	}
}

// PlayerID returns the id set by Player, or "" outside of it.
func PlayerID(c echo.Context) string {
	id, _ := c.Get(PlayerContextKey).(string)
	return id
}
