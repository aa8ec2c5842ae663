package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"spicegarden-storefront/internal/session"
)

type ctxKey string

const (
	sessionCtxKey ctxKey = "session"

	profileCookie = "sg_profile"
	profileMaxAge = 365 * 24 * 60 * 60
)

// profileMiddleware resolves the visitor's profile cookie, minting one for
// first-time visitors, and stores the live session on the request context.
func profileMiddleware(sessions *session.Registry, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(profileCookie)
		if err != nil || !session.ValidProfileID(id) {
			id = session.NewProfileID()
		}
		// Refresh on every request so the profile outlives active visitors.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(profileCookie, id, profileMaxAge, "/", "", secure, true)

		s := sessions.Session(id)
		ctx := context.WithValue(c.Request.Context(), sessionCtxKey, s)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	s, _ := c.Request.Context().Value(sessionCtxKey).(*session.Session)
	return s
}
