// internal/utils/session.go
package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kmrl/metrodocs/internal/config"
)

// SessionManager binds session tokens to an HttpOnly cookie.
type SessionManager struct {
	tokens     *TokenIssuer
	cookieName string
	maxAge     int
	secure     bool
}

func NewSessionManager(cfg config.SessionConfig) *SessionManager {
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	return &SessionManager{
		tokens:     NewTokenIssuer(cfg.Secret, ttl),
		cookieName: cfg.CookieName,
		maxAge:     int(ttl / time.Second),
		secure:     cfg.Secure,
	}
}

// For returns the session of the request behind c.
func (m *SessionManager) For(c *gin.Context) *CookieSession {
	return &CookieSession{manager: m, c: c}
}

// CookieSession is the per-request view of a session cookie. Writes made during
// the request are visible to later reads of the same request.
type CookieSession struct {
	manager  *SessionManager
	c        *gin.Context
	username string
	resolved bool
}

func (s *CookieSession) Username() (string, bool) {
	if !s.resolved {
		s.resolved = true
		if raw, err := s.c.Cookie(s.manager.cookieName); err == nil && raw != "" {
			if username, err := s.manager.tokens.Parse(raw); err == nil {
				s.username = username
			} else {
				logrus.WithError(err).Debug("Ignoring invalid session cookie")
			}
		}
	}
	return s.username, s.username != ""
}

func (s *CookieSession) Establish(username string) error {
	token, err := s.manager.tokens.Issue(username)
	if err != nil {
		return err
	}
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.manager.cookieName, token, s.manager.maxAge, "/", "", s.manager.secure, true)
	s.username, s.resolved = username, true
	return nil
}

func (s *CookieSession) Clear() {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.manager.cookieName, "", -1, "/", "", s.manager.secure, true)
	s.username, s.resolved = "", true
}
