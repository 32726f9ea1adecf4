// internal/tests/helpers_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kmrl/metrodocs/internal/config"
	"github.com/kmrl/metrodocs/internal/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Session: config.SessionConfig{
			Secret:     "test-session-secret",
			CookieName: "session",
			TTLHours:   1,
		},
		Mail: config.MailConfig{
			SMTPPort: 587,
			UseTLS:   true,
			Timeout:  5,
		},
		Assistant: config.AssistantConfig{
			Model:       "gpt-3.5-turbo",
			Temperature: 0.3,
			MaxTokens:   300,
			Timeout:     5,
		},
		Documents: config.DocumentsConfig{
			MaxUploadBytes: 1 << 20,
			Storage:        config.StorageLocal,
			FlashSecret:    "test-flash-secret",
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
}

func newTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := database.Initialize(config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     ":memory:",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db, models...))
	t.Cleanup(func() { database.Close(db) })
	return db
}

// client replays cookies between requests the way a browser would.
type client struct {
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newClient(handler http.Handler) *client {
	return &client{handler: handler, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	return c.do(req)
}

func (c *client) postJSON(path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}

	req, _ := http.NewRequest(http.MethodPost, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}
