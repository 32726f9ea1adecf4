// internal/tests/auth_test.go
package tests

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/kmrl/metrodocs/internal/config"
	"github.com/kmrl/metrodocs/internal/models"
	"github.com/kmrl/metrodocs/internal/router"
)

type AuthTestSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    *config.Config
	router *gin.Engine
}

func (suite *AuthTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T(), &models.User{})
	suite.cfg = testConfig()
	suite.router = router.InitializeAuth(suite.db, suite.cfg)
}

func (suite *AuthTestSuite) signup(c *client, username, email string) {
	w := c.postJSON("/api/signup", map[string]interface{}{
		"username":  username,
		"password":  "TestPass123!",
		"full_name": "Test " + username,
		"email":     email,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
}

func (suite *AuthTestSuite) TestSignupLoginLogoutFlow() {
	c := newClient(suite.router)

	w := c.postJSON("/api/signup", map[string]interface{}{
		"username":  "testuser",
		"password":  "TestPass123!",
		"full_name": "Test User",
		"email":     "test@example.com",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	response := decode(suite.T(), w)
	assert.Equal(suite.T(), true, response["success"])
	assert.Equal(suite.T(), "Account created successfully. Please sign in.", response["message"])
	assert.Equal(suite.T(), "testuser", response["username"])
	assert.Equal(suite.T(), "Test User", response["full_name"])
	assert.Empty(suite.T(), c.cookies, "signup must not sign the user in")

	w = c.postJSON("/api/login", map[string]interface{}{
		"username": "test@example.com",
		"password": "TestPass123!",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	response = decode(suite.T(), w)
	assert.Equal(suite.T(), true, response["authenticated"])
	assert.Equal(suite.T(), "testuser", response["username"])
	assert.Equal(suite.T(), "Test User", response["display_name"])
	assert.Equal(suite.T(), "Viewer", response["role"])
	assert.Equal(suite.T(), "test@example.com", response["email"])

	cookie := c.cookies["session"]
	require.NotNil(suite.T(), cookie)
	assert.True(suite.T(), cookie.HttpOnly)

	w = c.get("/api/session")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), true, decode(suite.T(), w)["authenticated"])

	w = c.postJSON("/api/logout", "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), true, decode(suite.T(), w)["success"])
	assert.Empty(suite.T(), c.cookies)

	w = c.get("/api/session")
	assert.JSONEq(suite.T(), `{"authenticated": false}`, w.Body.String())
}

func (suite *AuthTestSuite) TestSignupErrors() {
	c := newClient(suite.router)
	suite.signup(c, "alice", "alice@example.com")

	w := c.postJSON("/api/signup", map[string]interface{}{"username": "alice", "password": "x", "full_name": "A"})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "Username already exists.", decode(suite.T(), w)["error"])

	w = c.postJSON("/api/signup", map[string]interface{}{"username": "bob", "password": "x", "full_name": "B", "email": "ALICE@example.com"})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "Email already in use.", decode(suite.T(), w)["error"])

	w = c.postJSON("/api/signup", map[string]interface{}{"username": "bob", "full_name": "B"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Username, full name and password are required.", decode(suite.T(), w)["error"])

	w = c.postJSON("/api/signup", "{not json")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Username, full name and password are required.", decode(suite.T(), w)["error"])
}

func (suite *AuthTestSuite) TestLoginErrors() {
	c := newClient(suite.router)
	suite.signup(c, "alice", "")

	w := c.postJSON("/api/login", map[string]interface{}{"username": "alice", "password": "wrong"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(suite.T(), "Invalid username or password.", decode(suite.T(), w)["error"])

	w = c.postJSON("/api/login", map[string]interface{}{"username": "ghost", "password": "TestPass123!"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(suite.T(), "Invalid username or password.", decode(suite.T(), w)["error"])

	w = c.postJSON("/api/login", map[string]interface{}{"username": "alice"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Both username and password are required.", decode(suite.T(), w)["error"])

	assert.Empty(suite.T(), c.cookies)
}

func (suite *AuthTestSuite) TestStaleSessionIsCleared() {
	c := newClient(suite.router)
	suite.signup(c, "alice", "")

	w := c.postJSON("/api/login", map[string]interface{}{"username": "alice", "password": "TestPass123!"})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NotNil(suite.T(), c.cookies["session"])

	require.NoError(suite.T(), suite.db.Where("username = ?", "alice").Delete(&models.User{}).Error)

	w = c.get("/api/session")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"authenticated": false}`, w.Body.String())
	assert.Empty(suite.T(), c.cookies)
}

func (suite *AuthTestSuite) TestForgedSessionCookieIgnored() {
	c := newClient(suite.router)
	c.cookies["session"] = &http.Cookie{Name: "session", Value: "not-a-token"}

	w := c.get("/api/session")
	assert.JSONEq(suite.T(), `{"authenticated": false}`, w.Body.String())
}

func (suite *AuthTestSuite) TestCORSPreflight() {
	req, _ := http.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusNoContent, w.Code)
	assert.Equal(suite.T(), "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(suite.T(), "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func (suite *AuthTestSuite) TestSendEmailErrors() {
	c := newClient(suite.router)

	w := c.postJSON("/api/send-email", map[string]interface{}{"to": "bob@example.com"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "The 'to' email and 'message' fields are required.", decode(suite.T(), w)["error"])

	w = c.postJSON("/api/send-email", map[string]interface{}{"to": "bob@example.com", "message": "hi"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Missing MAIL_FROM_ADDRESS environment variable.", decode(suite.T(), w)["error"])

	w = c.postJSON("/api/send-email", map[string]interface{}{"to": "bob@example.com", "message": "hi", "from_address": "me@example.com"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), decode(suite.T(), w)["error"], "SMTP configuration is incomplete.")
}

func (suite *AuthTestSuite) TestChat() {
	var gotKey string
	completion := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":" Use the upload page. "}}]}`))
	}))
	defer completion.Close()

	suite.cfg.Assistant.APIURL = completion.URL
	r := router.InitializeAuth(suite.db, suite.cfg)
	c := newClient(r)

	w := c.postJSON("/api/chat", map[string]interface{}{"message": "   "})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Please include a message for the assistant.", decode(suite.T(), w)["error"])

	w = c.postJSON("/api/chat", map[string]interface{}{"message": "How do I upload?"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "OpenAI API key is not configured. Set OPENAI_API_KEY.", decode(suite.T(), w)["error"])

	req, _ := http.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message": "How do I upload?"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-OpenAI-Key", "sk-test")
	w = c.do(req)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Use the upload page.", decode(suite.T(), w)["reply"])
	assert.Equal(suite.T(), "Bearer sk-test", gotKey)
}

func (suite *AuthTestSuite) TestChatUpstreamDown() {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	suite.cfg.Assistant.APIURL = down.URL
	suite.cfg.Assistant.APIKey = "sk-env"
	c := newClient(router.InitializeAuth(suite.db, suite.cfg))

	w := c.postJSON("/api/chat", map[string]interface{}{"message": "hello"})
	assert.Equal(suite.T(), http.StatusBadGateway, w.Code)
	assert.Contains(suite.T(), decode(suite.T(), w)["error"], "Unable to reach OpenAI: ")
}

func (suite *AuthTestSuite) TestHealthAndMetrics() {
	c := newClient(suite.router)

	w := c.get("/health")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "healthy", decode(suite.T(), w)["status"])
	assert.NotEmpty(suite.T(), w.Header().Get("X-Request-ID"))

	c.get("/api/session")
	w = c.get("/metrics")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "metrodocs_http_requests_total")
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
