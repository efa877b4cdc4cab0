package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/apartment/internal/api"
	"github.com/charlesng35/apartment/internal/app"
	iauth "github.com/charlesng35/apartment/internal/auth"
	sharedtestutil "github.com/charlesng35/apartment/internal/database/testutil"
	"github.com/charlesng35/apartment/internal/flash"
	"github.com/charlesng35/apartment/internal/middleware"
	"github.com/charlesng35/apartment/internal/models"
	"github.com/charlesng35/apartment/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T           *testing.T
	DB          *gorm.DB
	Router      *gin.Engine
	JWT         *iauth.JWTService
	Config      *app.Config
	csrfToken   string
	csrfCookie  *http.Cookie
	flashCookie *http.Cookie
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	jwtSecret := "test-suite-super-secret-key-32-bytes!!"
	cfg := &app.Config{
		Server: app.ServerConfig{
			CSRF: app.CSRFConfig{Enabled: true},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: jwtSecret,
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
		},
		Notifications: app.NotificationConfig{
			PageSize: 10,
			Timezone: "UTC",
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	router, err := api.NewRouter(db, jwtSvc, cfg, nil)
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Config: cfg,
	}
}

// CreateUser inserts an active user holding role; an empty role leaves the user unassigned.
func (e *Env) CreateUser(role, fullName string) *models.User {
	e.T.Helper()

	username := "user-" + uuid.NewString()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: fullName,
		IsActive: true,
	}
	if role != "" {
		roleID := role
		user.RoleID = &roleID
	}

	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// Token issues an access token for user.
func (e *Env) Token(user *models.User) string {
	e.T.Helper()

	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:   user.ID,
		Username: user.Username,
	})
	require.NoError(e.T, err)
	return token
}

// Notify stores a notification from sender to receiver; a nil receiver stores a broadcast.
func (e *Env) Notify(sender, receiver *models.User, title string) *models.Notification {
	e.T.Helper()

	notification := &models.Notification{
		SenderID: sender.ID,
		Title:    title,
		Message:  title + " details",
	}
	if receiver != nil {
		id := receiver.ID
		notification.ReceiverID = &id
	}
	require.NoError(e.T, e.DB.Create(notification).Error)
	return notification
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.request(method, path, body, token, false)
}

// CookieRequest authenticates through the session cookie, which makes unsafe
// methods subject to CSRF validation.
func (e *Env) CookieRequest(method, path string, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	req, err := http.NewRequest(method, path, nil)
	require.NoError(e.T, err)
	req.AddCookie(&http.Cookie{Name: e.Config.Auth.CookieName(), Value: token})
	return e.serve(req, false)
}

func (e *Env) request(method, path string, body any, token string, skipCSRF bool) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return e.serve(req, skipCSRF)
}

func (e *Env) serve(req *http.Request, skipCSRF bool) *httptest.ResponseRecorder {
	e.T.Helper()

	if !skipCSRF && requiresCSRFAttestation(req.Method) {
		e.ensureCSRFToken()
		if e.csrfCookie != nil {
			req.AddCookie(e.csrfCookie)
		}
		if e.csrfToken != "" {
			req.Header.Set(middleware.CSRFHeaderName, e.csrfToken)
		}
	}
	if e.flashCookie != nil {
		req.AddCookie(e.flashCookie)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	e.captureCookies(resp)
	return w
}

func (e *Env) ensureCSRFToken() {
	if e.csrfToken != "" && e.csrfCookie != nil {
		return
	}
	resp := e.request(http.MethodGet, "/health", nil, "", true)
	require.Equal(e.T, http.StatusOK, resp.Code, resp.Body.String())
}

func (e *Env) captureCookies(resp *http.Response) {
	if resp == nil {
		return
	}

	if token := resp.Header.Get(middleware.CSRFHeaderName); token != "" {
		e.csrfToken = token
	}
	for _, c := range resp.Cookies() {
		switch c.Name {
		case middleware.CSRFCookieName:
			e.csrfCookie = &http.Cookie{Name: c.Name, Value: c.Value}
		case flash.CookieName:
			// Later Set-Cookie headers win, as in a browser
			if c.MaxAge < 0 || c.Value == "" {
				e.flashCookie = nil
			} else {
				e.flashCookie = &http.Cookie{Name: c.Name, Value: c.Value}
			}
		}
	}
}

func requiresCSRFAttestation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
