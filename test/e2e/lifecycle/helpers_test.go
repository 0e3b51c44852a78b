package lifecycle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/footballerweb/ligaclient/internal/app"
	"github.com/footballerweb/ligaclient/internal/config"
	"github.com/footballerweb/ligaclient/pkg/idx"
)

const signingSecret = "e2e-signing-secret"

// fakeLigaAPI is an in-process stand-in for the remote liga service. It
// tracks the single token pair it considers current and rotates it on
// refresh, the way the real API does.
type fakeLigaAPI struct {
	t *testing.T

	mu            sync.Mutex
	accessToken   string
	refreshToken  string
	dashboardHits int
	refreshHits   int
}

func newFakeLigaAPI(t *testing.T) (*fakeLigaAPI, *httptest.Server) {
	t.Helper()

	api := &fakeLigaAPI{t: t}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", api.handleLogin)
	mux.HandleFunc("/token/validate", api.handleValidate)
	mux.HandleFunc("/api/token/refresh", api.handleRefresh)
	mux.HandleFunc("/api/usuarios/dashboard", api.handleDashboard)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return api, srv
}

// issue makes the given pair the one the service accepts.
func (a *fakeLigaAPI) issue(access, refresh string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accessToken = access
	a.refreshToken = refresh
}

func (a *fakeLigaAPI) currentPair() (string, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accessToken, a.refreshToken
}

func (a *fakeLigaAPI) counts() (dashboard, refresh int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dashboardHits, a.refreshHits
}

func (a *fakeLigaAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"authUrl": "https://accounts.example.com/o/oauth2/v2/auth?client_id=liga",
	})
}

func (a *fakeLigaAPI) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	valid := body.Token != "" && body.Token == a.accessToken
	a.mu.Unlock()

	if !valid {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (a *fakeLigaAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.refreshHits++

	if body.RefreshToken == "" || body.RefreshToken != a.refreshToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	a.accessToken = mintToken(a.t, time.Now().Add(time.Hour))
	a.refreshToken = idx.New().String()

	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  a.accessToken,
		"refreshToken": a.refreshToken,
	})
}

func (a *fakeLigaAPI) handleDashboard(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.dashboardHits++
	current := a.accessToken
	a.mu.Unlock()

	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if bearer == "" || bearer != current {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, []map[string]any{
		{
			"idUsuario":      1,
			"nombreCompleto": "Ana Torres",
			"email":          "ana@example.com",
			"rolNombre":      "Administrador",
			"estado":         "activo",
			"totalLigas":     2,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// mintToken signs an HS256 token expiring at exp with a fixed identity.
func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":     "user-1",
		"email":   "ana@example.com",
		"name":    "Ana Torres",
		"picture": "https://example.com/ana.png",
		"iss":     "https://accounts.example.com",
		"exp":     exp.Unix(),
		"jti":     idx.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	require.NoError(t, err)

	return signed
}

// setupApp wires a full Application against the fake service, with its
// token database in a per-test temp directory.
func setupApp(t *testing.T, baseURL, stateFile string) *app.Application {
	t.Helper()

	cfg := &config.Config{
		APIBaseURL:    baseURL,
		StateFile:     stateFile,
		RefreshBuffer: 5 * time.Minute,
		HTTPTimeout:   5 * time.Second,
		Env:           "test",
		LogLevel:      "error",
		LogFormat:     "text",
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = application.Close() })

	return application
}

func stateFilePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tokens.db")
}
