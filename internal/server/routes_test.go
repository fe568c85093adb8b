package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(DefaultConfig())
	require.NoError(t, err)
	return srv
}

func TestHealthHandler(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t)
	_, err := srv.roomManager.GetOrCreate("game")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.RegisterRoutes().ServeHTTP(rec, req)

	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal("ok", body["status"])
	assert.Equal(float64(1), body["rooms"])
}

func TestVersionHandler(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	srv.RegisterRoutes().ServeHTTP(rec, req)

	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("avalon-server v"+Version+"\n", rec.Body.String())
}

func TestQRHandler_ReturnsPNG(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms/game/qr", nil)
	srv.RegisterRoutes().ServeHTTP(rec, req)

	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("image/png", rec.Header().Get("Content-Type"))
	assert.Equal("max-age=86400", rec.Header().Get("Cache-Control"))

	// PNG magic bytes.
	require.Greater(t, rec.Body.Len(), 8)
	assert.Equal([]byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])
}

func TestQRHandler_RejectsBlankRoom(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms/%20%20/qr", nil)
	srv.RegisterRoutes().ServeHTTP(rec, req)

	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	srv.RegisterRoutes().ServeHTTP(rec, req)

	assert.Equal(http.StatusNoContent, rec.Code)
	assert.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestConfigValidate(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.NoError(cfg.Validate())

	cfg = DefaultConfig()
	cfg.Port = 0
	assert.ErrorContains(cfg.Validate(), "invalid port")

	cfg = DefaultConfig()
	cfg.MinPlayers = 0
	assert.ErrorContains(cfg.Validate(), "invalid min-players")

	cfg = DefaultConfig()
	cfg.RateLimit = 0
	assert.ErrorContains(cfg.Validate(), "invalid rate-limit")

	cfg = DefaultConfig()
	cfg.RateWindow = 0
	assert.ErrorContains(cfg.Validate(), "invalid rate-window")
}
