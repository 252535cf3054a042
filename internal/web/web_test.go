// ABOUTME: Tests for the HTTP JSON API
// ABOUTME: Covers create/rename flows, error mapping, public reads, and the status page

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/warden/internal/address"
	"github.com/2389/warden/internal/auth"
	"github.com/2389/warden/internal/capability"
	"github.com/2389/warden/internal/metrics"
	"github.com/2389/warden/internal/registry"
	"github.com/2389/warden/internal/store"
	"github.com/2389/warden/internal/vault"
)

type fixture struct {
	server   *Server
	verifier *auth.JWTVerifier
}

func setupTest(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	var root address.Address
	root[0] = 0x21
	secret := []byte("test-secret")
	minter := capability.NewMinter(secret)

	v, err := vault.Bootstrap(ctx, s, minter, vault.BootstrapParams{
		Root:                 root,
		NamespaceName:        "main",
		NamespaceDescription: "# Records\n\nOne per principal.",
		NamespaceDisplayURI:  "https://example.com/ns",
	})
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	reg, err := registry.New(ctx, s, v, minter, "main", metrics.New(promReg))
	require.NoError(t, err)

	verifier := auth.NewJWTVerifier(secret)
	srv := New(reg, s, root, verifier, Config{MetricsEnabled: true, MetricsPath: "/metrics"}, promReg)

	return &fixture{server: srv, verifier: verifier}
}

func (f *fixture) request(t *testing.T, method, path, body, principalID string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if principalID != "" {
		token, err := f.verifier.Generate(principalID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	f.server.ServeHTTP(rr, req)
	return rr
}

func TestCreateAndRead(t *testing.T) {
	f := setupTest(t)

	rr := f.request(t, http.MethodPost, "/v1/records", `{"display_name":"hello"}`, "alice")
	require.Equal(t, http.StatusCreated, rr.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Len(t, created["address"], 64)

	rr = f.request(t, http.MethodGet, "/v1/records/alice", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var rec recordResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "alice", rec.OwnerID)
	assert.Equal(t, "hello", rec.DisplayName)
	assert.Equal(t, created["address"], rec.Address)
}

func TestCreate_Unauthenticated(t *testing.T) {
	f := setupTest(t)

	rr := f.request(t, http.MethodPost, "/v1/records", `{"display_name":"hello"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreate_Conflict(t *testing.T) {
	f := setupTest(t)

	rr := f.request(t, http.MethodPost, "/v1/records", `{"display_name":"hello"}`, "alice")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.request(t, http.MethodPost, "/v1/records", `{"display_name":"world"}`, "alice")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCreate_NameTooLong(t *testing.T) {
	f := setupTest(t)

	body := `{"display_name":"` + strings.Repeat("a", 41) + `"}`
	rr := f.request(t, http.MethodPost, "/v1/records", body, "bob")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.request(t, http.MethodGet, "/v1/records/bob/exists", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"exists":false}`, rr.Body.String())
}

func TestRename(t *testing.T) {
	f := setupTest(t)

	rr := f.request(t, http.MethodPost, "/v1/records", `{"display_name":"hello"}`, "alice")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.request(t, http.MethodPost, "/v1/records/rename", `{"new_name":"newname"}`, "alice")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.request(t, http.MethodGet, "/v1/records/alice", "", "")
	var rec recordResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "newname", rec.DisplayName)
}

func TestRename_NoRecord(t *testing.T) {
	f := setupTest(t)

	rr := f.request(t, http.MethodPost, "/v1/records/rename", `{"new_name":"x"}`, "ghost")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAddresses_Public(t *testing.T) {
	f := setupTest(t)

	rr := f.request(t, http.MethodGet, "/v1/addresses/record/anyone", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got["address"], 64)

	// Determinism: a second call yields the same address.
	rr2 := f.request(t, http.MethodGet, "/v1/addresses/record/anyone", "", "")
	assert.Equal(t, rr.Body.String(), rr2.Body.String())

	rr = f.request(t, http.MethodGet, "/v1/addresses/namespace", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestStatusPage(t *testing.T) {
	f := setupTest(t)

	rr := f.request(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "main")
	// Markdown description is rendered to HTML.
	assert.Contains(t, rr.Body.String(), "<h1>Records</h1>")
}

func TestHealthz(t *testing.T) {
	f := setupTest(t)

	rr := f.request(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTest(t)

	rr := f.request(t, http.MethodPost, "/v1/records", `{"display_name":"hello"}`, "alice")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.request(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "warden_records_created_total")
}
