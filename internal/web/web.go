// ABOUTME: HTTP JSON API for the record registry plus a namespace status page
// ABOUTME: Create/rename act as the authenticated caller; address reads are public

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"

	"github.com/2389/warden/internal/address"
	"github.com/2389/warden/internal/auth"
	"github.com/2389/warden/internal/registry"
	"github.com/2389/warden/internal/store"
)

// Config holds the HTTP server's feature toggles.
type Config struct {
	MetricsEnabled bool
	MetricsPath    string
}

// Server exposes the registry over HTTP.
type Server struct {
	registry *registry.Registry
	store    store.Store
	root     address.Address
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New builds the HTTP server. Mutating endpoints require a bearer token; the
// address and existence reads are public, matching the registry's pure reads.
func New(reg *registry.Registry, s store.Store, root address.Address, verifier auth.TokenVerifier, cfg Config, gatherer prometheus.Gatherer) *Server {
	srv := &Server{
		registry: reg,
		store:    s,
		root:     root,
		logger:   slog.Default().With("component", "web"),
		mux:      http.NewServeMux(),
	}

	requireAuth := auth.HTTPMiddleware(verifier)

	srv.mux.HandleFunc("GET /healthz", srv.handleHealth)
	srv.mux.HandleFunc("GET /{$}", srv.handleStatusPage)

	srv.mux.Handle("POST /v1/records", requireAuth(http.HandlerFunc(srv.handleCreate)))
	srv.mux.Handle("POST /v1/records/rename", requireAuth(http.HandlerFunc(srv.handleRename)))

	srv.mux.HandleFunc("GET /v1/records/{owner}", srv.handleGetRecord)
	srv.mux.HandleFunc("GET /v1/records/{owner}/exists", srv.handleExists)
	srv.mux.HandleFunc("GET /v1/addresses/record/{owner}", srv.handleRecordAddress)
	srv.mux.HandleFunc("GET /v1/addresses/namespace", srv.handleNamespaceAddress)

	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		srv.mux.Handle("GET "+path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return srv
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) principal(r *http.Request) registry.Principal {
	pc := auth.MustFromContext(r.Context())
	return registry.Principal{
		ID:      pc.PrincipalID,
		Address: address.Principal(s.root, pc.PrincipalID),
	}
}

type createRequest struct {
	DisplayName string `json:"display_name"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	owner := s.principal(r)
	if err := s.registry.Create(r.Context(), owner, req.DisplayName); err != nil {
		s.writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"address": s.registry.RecordAddress(owner.ID).String(),
	})
}

type renameRequest struct {
	NewName string `json:"new_name"`
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.registry.Rename(r.Context(), s.principal(r), req.NewName); err != nil {
		s.writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

type recordResponse struct {
	Address     string `json:"address"`
	OwnerID     string `json:"owner_id"`
	Owner       string `json:"owner_address"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.registry.Lookup(r.Context(), r.PathValue("owner"))
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordResponse{
		Address:     rec.Address.String(),
		OwnerID:     rec.OwnerID,
		Owner:       rec.OwnerAddress.String(),
		DisplayName: rec.DisplayName,
		CreatedAt:   rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	exists, err := s.registry.HasRecord(r.Context(), r.PathValue("owner"))
	if err != nil {
		s.logger.Error("existence probe failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (s *Server) handleRecordAddress(w http.ResponseWriter, r *http.Request) {
	addr := s.registry.RecordAddress(r.PathValue("owner"))
	writeJSON(w, http.StatusOK, map[string]string{"address": addr.String()})
}

func (s *Server) handleNamespaceAddress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"address": s.registry.NamespaceAddress().String()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var statusPageTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Name}}</title></head>
<body>
<h1>{{.Name}}</h1>
<p><code>{{.Address}}</code></p>
{{if .DisplayURI}}<p><a href="{{.DisplayURI}}">{{.DisplayURI}}</a></p>{{end}}
<div>{{.Description}}</div>
</body>
</html>
`))

func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	ns, err := s.store.GetNamespace(r.Context(), s.registry.NamespaceAddress())
	if err != nil {
		s.logger.Error("loading namespace for status page", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(ns.Description), &htmlBuf); err != nil {
		s.logger.Error("failed to convert markdown", "error", err)
		htmlBuf.Reset()
		htmlBuf.WriteString("<p>Failed to render description.</p>")
	}

	data := struct {
		Name        string
		Address     string
		DisplayURI  string
		Description template.HTML
	}{
		Name:        ns.Name,
		Address:     ns.Address.String(),
		DisplayURI:  ns.DisplayURI,
		Description: template.HTML(htmlBuf.String()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPageTmpl.Execute(w, data); err != nil {
		s.logger.Error("rendering status page", "error", err)
	}
}

// writeRegistryError maps registry errors to HTTP statuses.
func (s *Server) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNameTooLong):
		writeError(w, http.StatusBadRequest, "display name exceeds length bound")
	case errors.Is(err, registry.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "owner already has a record")
	case errors.Is(err, registry.ErrUnavailable):
		writeError(w, http.StatusNotFound, "owner has no record")
	default:
		s.logger.Error("registry operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}
