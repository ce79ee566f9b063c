// Package server exposes the extraction service over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	stegextractor "github.com/Skryldev/steg-extractor"
	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
)

const (
	serviceName    = "steg-extractor"
	serviceVersion = "1.0.0"
)

// Server wires the Extractor into HTTP handlers.
type Server struct {
	ext       *stegextractor.Extractor
	logger    core.Logger
	retention time.Duration
}

// New creates a Server.  logger may be nil.
func New(ext *stegextractor.Extractor, logger core.Logger, retention time.Duration) *Server {
	return &Server{ext: ext, logger: logger, retention: retention}
}

// Handler returns the full route table wrapped with gzip compression and
// request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /decode", s.handleDecode)
	mux.HandleFunc("POST /decode/direct", s.handleDecodeDirect)
	mux.HandleFunc("GET /download/{filename}", s.handleDownload)
	return gzhttp.GzipHandler(s.logRequests(mux))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.logger != nil {
			s.logger.Info("http.request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	})
}

// ── handlers ──────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// decodeRequest is the body of POST /decode and POST /decode/direct.
type decodeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readDecodeRequest(w, r)
	if !ok {
		return
	}

	// Opportunistic retention sweep, as every decode request triggers one.
	cleaned := s.ext.Inner().SweepNow(r.Context())

	result, err := s.ext.DecodeURL(r.Context(), req.URL)
	if err != nil {
		s.writeDecodeError(w, err)
		return
	}

	stored := result.Artifact.Stored
	if stored == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   apperrors.ErrStorageUnavailable.Error(),
		})
		return
	}

	det := result.Artifact.Detection
	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"file_type":          string(det.Format),
		"file_size":          stored.Size,
		"filename":           stored.Name,
		"download_url":       fmt.Sprintf("%s/download/%s", baseURL(r), stored.Name),
		"deletion_date":      stored.ExpiresAt.UTC().Format("2006-01-02 15:04:05 UTC"),
		"deletion_timestamp": stored.ExpiresAt.Unix(),
		"expires_in_hours":   int(s.retention.Hours()),
		"cleanup_info": map[string]any{
			"files_cleaned": cleaned,
		},
		"message": fmt.Sprintf("extracted %s payload successfully", det.Format),
	})
}

func (s *Server) handleDecodeDirect(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readDecodeRequest(w, r)
	if !ok {
		return
	}

	s.ext.Inner().SweepNow(r.Context())

	result, err := s.ext.DecodeURL(r.Context(), req.URL)
	if err != nil {
		s.writeDecodeError(w, err)
		return
	}

	det := result.Artifact.Detection
	w.Header().Set("Content-Type", contentTypeFor(det.Format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "decoded."+string(det.Format)))
	_, _ = w.Write(det.Payload)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if name == "" || strings.ContainsAny(name, "/\\") || name != path.Base(name) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid filename"})
		return
	}

	st := s.ext.Inner().Storage()
	if st == nil {
		writeJSON(w, http.StatusInternalServerError,
			map[string]any{"error": apperrors.ErrStorageUnavailable.Error()})
		return
	}

	rc, err := st.Get(r.Context(), core.StorageKey{Path: name})
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "file not found"})
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeByName(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = io.Copy(w, rc)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *Server) readDecodeRequest(w http.ResponseWriter, r *http.Request) (decodeRequest, bool) {
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "url required",
			"example": map[string]string{"url": "https://example.com/image.png"},
		})
		return decodeRequest{}, false
	}
	return req, true
}

func (s *Server) writeDecodeError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsNoPayload(err):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "no hidden payload found in the image",
		})
	case apperrors.IsCategory(err, apperrors.CategoryInput):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func contentTypeFor(f core.Format) string {
	if ct := mime.TypeByExtension("." + string(f)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func contentTypeByName(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
