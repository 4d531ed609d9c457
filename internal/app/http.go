package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ready", s.handleReady)

	r.Get("/api/proposals/{proposalID}/permissions", s.handleProposalPermissions)
	r.Get("/api/proposals/{proposalID}/permissions/steps", s.handleProposalStepPermissions)
	r.Get("/api/proposals/{proposalID}/page-permissions", s.handlePagePermissions)

	r.Get("/api/spaces/{spaceID}/permissions", s.handleSpacePermissions)
	r.Get("/api/spaces/{spaceID}/proposals/permissions", s.handleBulkPermissions)
	r.Get("/api/spaces/{spaceID}/proposals/accessible", s.handleAccessibleProposals)

	return s.withMiddleware(r)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}
	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{"status": "error", "error": err.Error()}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleProposalPermissions(w http.ResponseWriter, r *http.Request) {
	flags, err := s.service.ProposalPermissions(r.Context(),
		chi.URLParam(r, "proposalID"),
		r.URL.Query().Get("userId"),
		r.URL.Query().Get("evaluationId"),
	)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, flags)
}

func (s *HTTPServer) handleProposalStepPermissions(w http.ResponseWriter, r *http.Request) {
	steps, err := s.service.ProposalStepPermissions(r.Context(),
		chi.URLParam(r, "proposalID"),
		r.URL.Query().Get("userId"),
	)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

func (s *HTTPServer) handlePagePermissions(w http.ResponseWriter, r *http.Request) {
	flags, err := s.service.PagePermissions(r.Context(),
		chi.URLParam(r, "proposalID"),
		r.URL.Query().Get("userId"),
	)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, flags)
}

func (s *HTTPServer) handleSpacePermissions(w http.ResponseWriter, r *http.Request) {
	flags, err := s.service.SpacePermissions(r.Context(),
		chi.URLParam(r, "spaceID"),
		r.URL.Query().Get("userId"),
	)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, flags)
}

func (s *HTTPServer) handleBulkPermissions(w http.ResponseWriter, r *http.Request) {
	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "MISSING_IDS", "ids query parameter is required", nil)
		return
	}
	out, err := s.service.BulkProposalPermissions(r.Context(),
		chi.URLParam(r, "spaceID"),
		r.URL.Query().Get("userId"),
		ids,
	)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleAccessibleProposals(w http.ResponseWriter, r *http.Request) {
	onlyAssigned, _ := strconv.ParseBool(r.URL.Query().Get("onlyAssigned"))
	out, err := s.service.AccessibleProposals(r.Context(),
		chi.URLParam(r, "spaceID"),
		r.URL.Query().Get("userId"),
		onlyAssigned,
	)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposals": out})
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
