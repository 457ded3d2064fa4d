// Package http serves the form and task JSON API.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"workorders/internal/apiclient"
	"workorders/internal/cache"
	applog "workorders/internal/log"
	"workorders/internal/services"
	"workorders/internal/settings"
)

// SettingsService is the part of settings.Manager the server uses.
type SettingsService interface {
	Current() settings.Settings
	Username() string
	Client() *apiclient.Client
	Update(ctx context.Context, u settings.Update) (settings.Settings, error)
	Reset(ctx context.Context) (settings.Settings, error)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
}

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Forms    *services.FormService
	Settings SettingsService
	Pingers  map[string]Pinger
	Cache    *cache.Manager
	Logger   *applog.Logger

	StatisticsTTL time.Duration
	RateLimit     int
}

type Server struct {
	http.Server
	forms      *services.FormService
	settings   SettingsService
	pingers    map[string]Pinger
	logger     *applog.Logger
	structured *applog.StructuredLogger

	rateLimiter *rateLimiter
	metrics     *securityMetrics
	statsCache  *cache.LRUCache[json.RawMessage]

	requests     int64
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	if deps.StatisticsTTL <= 0 {
		deps.StatisticsTTL = 5 * time.Minute
	}

	s := &Server{
		forms:       deps.Forms,
		settings:    deps.Settings,
		pingers:     deps.Pingers,
		logger:      logger,
		structured:  applog.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(deps.RateLimit),
		metrics:     &securityMetrics{},
		statsCache:  cache.NewLRUCache[json.RawMessage](100, deps.StatisticsTTL),
		started:     time.Now(),
	}
	if deps.Cache != nil {
		deps.Cache.Register(s.statsCache)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/forms", s.handleOpenForm)
	mux.HandleFunc("GET /api/forms/{id}", s.handleGetForm)
	mux.HandleFunc("DELETE /api/forms/{id}", s.handleCloseForm)
	mux.HandleFunc("POST /api/forms/{id}/submit", s.handleSubmitForm)
	mux.HandleFunc("POST /api/forms/{id}/{list}", s.handleAddRow)
	mux.HandleFunc("PATCH /api/forms/{id}/{list}/{index}", s.handleEditRow)
	mux.HandleFunc("DELETE /api/forms/{id}/{list}/{index}", s.handleRemoveRow)
	mux.HandleFunc("GET /api/forms/{id}/{list}/{index}/options", s.handleRowOptions)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/my-tasks", s.handleMyTasks)
	mux.HandleFunc("POST /api/tasks/{id}/accept", s.handleAcceptTask)
	mux.HandleFunc("GET /api/statistics/{kind}", s.handleStatistics)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("DELETE /api/settings", s.handleResetSettings)
	mux.HandleFunc("POST /api/session", s.handleLogin)
	mux.HandleFunc("DELETE /api/session", s.handleLogout)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.withMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines and the listener. It is safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// withMiddleware adds request ids, security headers, rate limiting of
// mutating requests and request logging.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.requests, 1)
		clientIP := extractClientIP(r)

		requestID := sanitizeInput(r.Header.Get("X-Request-ID"))
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
		}
		logger := s.logger.With(applog.NewFields().WithRequestID(requestID).ToSlice()...)
		ctx := applog.NewContext(r.Context(), logger)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		setSecurityHeaders(w)

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		applog.NewStructuredLogger(logger).LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports every dependency; one failure makes the service not ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]any)

	if s.settings == nil || s.forms == nil {
		checks["forms"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["forms"] = map[string]any{"status": "ok", "open": s.forms.OpenCount()}
		checks["api_base_url"] = s.settings.Current().APIBaseURL
	}
	for name, p := range s.pingers {
		if err := p.Ping(ctx); err != nil {
			checks[name] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	openForms := 0
	if s.forms != nil {
		openForms = s.forms.OpenCount()
	}

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", atomic.LoadInt64(&s.requests))
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", atomic.LoadInt64(&s.metrics.rateLimitHits))
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", atomic.LoadInt64(&s.metrics.suspiciousRequests))
	metric("open_forms", "gauge", "Forms currently held in memory", openForms)
	metric("statistics_cache_entries", "gauge", "Cached statistics reports", s.statsCache.Size())
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", s.rateLimiter.ActiveClients())
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}
