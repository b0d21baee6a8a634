package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"

	"freecal/internal/config"
	appLog "freecal/internal/log"
	"freecal/internal/model"
	"freecal/internal/present"
	"freecal/internal/report"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the last computed availability report over HTTP.
// Reports are pushed in by the refresh loop; requests never fetch the feed.
type Server struct {
	cfg    *config.Config
	router chi.Router

	mu        sync.RWMutex
	current   *report.Report
	lastErr   error
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the router wrapped with auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// SetReport replaces the served report and clears the last refresh error.
func (s *Server) SetReport(rep *report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = rep
	s.lastErr = nil
	s.updatedAt = time.Now()
}

// SetError records a failed refresh. The previous report keeps being served.
func (s *Server) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// view is one request's read of the server state.
type view struct {
	rep       *report.Report
	lastErr   error
	updatedAt time.Time
	formatter present.Formatter
}

func (s *Server) snapshot() view {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{rep: s.current, lastErr: s.lastErr, updatedAt: s.updatedAt}
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// 빈 사용자명 또는 비밀번호가 설정된 경우에는 비활성화로 취급한다.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="freecal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)
	if s.cfg != nil && len(s.cfg.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/availability", s.handleAvailability)
		r.Get("/availability.txt", s.handleAvailabilityText)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// availabilityResponse is the JSON response shape for /api/availability.
type availabilityResponse struct {
	Timezone        string    `json:"timezone"`
	DisplayTimezone string    `json:"display_timezone,omitempty"`
	WorkingWindow   string    `json:"working_window"`
	RangeStart      time.Time `json:"range_start"`
	RangeEnd        time.Time `json:"range_end"`
	GeneratedAt     time.Time `json:"generated_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	FromCache       bool      `json:"from_cache"`
	Days            []dayDTO  `json:"days"`
	Warnings        []string  `json:"warnings,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
}

type dayDTO struct {
	Date    string        `json:"date"`
	Weekday string        `json:"weekday"`
	Free    []intervalDTO `json:"free"`
}

// intervalDTO carries the interval in the working-window zone plus the
// rendered line. Display is set when a display timezone was requested.
type intervalDTO struct {
	Start   time.Time   `json:"start"`
	End     time.Time   `json:"end"`
	Text    string      `json:"text"`
	Display *displayDTO `json:"display,omitempty"`
}

type displayDTO struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type errorResponse struct {
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// handleAvailability returns the cached report.
//
// GET /api/availability?tz=Asia/Kolkata
//   - tz: optional display timezone, defaults to config display_timezone
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	v, ok := s.prepare(w, r)
	if !ok {
		return
	}
	rep, formatter := v.rep, v.formatter

	resp := availabilityResponse{
		Timezone:      rep.Window.Location.String(),
		WorkingWindow: rep.Window.String(),
		RangeStart:    rep.RangeStart,
		RangeEnd:      rep.RangeEnd,
		GeneratedAt:   rep.GeneratedAt,
		UpdatedAt:     v.updatedAt,
		FromCache:     rep.FromCache,
		Days:          make([]dayDTO, 0, len(rep.Days)),
		Warnings:      reportWarnings(rep),
	}
	if formatter.Display != nil {
		resp.DisplayTimezone = formatter.Display.String()
	}
	if v.lastErr != nil {
		resp.LastError = v.lastErr.Error()
	}

	for _, day := range rep.Days {
		dto := dayDTO{
			Date:    day.Date.Format("2006-01-02"),
			Weekday: day.Date.Weekday().String(),
			Free:    make([]intervalDTO, 0, len(day.Free)),
		}
		for _, iv := range day.Free {
			dto.Free = append(dto.Free, toIntervalDTO(iv, formatter))
		}
		resp.Days = append(resp.Days, dto)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleAvailabilityText renders the same output as the CLI.
func (s *Server) handleAvailabilityText(w http.ResponseWriter, r *http.Request) {
	v, ok := s.prepare(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := v.formatter.Write(w, v.rep.Days); err != nil {
		appLog.Error("failed to write availability text", err)
	}
}

// prepare resolves the report and display timezone shared by both
// availability handlers. It writes the error response itself when ok is false.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request) (view, bool) {
	v := s.snapshot()
	if v.rep == nil {
		msg := "availability not computed yet"
		if v.lastErr != nil {
			msg += ": " + v.lastErr.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msg})
		return v, false
	}

	v.formatter = present.Formatter{
		Reference: v.rep.Window.Location,
		Names:     s.zoneNames(),
	}

	tz := strings.TrimSpace(r.URL.Query().Get("tz"))
	if tz == "" && s.cfg != nil {
		tz = s.cfg.DisplayTimezone
	}
	if tz != "" {
		check := present.CheckTimezone(tz)
		if !check.Valid() {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:       check.Err.Error(),
				Suggestions: check.Err.Suggestions,
			})
			return v, false
		}
		v.formatter.Display = check.Location
	}

	return v, true
}

func (s *Server) zoneNames() present.ZoneNames {
	if s.cfg == nil || s.cfg.ZoneNames == nil {
		return present.DefaultZoneNames()
	}
	return present.ZoneNames(s.cfg.ZoneNames)
}

func toIntervalDTO(iv model.Interval, f present.Formatter) intervalDTO {
	ref := iv.In(f.Reference)
	dto := intervalDTO{
		Start: ref.Start,
		End:   ref.End,
		Text:  f.FormatInterval(iv),
	}
	if f.Display != nil {
		disp := iv.In(f.Display)
		dto.Display = &displayDTO{
			Label: f.Names.Label(f.Display, iv.Start),
			Start: disp.Start,
			End:   disp.End,
		}
	}
	return dto
}

func reportWarnings(rep *report.Report) []string {
	var out []string
	for _, err := range rep.RuleErrors {
		out = append(out, err.Error())
	}
	for _, tz := range rep.UnknownTimezones {
		out = append(out, "unknown TZID "+tz+" interpreted in "+rep.Window.Location.String())
	}
	for _, uid := range rep.TruncatedEvents {
		out = append(out, "recurrence truncated for event "+uid)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}
