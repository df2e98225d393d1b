// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the store read-only over HTTP: raw records, the
// current brief, the map in GeoJSON and HTML, and run metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/internal/brief"
	"github.com/pdiddy/intel-engine/internal/geomap"
	"github.com/pdiddy/intel-engine/internal/metrics"
	"github.com/pdiddy/intel-engine/internal/store"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// DefaultLimit caps /api/records when no limit is given.
const DefaultLimit = 500

// Store is the read side of the record store.
type Store interface {
	Window(ctx context.Context, f store.Filter) ([]types.Record, error)
	Counts(ctx context.Context) (map[types.Category]int, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	Store   Store
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Brief   types.BriefConfig

	// Now anchors time windows. Nil uses the wall clock.
	Now func() time.Time
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/records", s.handleRecords)
		r.Get("/brief", s.handleBrief)
		r.Get("/status", s.handleStatus)
	})

	r.Get("/map.geojson", s.handleGeoJSON)
	r.Get("/map", s.handleMap)

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// with a grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger().Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errc
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	f, err := s.filter(r, DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records, err := s.Store.Window(r.Context(), f)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if records == nil {
		records = []types.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

type groupResponse struct {
	Category types.Category `json:"category"`
	Label    string         `json:"label"`
	Total    int            `json:"total"`
	Lines    []string       `json:"lines"`
}

type briefResponse struct {
	Target     string          `json:"target"`
	Hours      float64         `json:"hours"`
	Since      time.Time       `json:"since"`
	Now        time.Time       `json:"now"`
	Items      int             `json:"items"`
	Critical   int             `json:"critical"`
	MeanScore  float64         `json:"mean_score"`
	AlertLevel int             `json:"alert_level"`
	AlertLabel string          `json:"alert_label"`
	Groups     []groupResponse `json:"groups"`
}

func (s *Server) handleBrief(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := strings.TrimSpace(q.Get("target"))
	if target == "" {
		target = store.GlobalTarget
	}
	hours, err := intParam(q.Get("hours"), s.Brief.Hours)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	b, err := brief.Build(r.Context(), s.Store, brief.Request{
		Target:   target,
		Window:   time.Duration(hours) * time.Hour,
		GroupCap: s.Brief.GroupCap,
		Now:      s.now(),
	})
	switch {
	case errors.Is(err, brief.ErrNoIntelligence):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.internalError(w, r, err)
		return
	}

	if s.Metrics != nil {
		s.Metrics.SetAlertLevel(b.Stats.AlertLevel)
	}
	resp := briefResponse{
		Target:     b.Target,
		Hours:      b.Window.Hours(),
		Since:      b.Since,
		Now:        b.Now,
		Items:      b.Stats.Items,
		Critical:   b.Stats.Critical,
		MeanScore:  b.Stats.MeanScore,
		AlertLevel: b.Stats.AlertLevel,
		AlertLabel: brief.AlertLabel(b.Stats.AlertLevel),
	}
	for _, g := range b.Groups {
		lines := g.Lines
		if lines == nil {
			lines = []string{}
		}
		resp.Groups = append(resp.Groups, groupResponse{
			Category: g.Category,
			Label:    g.Category.Label(),
			Total:    g.Total,
			Lines:    lines,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	Total  int                    `json:"total"`
	Counts map[types.Category]int `json:"counts"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.Store.Counts(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	resp := statusResponse{Counts: make(map[types.Category]int)}
	for _, c := range types.AllCategories() {
		resp.Counts[c] = counts[c]
		resp.Total += counts[c]
	}
	if s.Metrics != nil {
		s.Metrics.SetCounts(counts)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) located(r *http.Request) ([]geomap.Point, error) {
	f, err := s.filter(r, 0)
	if err != nil {
		return nil, err
	}
	f.LocatedOnly = true
	records, err := s.Store.Window(r.Context(), f)
	if err != nil {
		return nil, err
	}
	return geomap.Points(records), nil
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	points, err := s.located(r)
	if err != nil {
		s.pointsError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if err := geomap.WriteGeoJSON(w, points); err != nil {
		s.logger().Warn("writing geojson", zap.Error(err))
	}
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	points, err := s.located(r)
	if err != nil {
		s.pointsError(w, r, err)
		return
	}
	opts := geomap.Options{
		Title: mapTitle(r),
		Heat:  r.URL.Query().Get("heat") == "true",
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := geomap.WriteHTML(w, points, opts); err != nil {
		s.logger().Warn("writing map", zap.Error(err))
	}
}

func mapTitle(r *http.Request) string {
	q := r.URL.Query()
	target := q.Get("target")
	if target == "" {
		target = "Global"
	}
	if h := q.Get("hours"); h != "" && h != "0" {
		return fmt.Sprintf("%s, last %sh", target, h)
	}
	return target
}

func (s *Server) pointsError(w http.ResponseWriter, r *http.Request, err error) {
	var bad *paramError
	if errors.As(err, &bad) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.internalError(w, r, err)
}

// paramError marks a malformed query parameter.
type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string {
	return fmt.Sprintf("parameter %s: %v", e.name, e.err)
}

func (e *paramError) Unwrap() error { return e.err }

// filter reads hours, category, target and limit. hours defaults to the
// brief window; 0 means unbounded.
func (s *Server) filter(r *http.Request, defaultLimit int) (store.Filter, error) {
	q := r.URL.Query()
	var f store.Filter

	hours, err := intParam(q.Get("hours"), s.Brief.Hours)
	if err != nil {
		return f, &paramError{name: "hours", err: err}
	}
	if hours > 0 {
		f.Since = s.now().Add(-time.Duration(hours) * time.Hour)
	}

	if raw := q.Get("category"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			c, err := types.ParseCategory(part)
			if err != nil {
				return f, &paramError{name: "category", err: err}
			}
			f.Categories = append(f.Categories, c)
		}
	}

	f.Target = q.Get("target")

	limit, err := intParam(q.Get("limit"), defaultLimit)
	if err != nil {
		return f, &paramError{name: "limit", err: err}
	}
	f.Limit = limit
	return f, nil
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return n, nil
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger().Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
