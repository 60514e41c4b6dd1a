// Package router parses and serves the query API on top of the pure
// covering engine.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/geocell/internal/cache"
	"github.com/mohammed-shakir/geocell/internal/cache/keys"
	"github.com/mohammed-shakir/geocell/internal/observability"
	"github.com/mohammed-shakir/geocell/pkg/adaptive"
	"github.com/mohammed-shakir/geocell/pkg/cover"
	"github.com/mohammed-shakir/geocell/pkg/geo"
	"github.com/mohammed-shakir/geocell/pkg/geohash"
)

// adaptiveLevel is the literal level/precision value selecting the radius
// ladder instead of a fixed number.
const adaptiveLevel = "adaptive"

type Handler struct {
	log *slog.Logger

	grids map[string]cover.Grid

	// nil store disables caching
	store    cache.Store
	cacheTTL time.Duration
	opTO     time.Duration

	defaultMaxCells int
}

type Config struct {
	Grids           map[string]cover.Grid
	Store           cache.Store
	CacheTTL        time.Duration
	CacheOpTimeout  time.Duration
	DefaultMaxCells int
}

func New(log *slog.Logger, cfg Config) *Handler {
	maxCells := cfg.DefaultMaxCells
	if maxCells <= 0 || maxCells > cover.MaxCellsCeiling {
		maxCells = cover.DefaultMaxCells
	}
	opTO := cfg.CacheOpTimeout
	if opTO <= 0 {
		opTO = 250 * time.Millisecond
	}
	return &Handler{
		log:             log,
		grids:           cfg.Grids,
		store:           cfg.Store,
		cacheTTL:        cfg.CacheTTL,
		opTO:            opTO,
		defaultMaxCells: maxCells,
	}
}

type coverResponse struct {
	Scheme string `json:"scheme"`
	Level  int    `json:"level"`
	cover.Covering
	Cached bool `json:"cached,omitempty"`
}

type rangeResponse struct {
	Precision int `json:"precision"`
	cover.KeyRange
}

type encodeResponse struct {
	Scheme string `json:"scheme"`
	Level  int    `json:"level"`
	Cell   string `json:"cell"`
}

// HandleCover serves GET /v1/cover.
func (h *Handler) HandleCover(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
	defer func() {
		observability.ObserveHTTP(r.Method, "/v1/cover", sw.code, time.Since(start).Seconds())
	}()

	q := r.URL.Query()

	scheme := strings.ToLower(strings.TrimSpace(q.Get("scheme")))
	g, ok := h.grids[scheme]
	if !ok {
		badRequest(sw, fmt.Errorf("unknown grid scheme %q (want s2 or h3)", scheme))
		return
	}

	center, err := parsePoint(q.Get("lat"), q.Get("lng"))
	if err != nil {
		badRequest(sw, err)
		return
	}
	radiusKm, err := parseFloat(q.Get("radius_km"), "radius_km")
	if err != nil {
		badRequest(sw, err)
		return
	}

	level, err := h.resolveLevel(q.Get("level"), scheme, radiusKm)
	if err != nil {
		badRequest(sw, err)
		return
	}

	maxCells := h.defaultMaxCells
	if raw := q.Get("max_cells"); raw != "" {
		maxCells, err = strconv.Atoi(raw)
		if err != nil {
			badRequest(sw, fmt.Errorf("max_cells: %w", err))
			return
		}
	}

	key := keys.Cover(scheme, level, center.Lat, center.Lng, radiusKm, maxCells)
	if c, ok := h.cacheGet(r.Context(), key); ok {
		writeJSON(sw, coverResponse{Scheme: scheme, Level: level, Covering: c, Cached: true})
		return
	}

	c, err := cover.CellsForRadius(g, center, radiusKm, level, maxCells)
	if err != nil {
		badRequest(sw, err)
		return
	}
	observability.ObserveCover(scheme, len(c.Cells), c.Visited, c.Complete)
	h.cacheSet(r.Context(), key, c)

	writeJSON(sw, coverResponse{Scheme: scheme, Level: level, Covering: c})
}

// HandleRange serves GET /v1/range (curve scheme key range).
func (h *Handler) HandleRange(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
	defer func() {
		observability.ObserveHTTP(r.Method, "/v1/range", sw.code, time.Since(start).Seconds())
	}()

	q := r.URL.Query()

	center, err := parsePoint(q.Get("lat"), q.Get("lng"))
	if err != nil {
		badRequest(sw, err)
		return
	}
	radiusKm, err := parseFloat(q.Get("radius_km"), "radius_km")
	if err != nil {
		badRequest(sw, err)
		return
	}

	precision, err := h.resolveLevel(q.Get("precision"), adaptive.Geohash.Scheme, radiusKm)
	if err != nil {
		badRequest(sw, err)
		return
	}

	kr, err := cover.RangeForRadius(center, radiusKm, precision)
	if err != nil {
		badRequest(sw, err)
		return
	}
	writeJSON(sw, rangeResponse{Precision: precision, KeyRange: kr})
}

// HandleEncode serves GET /v1/encode for any of the three schemes.
func (h *Handler) HandleEncode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
	defer func() {
		observability.ObserveHTTP(r.Method, "/v1/encode", sw.code, time.Since(start).Seconds())
	}()

	q := r.URL.Query()

	p, err := parsePoint(q.Get("lat"), q.Get("lng"))
	if err != nil {
		badRequest(sw, err)
		return
	}
	level, err := strconv.Atoi(strings.TrimSpace(q.Get("level")))
	if err != nil {
		badRequest(sw, fmt.Errorf("level: %w", err))
		return
	}

	scheme := strings.ToLower(strings.TrimSpace(q.Get("scheme")))
	var cell string
	switch scheme {
	case adaptive.Geohash.Scheme:
		cell, err = geohash.Encode(p.Lat, p.Lng, level)
	default:
		g, ok := h.grids[scheme]
		if !ok {
			badRequest(sw, fmt.Errorf("unknown scheme %q", scheme))
			return
		}
		cell, err = g.Encode(p, level)
	}
	if err != nil {
		badRequest(sw, err)
		return
	}
	writeJSON(sw, encodeResponse{Scheme: scheme, Level: level, Cell: cell})
}

func (h *Handler) resolveLevel(raw, scheme string, radiusKm float64) (int, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == adaptiveLevel {
		ladder, err := adaptive.ForScheme(scheme)
		if err != nil {
			return 0, err
		}
		return ladder.LevelFor(radiusKm)
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("level: %w", err)
	}
	return level, nil
}

func (h *Handler) cacheGet(ctx context.Context, key string) (cover.Covering, bool) {
	if h.store == nil {
		return cover.Covering{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, h.opTO)
	defer cancel()

	raw, found, err := h.store.Get(ctx, key)
	if err != nil {
		h.log.Warn("cache get failed", "err", err)
		return cover.Covering{}, false
	}
	if !found {
		observability.IncCacheMiss()
		return cover.Covering{}, false
	}
	var c cover.Covering
	if err := json.Unmarshal(raw, &c); err != nil {
		h.log.Warn("cache entry decode failed", "err", err)
		return cover.Covering{}, false
	}
	observability.IncCacheHit()
	return c, true
}

func (h *Handler) cacheSet(ctx context.Context, key string, c cover.Covering) {
	if h.store == nil {
		return
	}
	raw, err := json.Marshal(c)
	if err != nil {
		h.log.Warn("cache entry encode failed", "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.opTO)
	defer cancel()
	if err := h.store.Set(ctx, key, raw, h.cacheTTL); err != nil {
		h.log.Warn("cache set failed", "err", err)
	}
}

func parsePoint(rawLat, rawLng string) (geo.Point, error) {
	lat, err := parseFloat(rawLat, "lat")
	if err != nil {
		return geo.Point{}, err
	}
	lng, err := parseFloat(rawLng, "lng")
	if err != nil {
		return geo.Point{}, err
	}
	return geo.NewPoint(lat, lng)
}

func parseFloat(raw, name string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter: %s", name)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func badRequest(w http.ResponseWriter, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	// All handler errors are caller mistakes; the engine has no transient
	// failure modes.
	if errors.Is(err, context.DeadlineExceeded) {
		http.Error(w, msg, http.StatusGatewayTimeout)
		return
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
