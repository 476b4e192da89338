/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the timeline engine over HTTP. Handlers load a
// day snapshot, run the engine, and return its output; all mutation
// endpoints answer with the patch set that was applied.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ted-design/shot-builder-app-sub011/internal/cache"
	"github.com/ted-design/shot-builder-app-sub011/internal/events"
	"github.com/ted-design/shot-builder-app-sub011/internal/layout"
	"github.com/ted-design/shot-builder-app-sub011/internal/models"
	"github.com/ted-design/shot-builder-app-sub011/internal/schedule"
	"github.com/ted-design/shot-builder-app-sub011/internal/store"
	"github.com/ted-design/shot-builder-app-sub011/internal/telemetry"
	"github.com/ted-design/shot-builder-app-sub011/internal/trust"
)

// API exposes HTTP handlers.
type API struct {
	store  *store.Store
	engine *schedule.Service
	trust  *trust.Service
	cache  *cache.Cache
	bus    *events.Bus
	logger zerolog.Logger
}

// New creates the API router wrapper. The cache may be nil when caching
// is disabled.
func New(st *store.Store, engine *schedule.Service, trustSvc *trust.Service, projectionCache *cache.Cache, bus *events.Bus, logger zerolog.Logger) *API {
	return &API{
		store:  st,
		engine: engine,
		trust:  trustSvc,
		cache:  projectionCache,
		bus:    bus,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts all API endpoints on the router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/days/{dayID}", func(r chi.Router) {
			r.Get("/schedule", a.handleScheduleGet)
			r.Get("/conflicts", a.handleConflictsGet)
			r.Get("/warnings", a.handleWarningsGet)
			r.Get("/layout", a.handleLayoutGet)

			r.Post("/entries", a.handleEntryCreate)
			r.Post("/entries/reorder", a.handleEntriesReorder)
		})

		r.Route("/entries/{entryID}", func(r chi.Router) {
			r.Delete("/", a.handleEntryDelete)
			r.Patch("/start-time", a.handleEntryEditStartTime)
			r.Patch("/duration", a.handleEntryEditDuration)
			r.Post("/move", a.handleEntryMove)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// daySnapshot loads and normalizes a day's schedule inputs.
func (a *API) daySnapshot(r *http.Request, dayID string) (*store.DaySnapshot, bool) {
	snapshot, err := a.store.DaySnapshot(r.Context(), dayID)
	if err != nil {
		a.logger.Error().Err(err).Str("day_id", dayID).Msg("failed to load day snapshot")
		return nil, false
	}
	snapshot.Tracks = schedule.NormalizeTracks(snapshot.Tracks)
	snapshot.Settings = schedule.NormalizeSettings(snapshot.Settings)
	return snapshot, true
}

func (a *API) handleScheduleGet(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")
	if dayID == "" {
		writeError(w, http.StatusBadRequest, "day_id_required")
		return
	}

	mode := schedule.ModeTime
	if r.URL.Query().Get("mode") == "sequence" {
		mode = schedule.ModeSequence
	}

	// Only the default time view is cached; the sequence view is a
	// cheap re-sort used by drag interactions.
	if mode == schedule.ModeTime && a.cache != nil {
		if cached, ok := a.cache.GetProjection(r.Context(), dayID); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	snapshot, ok := a.daySnapshot(r, dayID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	projection := a.engine.Project(snapshot.Entries, snapshot.Tracks, snapshot.Settings, mode)
	telemetry.ProjectionsTotal.WithLabelValues(string(mode)).Inc()

	if mode == schedule.ModeTime && a.cache != nil {
		_ = a.cache.SetProjection(r.Context(), dayID, &projection)
	}

	writeJSON(w, http.StatusOK, projection)
}

// dayConflicts runs (or reads back) the conflict scan for a day.
func (a *API) dayConflicts(r *http.Request, dayID string) ([]models.TrackOverlapConflict, bool) {
	if a.cache != nil {
		if cached, ok := a.cache.GetConflicts(r.Context(), dayID); ok {
			return cached, true
		}
	}

	snapshot, ok := a.daySnapshot(r, dayID)
	if !ok {
		return nil, false
	}

	conflicts := a.engine.FindOverlaps(schedule.FindOverlapsInput{
		Entries:  snapshot.Entries,
		Tracks:   snapshot.Tracks,
		Settings: snapshot.Settings,
	})

	if len(conflicts) > 0 {
		telemetry.ConflictsDetected.Add(float64(len(conflicts)))
		a.bus.Publish(events.EventConflictDetected, events.Payload{
			"day_id": dayID,
			"count":  len(conflicts),
		})
	}

	if a.cache != nil {
		_ = a.cache.SetConflicts(r.Context(), dayID, conflicts)
	}
	return conflicts, true
}

func (a *API) handleConflictsGet(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")
	if dayID == "" {
		writeError(w, http.StatusBadRequest, "day_id_required")
		return
	}

	conflicts, ok := a.dayConflicts(r, dayID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

func (a *API) handleWarningsGet(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")
	if dayID == "" {
		writeError(w, http.StatusBadRequest, "day_id_required")
		return
	}

	conflicts, ok := a.dayConflicts(r, dayID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"warnings": a.trust.Warnings(conflicts)})
}

func (a *API) handleLayoutGet(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")
	if dayID == "" {
		writeError(w, http.StatusBadRequest, "day_id_required")
		return
	}

	if a.cache != nil {
		if cached, ok := a.cache.GetLayout(r.Context(), dayID); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	snapshot, ok := a.daySnapshot(r, dayID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	projection := a.engine.Project(snapshot.Entries, snapshot.Tracks, snapshot.Settings, schedule.ModeTime)
	built := layout.Build(projection)

	if a.cache != nil {
		_ = a.cache.SetLayout(r.Context(), dayID, &built)
	}

	writeJSON(w, http.StatusOK, built)
}

// entryDay resolves an entry to its shooting day, distinguishing a
// missing entry from a database failure.
func (a *API) entryDay(w http.ResponseWriter, r *http.Request) (models.ScheduleEntry, bool) {
	entryID := chi.URLParam(r, "entryID")
	if entryID == "" {
		writeError(w, http.StatusBadRequest, "entry_id_required")
		return models.ScheduleEntry{}, false
	}

	entry, err := a.store.FindEntry(r.Context(), entryID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return models.ScheduleEntry{}, false
	}
	if err != nil {
		a.logger.Error().Err(err).Str("entry_id", entryID).Msg("failed to load entry")
		writeError(w, http.StatusInternalServerError, "db_error")
		return models.ScheduleEntry{}, false
	}
	return entry, true
}

// applyAndRespond persists a patch set, invalidates cached views, emits
// the schedule update event, and writes the patches back to the caller.
func (a *API) applyAndRespond(w http.ResponseWriter, r *http.Request, dayID, operation string, patches []models.EntryPatch) {
	if err := a.store.ApplyPatches(r.Context(), patches); err != nil {
		a.logger.Error().Err(err).Str("day_id", dayID).Str("operation", operation).Msg("failed to apply patches")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	telemetry.CascadePatchesTotal.WithLabelValues(operation).Add(float64(len(patches)))

	a.invalidateDay(r, dayID)
	a.bus.Publish(events.EventScheduleUpdate, events.Payload{
		"day_id":    dayID,
		"operation": operation,
		"patches":   len(patches),
	})

	if patches == nil {
		patches = []models.EntryPatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"patches": patches})
}

func (a *API) invalidateDay(r *http.Request, dayID string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.InvalidateDay(r.Context(), dayID); err != nil {
		a.logger.Debug().Err(err).Str("day_id", dayID).Msg("cache invalidation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
