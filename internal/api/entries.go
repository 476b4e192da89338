/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ted-design/shot-builder-app-sub011/internal/events"
	"github.com/ted-design/shot-builder-app-sub011/internal/models"
	"github.com/ted-design/shot-builder-app-sub011/internal/timeutil"
)

type entryCreateRequest struct {
	Type              string         `json:"type"`
	Title             string         `json:"title"`
	TrackID           string         `json:"trackId"`
	StartTime         string         `json:"startTime"`
	DurationMinutes   int            `json:"duration"`
	AppliesToTrackIDs []string       `json:"appliesToTrackIds"`
	Highlight         map[string]any `json:"highlight"`
}

func validEntryType(t string) bool {
	switch models.EntryType(t) {
	case models.EntryShot, models.EntrySetup, models.EntryBreak, models.EntryMove, models.EntryBanner:
		return true
	}
	return false
}

func (a *API) handleEntryCreate(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")
	if dayID == "" {
		writeError(w, http.StatusBadRequest, "day_id_required")
		return
	}

	var req entryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if !validEntryType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid_entry_type")
		return
	}
	if req.StartTime != "" {
		classified := timeutil.ClassifyTimeInput(req.StartTime, false)
		if classified.Kind == timeutil.InputInvalid {
			writeError(w, http.StatusBadRequest, "invalid_start_time")
			return
		}
		req.StartTime = classified.Canonical
	}

	snapshot, ok := a.daySnapshot(r, dayID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	trackID := req.TrackID
	if models.EntryType(req.Type) == models.EntryBanner && trackID == "" {
		trackID = models.SharedTrackID
	}

	// New entries append after everything already on the day.
	nextOrder := 0
	for _, existing := range snapshot.Entries {
		if existing.Order >= nextOrder {
			nextOrder = existing.Order + 1
		}
	}

	entry := models.ScheduleEntry{
		ID:                uuid.NewString(),
		DayID:             dayID,
		Type:              models.EntryType(req.Type),
		Title:             req.Title,
		Order:             nextOrder,
		TrackID:           trackID,
		StartTime:         req.StartTime,
		DurationMinutes:   req.DurationMinutes,
		AppliesToTrackIDs: req.AppliesToTrackIDs,
		Highlight:         req.Highlight,
	}

	if err := a.store.CreateEntry(r.Context(), &entry); err != nil {
		a.logger.Error().Err(err).Str("day_id", dayID).Msg("failed to create entry")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	a.invalidateDay(r, dayID)
	a.bus.Publish(events.EventEntryCreated, events.Payload{
		"day_id":   dayID,
		"entry_id": entry.ID,
		"type":     string(entry.Type),
	})

	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) handleEntryDelete(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entryDay(w, r)
	if !ok {
		return
	}

	if err := a.store.DeleteEntry(r.Context(), entry.ID); err != nil {
		a.logger.Error().Err(err).Str("entry_id", entry.ID).Msg("failed to delete entry")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	a.invalidateDay(r, entry.DayID)
	a.bus.Publish(events.EventEntryDeleted, events.Payload{
		"day_id":   entry.DayID,
		"entry_id": entry.ID,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type reorderRequest struct {
	MovedEntryID string   `json:"movedEntryId"`
	OrderedIDs   []string `json:"orderedIds"`
}

func (a *API) handleEntriesReorder(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")
	if dayID == "" {
		writeError(w, http.StatusBadRequest, "day_id_required")
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if len(req.OrderedIDs) == 0 {
		writeError(w, http.StatusBadRequest, "ordered_ids_required")
		return
	}

	snapshot, ok := a.daySnapshot(r, dayID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	patches := a.engine.Reorder(snapshot.Entries, snapshot.Tracks, snapshot.Settings, req.MovedEntryID, req.OrderedIDs)
	a.applyAndRespond(w, r, dayID, "reorder", patches)
}

type editStartTimeRequest struct {
	StartTime string `json:"startTime"`
}

func (a *API) handleEntryEditStartTime(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entryDay(w, r)
	if !ok {
		return
	}

	var req editStartTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	snapshot, ok := a.daySnapshot(r, entry.DayID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	patches := a.engine.EditStartTime(snapshot.Entries, snapshot.Tracks, snapshot.Settings, entry.ID, req.StartTime)
	a.applyAndRespond(w, r, entry.DayID, "edit_start_time", patches)
}

type editDurationRequest struct {
	DurationMinutes int `json:"durationMinutes"`
}

func (a *API) handleEntryEditDuration(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entryDay(w, r)
	if !ok {
		return
	}

	var req editDurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.DurationMinutes < 0 {
		writeError(w, http.StatusBadRequest, "invalid_duration")
		return
	}

	snapshot, ok := a.daySnapshot(r, entry.DayID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	patches := a.engine.EditDuration(snapshot.Entries, snapshot.Tracks, snapshot.Settings, entry.ID, req.DurationMinutes)
	a.applyAndRespond(w, r, entry.DayID, "edit_duration", patches)
}

type moveRequest struct {
	FromTrackID string `json:"fromTrackId"`
	ToTrackID   string `json:"toTrackId"`
	InsertIndex int    `json:"insertIndex"`
}

func (a *API) handleEntryMove(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entryDay(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.ToTrackID == "" {
		writeError(w, http.StatusBadRequest, "to_track_required")
		return
	}

	snapshot, ok := a.daySnapshot(r, entry.DayID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	patches := a.engine.MoveBetweenTracks(snapshot.Entries, snapshot.Tracks, snapshot.Settings, entry.ID, req.FromTrackID, req.ToTrackID, req.InsertIndex)
	a.applyAndRespond(w, r, entry.DayID, "move", patches)
}
