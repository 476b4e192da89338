/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule implements the shooting-day timeline engine: time
// projection, overlap conflict detection, and cascading edit patches.
// Every operation is a synchronous pure function over caller-owned
// collections; the engine never performs I/O and never mutates its inputs.
package schedule

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
	"github.com/ted-design/shot-builder-app-sub011/internal/timeutil"
)

// Service exposes the timeline engine operations.
type Service struct {
	logger zerolog.Logger
}

// NewService creates the engine service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		logger: logger.With().Str("component", "schedule_engine").Logger(),
	}
}

// NormalizeTracks filters, orders, and backfills a caller-supplied track
// list. Tracks without an id are dropped, the remainder sorted by display
// order (id as tie-break), and a primary track synthesized when nothing
// survives. Normalization is idempotent and re-run on every call.
func NormalizeTracks(tracks []models.ScheduleTrack) []models.ScheduleTrack {
	out := make([]models.ScheduleTrack, 0, len(tracks))
	for _, track := range tracks {
		if track.ID == "" {
			continue
		}
		out = append(out, track)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	if len(out) == 0 {
		out = append(out, models.ScheduleTrack{ID: models.PrimaryTrackID, Name: "Primary", Order: 0})
	}
	return out
}

// NormalizeSettings defaults each settings field individually, so a
// malformed settings object degrades per field rather than wholesale.
func NormalizeSettings(settings models.ScheduleSettings) models.ScheduleSettings {
	if _, ok := timeutil.ParseTimeToMinutes(settings.DayStartTime); !ok {
		settings.DayStartTime = models.DefaultDayStartTime
	}
	if settings.DefaultEntryDurationMinutes <= 0 {
		settings.DefaultEntryDurationMinutes = models.DefaultEntryDuration
	}
	return settings
}

// trackIndex is a lookup over normalized tracks.
type trackIndex struct {
	tracks []models.ScheduleTrack
	byID   map[string]int
}

func indexTracks(tracks []models.ScheduleTrack) trackIndex {
	idx := trackIndex{
		tracks: tracks,
		byID:   make(map[string]int, len(tracks)),
	}
	for i, track := range tracks {
		idx.byID[track.ID] = i
	}
	return idx
}

// resolve maps a raw track id onto a known track. Unknown or missing ids
// fall back to the primary track, or to the first display-ordered track
// when no primary exists.
func (idx trackIndex) resolve(rawID string) string {
	if rawID != "" {
		if _, ok := idx.byID[rawID]; ok {
			return rawID
		}
	}
	if _, ok := idx.byID[models.PrimaryTrackID]; ok {
		return models.PrimaryTrackID
	}
	return idx.tracks[0].ID
}

func (idx trackIndex) displayOrder(id string) int {
	if i, ok := idx.byID[id]; ok {
		return i
	}
	return len(idx.tracks)
}

// isBanner reports whether an entry broadcasts across every track: either
// its type is banner, or its applies-to set equals the full known track
// set (set equality, not list equality).
func isBanner(entry models.ScheduleEntry, idx trackIndex) bool {
	if entry.Type == models.EntryBanner {
		return true
	}
	applies := uniqueIDs(entry.AppliesToTrackIDs)
	if len(applies) == 0 || len(applies) != len(idx.byID) {
		return false
	}
	for id := range applies {
		if _, ok := idx.byID[id]; !ok {
			return false
		}
	}
	return true
}

func uniqueIDs(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func applicability(entry models.ScheduleEntry, banner bool) models.Applicability {
	if banner {
		return models.AppliesAll
	}
	switch len(uniqueIDs(entry.AppliesToTrackIDs)) {
	case 0:
		return models.AppliesNone
	case 1:
		return models.AppliesSingle
	default:
		return models.AppliesSubset
	}
}

// explicitStartMinutes resolves an entry's own time: the canonical
// startTime field first, then the legacy free-text fallback.
func explicitStartMinutes(entry models.ScheduleEntry) (int, bool) {
	if minutes, ok := timeutil.ParseTimeToMinutes(entry.StartTime); ok {
		return minutes, true
	}
	return timeutil.ParseTimeToMinutes(entry.LegacyTime)
}

// effectiveDuration is the explicit positive duration or the settings
// default. Settings must already be normalized.
func effectiveDuration(entry models.ScheduleEntry, settings models.ScheduleSettings) int {
	if entry.DurationMinutes > 0 {
		return entry.DurationMinutes
	}
	return settings.DefaultEntryDurationMinutes
}

// dayAnchorMinutes is the last-resort cursor seed for a track walk.
func dayAnchorMinutes(settings models.ScheduleSettings) int {
	if minutes, ok := timeutil.ParseTimeToMinutes(settings.DayStartTime); ok {
		return minutes
	}
	return models.DefaultDayStartMinutes
}

// sortByOrderID orders entries by the (order, id) tie-break convention
// shared by projection, conflict grouping, and cascades.
func sortByOrderID(entries []models.ScheduleEntry) []models.ScheduleEntry {
	out := append([]models.ScheduleEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}
