/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"sort"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
)

// ProjectionMode selects the row ordering of a projection.
type ProjectionMode string

const (
	// ModeTime orders rows by resolved start time across tracks.
	ModeTime ProjectionMode = "time"
	// ModeSequence orders rows by (order, id) regardless of time.
	ModeSequence ProjectionMode = "sequence"
)

// Project computes the canonical time projection of one shooting day.
// Every input entry appears in exactly one output row. Inputs are read
// only; the projection is freshly allocated on every call.
func (s *Service) Project(entries []models.ScheduleEntry, tracks []models.ScheduleTrack, settings models.ScheduleSettings, mode ProjectionMode) models.ScheduleProjection {
	normTracks := NormalizeTracks(tracks)
	normSettings := NormalizeSettings(settings)
	idx := indexTracks(normTracks)

	var banners []models.ScheduleEntry
	byTrack := make(map[string][]models.ScheduleEntry)
	for _, entry := range entries {
		if isBanner(entry, idx) {
			banners = append(banners, entry)
			continue
		}
		trackID := idx.resolve(entry.TrackID)
		byTrack[trackID] = append(byTrack[trackID], entry)
	}

	rows := make([]models.ProjectedScheduleRow, 0, len(entries))
	for _, track := range normTracks {
		rows = append(rows, s.walkTrack(byTrack[track.ID], track.ID, normSettings)...)
	}
	for _, entry := range banners {
		rows = append(rows, bannerRow(entry, idx, normSettings))
	}

	sortRows(rows, mode, idx)

	s.logger.Debug().
		Int("entries", len(entries)).
		Int("tracks", len(normTracks)).
		Str("mode", string(mode)).
		Msg("projected schedule")

	return models.ScheduleProjection{Tracks: normTracks, Rows: rows}
}

// walkTrack derives start times for one track's entries with a single
// forward cursor: the first entry's own time (else the day anchor) seeds
// the cursor, each entry either keeps its explicit time or receives the
// cursor value, and the cursor advances by the entry's effective duration.
func (s *Service) walkTrack(entries []models.ScheduleEntry, trackID string, settings models.ScheduleSettings) []models.ProjectedScheduleRow {
	ordered := sortByOrderID(entries)
	rows := make([]models.ProjectedScheduleRow, 0, len(ordered))

	cursor := dayAnchorMinutes(settings)
	if len(ordered) > 0 {
		if first, ok := explicitStartMinutes(ordered[0]); ok {
			cursor = first
		}
	}

	for _, entry := range ordered {
		start := cursor
		source := models.TimeSourceDerived
		if explicit, ok := explicitStartMinutes(entry); ok {
			start = explicit
			source = models.TimeSourceExplicit
		}

		duration := effectiveDuration(entry, settings)
		end := start + duration
		cursor = end

		startCopy, endCopy := start, end
		rows = append(rows, models.ProjectedScheduleRow{
			Entry:         entry,
			TrackID:       trackID,
			Applicability: applicability(entry, false),
			StartMin:      &startCopy,
			EndMin:        &endCopy,
			DurationMins:  duration,
			TimeSource:    source,
		})
	}
	return rows
}

// bannerRow derives a banner's time independently of any track cursor.
func bannerRow(entry models.ScheduleEntry, idx trackIndex, settings models.ScheduleSettings) models.ProjectedScheduleRow {
	start := dayAnchorMinutes(settings)
	source := models.TimeSourceDerived
	if explicit, ok := explicitStartMinutes(entry); ok {
		start = explicit
		source = models.TimeSourceExplicit
	}

	duration := effectiveDuration(entry, settings)
	end := start + duration

	return models.ProjectedScheduleRow{
		Entry:         entry,
		TrackID:       idx.resolve(entry.TrackID),
		Applicability: models.AppliesAll,
		IsBanner:      true,
		StartMin:      &start,
		EndMin:        &end,
		DurationMins:  duration,
		TimeSource:    source,
	}
}

func sortRows(rows []models.ProjectedScheduleRow, mode ProjectionMode, idx trackIndex) {
	if mode == ModeSequence {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Entry.Order != rows[j].Entry.Order {
				return rows[i].Entry.Order < rows[j].Entry.Order
			}
			return rows[i].Entry.ID < rows[j].Entry.ID
		})
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		// Rows without a resolvable time sort last.
		switch {
		case a.StartMin == nil && b.StartMin != nil:
			return false
		case a.StartMin != nil && b.StartMin == nil:
			return true
		case a.StartMin != nil && b.StartMin != nil && *a.StartMin != *b.StartMin:
			return *a.StartMin < *b.StartMin
		}
		if da, db := idx.displayOrder(a.TrackID), idx.displayOrder(b.TrackID); da != db {
			return da < db
		}
		if a.Entry.Order != b.Entry.Order {
			return a.Entry.Order < b.Entry.Order
		}
		return a.Entry.ID < b.Entry.ID
	})
}
