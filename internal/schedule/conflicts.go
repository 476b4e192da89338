/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"sort"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
)

// FindOverlapsInput carries the collections the detector reads.
type FindOverlapsInput struct {
	Entries  []models.ScheduleEntry
	Tracks   []models.ScheduleTrack
	Settings models.ScheduleSettings
	// TrackIDs optionally scopes detection to a subset of known tracks.
	TrackIDs []string
}

// timedEntry is one conflict candidate with its resolved interval.
type timedEntry struct {
	entry models.ScheduleEntry
	start int
	end   int
}

// FindOverlaps reports pairwise time overlaps within each track. Banners
// and shared-broadcast entries are excluded, as are entries whose time
// cannot be parsed. Only adjacent pairs of the start-sorted sequence are
// checked: a conflict with a non-adjacent entry implies a conflict with
// the one between them, so adjacent checking finds every violation
// without reporting transitively-overlapping chains twice.
func (s *Service) FindOverlaps(in FindOverlapsInput) []models.TrackOverlapConflict {
	normTracks := NormalizeTracks(in.Tracks)
	settings := NormalizeSettings(in.Settings)
	idx := indexTracks(normTracks)

	scope := uniqueIDs(in.TrackIDs)

	byTrack := make(map[string][]models.ScheduleEntry)
	for _, entry := range in.Entries {
		if entry.TrackID == models.SharedTrackID || entry.TrackID == models.LegacySharedTrackID {
			continue
		}
		if isBanner(entry, idx) {
			continue
		}
		trackID := idx.resolve(entry.TrackID)
		if scope != nil {
			if _, ok := scope[trackID]; !ok {
				continue
			}
		}
		byTrack[trackID] = append(byTrack[trackID], entry)
	}

	var conflicts []models.TrackOverlapConflict
	for _, track := range normTracks {
		timed := resolveIntervals(byTrack[track.ID], settings)
		for i := 0; i+1 < len(timed); i++ {
			cur, next := timed[i], timed[i+1]
			if cur.end <= next.start {
				continue
			}
			conflicts = append(conflicts, models.TrackOverlapConflict{
				TrackID:     track.ID,
				TrackName:   track.Name,
				EntryAID:    cur.entry.ID,
				EntryATitle: cur.entry.Title,
				EntryBID:    next.entry.ID,
				EntryBTitle: next.entry.Title,
				StartAMin:   cur.start,
				EndAMin:     cur.end,
				StartBMin:   next.start,
				EndBMin:     next.end,
			})
		}
	}

	if len(conflicts) > 0 {
		s.logger.Debug().Int("conflicts", len(conflicts)).Msg("track overlaps detected")
	}
	return conflicts
}

// resolveIntervals sorts one track's entries by (startMin, order, id) and
// computes each entry's end. The effective duration of an entry is its
// explicit positive duration; else the gap to the next entry's later
// start; else the settings default.
func resolveIntervals(entries []models.ScheduleEntry, settings models.ScheduleSettings) []timedEntry {
	timed := make([]timedEntry, 0, len(entries))
	for _, entry := range entries {
		start, ok := explicitStartMinutes(entry)
		if !ok {
			// Untimed entries carry no interval to conflict with.
			continue
		}
		timed = append(timed, timedEntry{entry: entry, start: start})
	}

	sort.SliceStable(timed, func(i, j int) bool {
		if timed[i].start != timed[j].start {
			return timed[i].start < timed[j].start
		}
		if timed[i].entry.Order != timed[j].entry.Order {
			return timed[i].entry.Order < timed[j].entry.Order
		}
		return timed[i].entry.ID < timed[j].entry.ID
	})

	for i := range timed {
		duration := timed[i].entry.DurationMinutes
		if duration <= 0 {
			if i+1 < len(timed) && timed[i+1].start > timed[i].start {
				duration = timed[i+1].start - timed[i].start
			} else {
				duration = settings.DefaultEntryDurationMinutes
			}
		}
		timed[i].end = timed[i].start + duration
	}
	return timed
}
