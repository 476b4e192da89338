/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package layout turns a schedule projection into an adaptive timeline:
// banner segments, labelled gaps, and density-scaled dense blocks.
package layout

import (
	"fmt"
	"sort"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
)

const (
	// MergeToleranceMinutes joins two timed intervals into one window
	// when the gap between them is at most this many minutes.
	MergeToleranceMinutes = 5

	// MinBlockHeightPx is the smallest rendered height of a dense block;
	// the pixel rate is scaled up to reach it.
	MinBlockHeightPx = 120

	densePxPerMin    = 8
	moderatePxPerMin = 6
	sparsePxPerMin   = 4

	denseRate    = 0.1
	moderateRate = 0.04

	baseCardHeightPx = 48
	metaRowHeightPx  = 18
)

// Build segments a projected day into a start-ordered timeline. The
// projection should be in time mode; rows are regrouped here regardless.
func Build(projection models.ScheduleProjection) models.AdaptiveLayout {
	var unscheduled, banners, timed []models.ProjectedScheduleRow
	for _, row := range projection.Rows {
		switch {
		case row.StartMin == nil:
			unscheduled = append(unscheduled, row)
		case row.IsBanner:
			banners = append(banners, row)
		default:
			timed = append(timed, row)
		}
	}

	windows := mergeWindows(timed)
	blocks := make([]models.TimelineSegment, 0, len(windows))
	for _, win := range windows {
		blocks = append(blocks, buildBlock(win, timed, projection.Tracks))
	}

	segments := weave(banners, blocks)

	return models.AdaptiveLayout{
		Segments:        segments,
		Tracks:          projection.Tracks,
		UnscheduledRows: unscheduled,
	}
}

type window struct {
	start int
	end   int
}

// mergeWindows is the classic interval-merge sweep: sort by start, then
// extend the open window or push a new one.
func mergeWindows(timed []models.ProjectedScheduleRow) []window {
	intervals := make([]window, 0, len(timed))
	for _, row := range timed {
		start := *row.StartMin
		end := start + row.DurationMins
		if row.EndMin != nil {
			end = *row.EndMin
		}
		intervals = append(intervals, window{start: start, end: end})
	}
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].start != intervals[j].start {
			return intervals[i].start < intervals[j].start
		}
		return intervals[i].end < intervals[j].end
	})

	var merged []window
	for _, iv := range intervals {
		if len(merged) > 0 && iv.start <= merged[len(merged)-1].end+MergeToleranceMinutes {
			if iv.end > merged[len(merged)-1].end {
				merged[len(merged)-1].end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// buildBlock collects the timed rows starting inside one window, groups
// them by track, and computes the window's pixel density.
func buildBlock(win window, timed []models.ProjectedScheduleRow, tracks []models.ScheduleTrack) models.TimelineSegment {
	known := make(map[string]int, len(tracks))
	for i, track := range tracks {
		known[track.ID] = i
	}

	byTrack := make(map[string][]models.ProjectedScheduleRow)
	count := 0
	for _, row := range timed {
		start := *row.StartMin
		if start < win.start || start >= win.end {
			continue
		}
		trackID := row.TrackID
		if _, ok := known[trackID]; !ok && len(tracks) > 0 {
			trackID = tracks[0].ID
		}
		byTrack[trackID] = append(byTrack[trackID], row)
		count++
	}

	trackRows := make([]models.TimelineTrackRows, 0, len(byTrack))
	for _, track := range tracks {
		rows := byTrack[track.ID]
		if len(rows) == 0 {
			continue
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if *rows[i].StartMin != *rows[j].StartMin {
				return *rows[i].StartMin < *rows[j].StartMin
			}
			if rows[i].Entry.Order != rows[j].Entry.Order {
				return rows[i].Entry.Order < rows[j].Entry.Order
			}
			return rows[i].Entry.ID < rows[j].Entry.ID
		})
		trackRows = append(trackRows, models.TimelineTrackRows{TrackID: track.ID, Rows: rows})
	}

	rate, density := blockDensity(count, win.end-win.start)

	return models.TimelineSegment{
		Kind:        models.SegmentBlock,
		StartMin:    win.start,
		EndMin:      win.end,
		PxPerMinute: rate,
		Density:     density,
		TrackRows:   trackRows,
	}
}

// blockDensity picks the pixel rate from events-per-minute, then scales
// it up so no block renders shorter than the minimum height.
func blockDensity(events, durationMinutes int) (int, models.BlockDensity) {
	if durationMinutes <= 0 {
		return densePxPerMin, DensityFor(0)
	}

	perMinute := float64(events) / float64(durationMinutes)
	density := DensityFor(perMinute)

	rate := sparsePxPerMin
	switch density {
	case models.DensityDense:
		rate = densePxPerMin
	case models.DensityModerate:
		rate = moderatePxPerMin
	}

	if rate*durationMinutes < MinBlockHeightPx {
		rate = (MinBlockHeightPx + durationMinutes - 1) / durationMinutes
	}
	return rate, density
}

// DensityFor classifies an events-per-minute rate.
func DensityFor(perMinute float64) models.BlockDensity {
	switch {
	case perMinute >= denseRate:
		return models.DensityDense
	case perMinute >= moderateRate:
		return models.DensityModerate
	default:
		return models.DensitySparse
	}
}

// weave merges banner and block segments into one start-ordered sequence
// with gap segments inserted between anchors. The cursor only ever moves
// forward, so overlapping-but-unmerged items never rewind it.
func weave(banners []models.ProjectedScheduleRow, blocks []models.TimelineSegment) []models.TimelineSegment {
	anchors := make([]models.TimelineSegment, 0, len(banners)+len(blocks))
	for i := range banners {
		row := banners[i]
		anchors = append(anchors, models.TimelineSegment{
			Kind:     models.SegmentBanner,
			StartMin: *row.StartMin,
			EndMin:   *row.StartMin + row.DurationMins,
			Row:      &row,
			Title:    row.Entry.Title,
		})
	}
	anchors = append(anchors, blocks...)

	sort.SliceStable(anchors, func(i, j int) bool {
		if anchors[i].StartMin != anchors[j].StartMin {
			return anchors[i].StartMin < anchors[j].StartMin
		}
		// Banners render above the block sharing their start.
		return anchors[i].Kind == models.SegmentBanner && anchors[j].Kind != models.SegmentBanner
	})

	if len(anchors) == 0 {
		return []models.TimelineSegment{}
	}

	segments := make([]models.TimelineSegment, 0, len(anchors)*2)
	cursor := anchors[0].StartMin
	for _, anchor := range anchors {
		if anchor.StartMin > cursor {
			segments = append(segments, models.TimelineSegment{
				Kind:     models.SegmentGap,
				StartMin: cursor,
				EndMin:   anchor.StartMin,
				Label:    GapLabel(anchor.StartMin - cursor),
			})
			cursor = anchor.StartMin
		}
		segments = append(segments, anchor)
		if anchor.EndMin > cursor {
			cursor = anchor.EndMin
		}
	}
	return segments
}

// GapLabel renders a human gap length: "45 min gap", "2h gap", "1h 30m gap".
func GapLabel(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min gap", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh gap", hours)
	}
	return fmt.Sprintf("%dh %dm gap", hours, rest)
}

// MinCardHeight is the smallest rendered height of an entry card: a fixed
// base plus up to two metadata rows.
func MinCardHeight(metaRows int) int {
	if metaRows < 0 {
		metaRows = 0
	}
	if metaRows > 2 {
		metaRows = 2
	}
	return baseCardHeightPx + metaRows*metaRowHeightPx
}

// CardHeight clamps a card's natural height to its minimum.
func CardHeight(naturalHeight, minHeight int) int {
	if naturalHeight < minHeight {
		return minHeight
	}
	return naturalHeight
}
