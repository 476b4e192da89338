/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

// SegmentKind enumerates adaptive timeline segment types.
type SegmentKind string

const (
	SegmentBanner SegmentKind = "banner"
	SegmentGap    SegmentKind = "gap"
	SegmentBlock  SegmentKind = "block"
)

// BlockDensity describes how crowded a dense block is.
type BlockDensity string

const (
	DensityDense    BlockDensity = "dense"
	DensityModerate BlockDensity = "moderate"
	DensitySparse   BlockDensity = "sparse"
)

// TimelineTrackRows groups one block's rows by track, in track display order.
type TimelineTrackRows struct {
	TrackID string                 `json:"trackId"`
	Rows    []ProjectedScheduleRow `json:"rows"`
}

// TimelineSegment is one vertical slice of the rendered day. Exactly one of
// the kind-specific field groups is populated, selected by Kind.
type TimelineSegment struct {
	Kind     SegmentKind `json:"kind"`
	StartMin int         `json:"startMin"`
	EndMin   int         `json:"endMin"`

	// Banner segments.
	Row   *ProjectedScheduleRow `json:"row,omitempty"`
	Title string                `json:"title,omitempty"`

	// Gap segments.
	Label string `json:"label,omitempty"`

	// Dense block segments.
	PxPerMinute int                 `json:"pxPerMinute,omitempty"`
	Density     BlockDensity        `json:"density,omitempty"`
	TrackRows   []TimelineTrackRows `json:"trackRows,omitempty"`
}

// AdaptiveLayout is the full rendering plan for one projected day.
type AdaptiveLayout struct {
	Segments        []TimelineSegment      `json:"segments"`
	Tracks          []ScheduleTrack        `json:"tracks"`
	UnscheduledRows []ProjectedScheduleRow `json:"unscheduledRows"`
}
