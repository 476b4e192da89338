/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"
)

// EntryType enumerates schedule entry kinds.
type EntryType string

const (
	EntryShot   EntryType = "shot"
	EntrySetup  EntryType = "setup"
	EntryBreak  EntryType = "break"
	EntryMove   EntryType = "move"
	EntryBanner EntryType = "banner"
)

// PrimaryTrackID is the fallback track for entries with a missing or
// unknown track id.
const PrimaryTrackID = "primary"

// Shared-broadcast markers. Entries carrying one of these track ids are
// visible on every track and are excluded from per-track conflict checks.
// "all" is the legacy spelling.
const (
	SharedTrackID       = "shared"
	LegacySharedTrackID = "all"
)

// ScheduleEntry is one row of a shooting day schedule. The engine reads
// entries and emits patch proposals; it never creates or deletes them.
type ScheduleEntry struct {
	ID    string    `gorm:"type:uuid;primaryKey" json:"id"`
	DayID string    `gorm:"type:uuid;index" json:"-"`
	Type  EntryType `gorm:"type:varchar(16)" json:"type"`
	Title string    `json:"title"`
	// Order is a tie-break only; display ordering is primarily by
	// resolved start time.
	Order   int    `gorm:"column:sort_order" json:"order"`
	TrackID string `gorm:"index" json:"trackId,omitempty"`
	// StartTime holds a canonical "HH:MM" when set. LegacyTime carries
	// free-form text from older documents and is consulted as a fallback.
	StartTime       string `json:"startTime,omitempty"`
	LegacyTime      string `gorm:"column:legacy_time" json:"time,omitempty"`
	DurationMinutes int    `gorm:"column:duration_minutes" json:"duration,omitempty"`
	// AppliesToTrackIDs broadcasts the entry to an explicit set of tracks.
	// When it equals the full known track set the entry is a banner.
	AppliesToTrackIDs []string       `gorm:"serializer:json" json:"appliesToTrackIds,omitempty"`
	Highlight         map[string]any `gorm:"serializer:json" json:"highlight,omitempty"`
	CreatedAt         time.Time      `json:"-"`
	UpdatedAt         time.Time      `json:"-"`
}

// ScheduleTrack is one parallel lane (unit) of a shooting day.
type ScheduleTrack struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	DayID     string    `gorm:"type:uuid;primaryKey" json:"-"`
	Name      string    `json:"name"`
	Order     int       `gorm:"column:sort_order" json:"order"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Defaults applied when settings fields are absent or invalid.
const (
	DefaultDayStartTime    = "06:00"
	DefaultDayStartMinutes = 6 * 60
	DefaultEntryDuration   = 15
)

// ScheduleSettings configures time derivation for one shooting day.
type ScheduleSettings struct {
	DayID                       string    `gorm:"type:uuid;primaryKey" json:"-"`
	CascadeChanges              bool      `gorm:"default:true" json:"cascadeChanges"`
	DayStartTime                string    `gorm:"type:varchar(8)" json:"dayStartTime"`
	DefaultEntryDurationMinutes int       `json:"defaultEntryDurationMinutes"`
	CreatedAt                   time.Time `json:"-"`
	UpdatedAt                   time.Time `json:"-"`
}

// DefaultScheduleSettings returns settings with every field defaulted.
func DefaultScheduleSettings() ScheduleSettings {
	return ScheduleSettings{
		CascadeChanges:              true,
		DayStartTime:                DefaultDayStartTime,
		DefaultEntryDurationMinutes: DefaultEntryDuration,
	}
}

// TimeSource tags how a projected row's time was obtained.
type TimeSource string

const (
	TimeSourceExplicit TimeSource = "explicit"
	TimeSourceDerived  TimeSource = "derived"
	TimeSourceNone     TimeSource = "none"
)

// Applicability classifies which tracks a projected row targets.
type Applicability string

const (
	AppliesAll    Applicability = "all"
	AppliesSubset Applicability = "subset"
	AppliesSingle Applicability = "single"
	AppliesNone   Applicability = "none"
)

// ProjectedScheduleRow is one entry annotated with derived state. Rows are
// ephemeral: recomputed on every projection call, never stored.
type ProjectedScheduleRow struct {
	Entry         ScheduleEntry `json:"entry"`
	TrackID       string        `json:"trackId"`
	Applicability Applicability `json:"applicability"`
	IsBanner      bool          `json:"isBanner"`
	StartMin      *int          `json:"startMin"`
	EndMin        *int          `json:"endMin"`
	DurationMins  int           `json:"durationMinutes"`
	TimeSource    TimeSource    `json:"timeSource"`
}

// ScheduleProjection is the canonical read model of one day.
type ScheduleProjection struct {
	Tracks []ScheduleTrack        `json:"tracks"`
	Rows   []ProjectedScheduleRow `json:"rows"`
}

// EntryPatch proposes field updates for one entry. The persistence layer
// merges Patch into the stored entry and stamps its own update metadata.
type EntryPatch struct {
	EntryID string         `json:"entryId"`
	Patch   map[string]any `json:"patch"`
}

// Patch field keys.
const (
	PatchFieldOrder    = "order"
	PatchFieldStart    = "startTime"
	PatchFieldDuration = "durationMinutes"
	PatchFieldTrack    = "trackId"
)

// TrackOverlapConflict reports two entries occupying overlapping intervals
// on the same track.
type TrackOverlapConflict struct {
	TrackID     string `json:"trackId"`
	TrackName   string `json:"trackName"`
	EntryAID    string `json:"entryAId"`
	EntryATitle string `json:"entryATitle"`
	EntryBID    string `json:"entryBId"`
	EntryBTitle string `json:"entryBTitle"`
	StartAMin   int    `json:"startAMin"`
	EndAMin     int    `json:"endAMin"`
	StartBMin   int    `json:"startBMin"`
	EndBMin     int    `json:"endBMin"`
}
