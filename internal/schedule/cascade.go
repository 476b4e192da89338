/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"sort"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
	"github.com/ted-design/shot-builder-app-sub011/internal/timeutil"
)

// patchSet accumulates field patches and coalesces writes targeting the
// same entry. Later writes win per field. Emission order follows first
// touch of each entry, keeping output deterministic.
type patchSet struct {
	order []string
	byID  map[string]map[string]any
}

func newPatchSet() *patchSet {
	return &patchSet{byID: make(map[string]map[string]any)}
}

func (p *patchSet) add(entryID, field string, value any) {
	fields, ok := p.byID[entryID]
	if !ok {
		fields = make(map[string]any)
		p.byID[entryID] = fields
		p.order = append(p.order, entryID)
	}
	fields[field] = value
}

func (p *patchSet) list() []models.EntryPatch {
	out := make([]models.EntryPatch, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, models.EntryPatch{EntryID: id, Patch: p.byID[id]})
	}
	return out
}

// Reorder computes patches for a drag-reorder within one track. Order is
// renumbered 0..N-1 for every entry whose position changed. With cascade
// enabled, start times are rewritten gaplessly from the track anchor, but
// only for the moved entry and entries at or after its new index; entries
// before it are assumed already canonical and are never rewritten.
func (s *Service) Reorder(entries []models.ScheduleEntry, tracks []models.ScheduleTrack, settings models.ScheduleSettings, movedEntryID string, orderedIDs []string) []models.EntryPatch {
	normSettings := NormalizeSettings(settings)

	byID := make(map[string]models.ScheduleEntry, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}

	newOrder := make([]models.ScheduleEntry, 0, len(orderedIDs))
	movedIndex := -1
	for _, id := range orderedIDs {
		entry, ok := byID[id]
		if !ok {
			// Unknown ids degrade to a partial patch set.
			continue
		}
		if id == movedEntryID {
			movedIndex = len(newOrder)
		}
		newOrder = append(newOrder, entry)
	}

	patches := newPatchSet()
	for i, entry := range newOrder {
		if entry.Order != i {
			patches.add(entry.ID, models.PatchFieldOrder, i)
		}
	}

	if !normSettings.CascadeChanges || movedIndex < 0 {
		return patches.list()
	}

	cursor := dayAnchorMinutes(normSettings)
	if len(newOrder) > 0 {
		if first, ok := explicitStartMinutes(newOrder[0]); ok {
			cursor = first
		}
	}

	for i, entry := range newOrder {
		if i < movedIndex {
			if explicit, ok := explicitStartMinutes(entry); ok {
				cursor = explicit
			}
			cursor += effectiveDuration(entry, normSettings)
			continue
		}
		desired := cursor
		if current, ok := explicitStartMinutes(entry); !ok || current != desired {
			patches.add(entry.ID, models.PatchFieldStart, timeutil.MinutesToHHMM(desired))
		}
		cursor = desired + effectiveDuration(entry, normSettings)
	}

	s.logCascade("reorder", movedEntryID, patches)
	return patches.list()
}

// EditStartTime computes patches for a direct start-time edit. Without
// cascade (or when the new value does not parse) only the edited field is
// patched. With cascade, the edited entry's track is re-ranked around the
// new time, orders renumbered, a duration optionally inferred from the
// gap to the next entry, and downstream start times rewritten gaplessly.
func (s *Service) EditStartTime(entries []models.ScheduleEntry, tracks []models.ScheduleTrack, settings models.ScheduleSettings, entryID, nextStartTime string) []models.EntryPatch {
	normSettings := NormalizeSettings(settings)
	idx := indexTracks(NormalizeTracks(tracks))

	edited, ok := findEntry(entries, entryID)
	if !ok {
		return nil
	}

	patches := newPatchSet()
	newMin, parses := timeutil.ParseTimeToMinutes(nextStartTime)

	nextValue := nextStartTime
	if parses {
		nextValue = timeutil.MinutesToHHMM(newMin)
	}

	if !normSettings.CascadeChanges || !parses || isBanner(edited, idx) {
		if edited.StartTime != nextValue {
			patches.add(edited.ID, models.PatchFieldStart, nextValue)
		}
		return patches.list()
	}

	group := trackGroup(entries, idx, idx.resolve(edited.TrackID))
	currentStarts := derivedStarts(group, normSettings)

	// Rank with the edited time substituted, every other entry keeping its
	// existing explicit or derived time; ties break by original index, id.
	type ranked struct {
		entry   models.ScheduleEntry
		key     int
		origIdx int
	}
	rankedEntries := make([]ranked, len(group))
	for i, entry := range group {
		key := currentStarts[i]
		if entry.ID == edited.ID {
			key = newMin
		}
		rankedEntries[i] = ranked{entry: entry, key: key, origIdx: i}
	}
	sort.SliceStable(rankedEntries, func(i, j int) bool {
		if rankedEntries[i].key != rankedEntries[j].key {
			return rankedEntries[i].key < rankedEntries[j].key
		}
		if rankedEntries[i].origIdx != rankedEntries[j].origIdx {
			return rankedEntries[i].origIdx < rankedEntries[j].origIdx
		}
		return rankedEntries[i].entry.ID < rankedEntries[j].entry.ID
	})

	editedRank := -1
	for i, r := range rankedEntries {
		if r.entry.Order != i {
			patches.add(r.entry.ID, models.PatchFieldOrder, i)
		}
		if r.entry.ID == edited.ID {
			editedRank = i
		}
	}

	if edited.StartTime != nextValue {
		patches.add(edited.ID, models.PatchFieldStart, nextValue)
	}

	// Infer a duration from the gap to the next ranked entry when the
	// edited entry carries none and that entry starts later.
	editedDuration := effectiveDuration(edited, normSettings)
	if edited.DurationMinutes <= 0 && editedRank+1 < len(rankedEntries) {
		if next := rankedEntries[editedRank+1]; next.key > newMin {
			editedDuration = next.key - newMin
			patches.add(edited.ID, models.PatchFieldDuration, editedDuration)
		}
	}

	cursor := newMin + editedDuration
	for i := editedRank + 1; i < len(rankedEntries); i++ {
		r := rankedEntries[i]
		desired := cursor
		if currentStarts[r.origIdx] != desired {
			patches.add(r.entry.ID, models.PatchFieldStart, timeutil.MinutesToHHMM(desired))
		}
		cursor = desired + effectiveDuration(r.entry, normSettings)
	}

	s.logCascade("edit_start_time", entryID, patches)
	return patches.list()
}

// EditDuration computes patches for a duration edit. The duration field
// is patched regardless of the cascade flag; with cascade enabled and a
// parseable start on the edited entry, downstream start times in its
// track are recomputed from the new effective duration.
func (s *Service) EditDuration(entries []models.ScheduleEntry, tracks []models.ScheduleTrack, settings models.ScheduleSettings, entryID string, nextDurationMinutes int) []models.EntryPatch {
	normSettings := NormalizeSettings(settings)
	idx := indexTracks(NormalizeTracks(tracks))

	edited, ok := findEntry(entries, entryID)
	if !ok {
		return nil
	}

	patches := newPatchSet()
	if edited.DurationMinutes != nextDurationMinutes {
		patches.add(edited.ID, models.PatchFieldDuration, nextDurationMinutes)
	}

	editedStart, startParses := explicitStartMinutes(edited)
	if !normSettings.CascadeChanges || !startParses || isBanner(edited, idx) {
		return patches.list()
	}

	group := trackGroup(entries, idx, idx.resolve(edited.TrackID))
	currentStarts := derivedStarts(group, normSettings)

	editedIdx := -1
	for i, entry := range group {
		if entry.ID == edited.ID {
			editedIdx = i
			break
		}
	}
	if editedIdx < 0 {
		return patches.list()
	}

	nextEffective := nextDurationMinutes
	if nextEffective <= 0 {
		nextEffective = normSettings.DefaultEntryDurationMinutes
	}

	cursor := editedStart + nextEffective
	for i := editedIdx + 1; i < len(group); i++ {
		desired := cursor
		if currentStarts[i] != desired {
			patches.add(group[i].ID, models.PatchFieldStart, timeutil.MinutesToHHMM(desired))
		}
		cursor = desired + effectiveDuration(group[i], normSettings)
	}

	s.logCascade("edit_duration", entryID, patches)
	return patches.list()
}

// MoveBetweenTracks computes patches for relocating an entry to another
// track at a given insertion point. Banners cannot be moved. Both tracks
// are renumbered; cascaded time rewrites touch only entries downstream of
// the removal point in the source track and of the insertion point in the
// destination track. That downstream-only rule is the engine's core
// minimal-diff property.
func (s *Service) MoveBetweenTracks(entries []models.ScheduleEntry, tracks []models.ScheduleTrack, settings models.ScheduleSettings, entryID, fromTrackID, toTrackID string, insertIndex int) []models.EntryPatch {
	normSettings := NormalizeSettings(settings)
	idx := indexTracks(NormalizeTracks(tracks))

	moved, ok := findEntry(entries, entryID)
	if !ok || isBanner(moved, idx) {
		return nil
	}

	sourceID := idx.resolve(fromTrackID)
	destID := idx.resolve(toTrackID)

	sourceWithMoved := trackGroup(entries, idx, sourceID)
	removedIndex := len(sourceWithMoved)
	source := make([]models.ScheduleEntry, 0, len(sourceWithMoved))
	for i, entry := range sourceWithMoved {
		if entry.ID == moved.ID {
			removedIndex = i
			continue
		}
		source = append(source, entry)
	}

	dest := make([]models.ScheduleEntry, 0, len(entries))
	for _, entry := range trackGroup(entries, idx, destID) {
		if entry.ID != moved.ID {
			dest = append(dest, entry)
		}
	}
	if insertIndex < 0 {
		insertIndex = 0
	}
	if insertIndex > len(dest) {
		insertIndex = len(dest)
	}
	dest = append(dest[:insertIndex:insertIndex], append([]models.ScheduleEntry{moved}, dest[insertIndex:]...)...)

	patches := newPatchSet()
	crossTrack := idx.resolve(moved.TrackID) != destID
	if crossTrack {
		patches.add(moved.ID, models.PatchFieldTrack, destID)
	}

	for i, entry := range source {
		if entry.Order != i {
			patches.add(entry.ID, models.PatchFieldOrder, i)
		}
	}
	for i, entry := range dest {
		// The moved entry's position is new on a cross-track move even
		// when the numeric order coincides with its old value.
		if entry.Order != i || (crossTrack && entry.ID == moved.ID) {
			patches.add(entry.ID, models.PatchFieldOrder, i)
		}
	}

	if !normSettings.CascadeChanges {
		return patches.list()
	}

	s.cascadeFromIndex(patches, source, removedIndex, normSettings)
	s.cascadeFromIndex(patches, dest, insertIndex, normSettings)

	s.logCascade("move_between_tracks", entryID, patches)
	return patches.list()
}

// cascadeFromIndex rewrites start times gaplessly from the track anchor,
// emitting patches only for entries at or after the change point.
func (s *Service) cascadeFromIndex(patches *patchSet, ordered []models.ScheduleEntry, fromIndex int, settings models.ScheduleSettings) {
	if len(ordered) == 0 {
		return
	}

	cursor := dayAnchorMinutes(settings)
	if first, ok := explicitStartMinutes(ordered[0]); ok {
		cursor = first
	}

	for i, entry := range ordered {
		if i < fromIndex {
			if explicit, ok := explicitStartMinutes(entry); ok {
				cursor = explicit
			}
			cursor += effectiveDuration(entry, settings)
			continue
		}
		desired := cursor
		if current, ok := explicitStartMinutes(entry); !ok || current != desired {
			patches.add(entry.ID, models.PatchFieldStart, timeutil.MinutesToHHMM(desired))
		}
		cursor = desired + effectiveDuration(entry, settings)
	}
}

// trackGroup selects the non-banner entries resolving to one track, in
// (order, id) sequence.
func trackGroup(entries []models.ScheduleEntry, idx trackIndex, trackID string) []models.ScheduleEntry {
	var group []models.ScheduleEntry
	for _, entry := range entries {
		if isBanner(entry, idx) {
			continue
		}
		if idx.resolve(entry.TrackID) == trackID {
			group = append(group, entry)
		}
	}
	return sortByOrderID(group)
}

// derivedStarts runs the projector's cursor walk over an ordered group
// and returns each entry's current explicit-or-derived start.
func derivedStarts(ordered []models.ScheduleEntry, settings models.ScheduleSettings) []int {
	starts := make([]int, len(ordered))

	cursor := dayAnchorMinutes(settings)
	if len(ordered) > 0 {
		if first, ok := explicitStartMinutes(ordered[0]); ok {
			cursor = first
		}
	}

	for i, entry := range ordered {
		start := cursor
		if explicit, ok := explicitStartMinutes(entry); ok {
			start = explicit
		}
		starts[i] = start
		cursor = start + effectiveDuration(entry, settings)
	}
	return starts
}

func findEntry(entries []models.ScheduleEntry, id string) (models.ScheduleEntry, bool) {
	for _, entry := range entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return models.ScheduleEntry{}, false
}

func (s *Service) logCascade(operation, entryID string, patches *patchSet) {
	s.logger.Debug().
		Str("operation", operation).
		Str("entry_id", entryID).
		Int("patched_entries", len(patches.order)).
		Msg("cascade computed")
}
