package schedule

import (
	"testing"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
)

func patchFor(patches []models.EntryPatch, entryID string) (map[string]any, bool) {
	for _, patch := range patches {
		if patch.EntryID == entryID {
			return patch.Patch, true
		}
	}
	return nil, false
}

// applyPatches mirrors what the persistence layer does, for idempotence
// and contiguity checks.
func applyPatches(entries []models.ScheduleEntry, patches []models.EntryPatch) []models.ScheduleEntry {
	out := append([]models.ScheduleEntry(nil), entries...)
	for i := range out {
		patch, ok := patchFor(patches, out[i].ID)
		if !ok {
			continue
		}
		if v, ok := patch[models.PatchFieldOrder].(int); ok {
			out[i].Order = v
		}
		if v, ok := patch[models.PatchFieldStart].(string); ok {
			out[i].StartTime = v
		}
		if v, ok := patch[models.PatchFieldDuration].(int); ok {
			out[i].DurationMinutes = v
		}
		if v, ok := patch[models.PatchFieldTrack].(string); ok {
			out[i].TrackID = v
		}
	}
	return out
}

func reorderFixture() []models.ScheduleEntry {
	return []models.ScheduleEntry{
		{ID: "a", Order: 0, TrackID: "primary", StartTime: "06:00", DurationMinutes: 15},
		{ID: "b", Order: 1, TrackID: "primary", StartTime: "06:15", DurationMinutes: 15},
		{ID: "c", Order: 2, TrackID: "primary", StartTime: "06:30", DurationMinutes: 15},
	}
}

func TestReorderCascade(t *testing.T) {
	entries := reorderFixture()

	patches := testService().Reorder(entries, primaryTrack(), testSettings(), "c", []string{"a", "c", "b"})

	if _, ok := patchFor(patches, "a"); ok {
		t.Errorf("a is upstream of the move and must not be patched")
	}

	cPatch, ok := patchFor(patches, "c")
	if !ok {
		t.Fatalf("expected patch for c")
	}
	if cPatch[models.PatchFieldOrder] != 1 || cPatch[models.PatchFieldStart] != "06:15" {
		t.Errorf("c patch = %v, want order:1 startTime:06:15", cPatch)
	}

	bPatch, ok := patchFor(patches, "b")
	if !ok {
		t.Fatalf("expected patch for b")
	}
	if bPatch[models.PatchFieldOrder] != 2 || bPatch[models.PatchFieldStart] != "06:30" {
		t.Errorf("b patch = %v, want order:2 startTime:06:30", bPatch)
	}
}

func TestReorderIdempotent(t *testing.T) {
	entries := reorderFixture()
	svc := testService()

	first := svc.Reorder(entries, primaryTrack(), testSettings(), "c", []string{"a", "c", "b"})
	applied := applyPatches(entries, first)

	second := svc.Reorder(applied, primaryTrack(), testSettings(), "c", []string{"a", "c", "b"})
	if len(second) != 0 {
		t.Fatalf("re-running the same reorder on the patched state must be empty, got %+v", second)
	}
}

func TestReorderOrderContiguity(t *testing.T) {
	entries := []models.ScheduleEntry{
		{ID: "a", Order: 3, TrackID: "primary", StartTime: "06:00", DurationMinutes: 15},
		{ID: "b", Order: 7, TrackID: "primary", StartTime: "06:15", DurationMinutes: 15},
		{ID: "c", Order: 9, TrackID: "primary", StartTime: "06:30", DurationMinutes: 15},
	}

	patches := testService().Reorder(entries, primaryTrack(), testSettings(), "b", []string{"b", "a", "c"})
	applied := applyPatches(entries, patches)

	seen := map[int]string{}
	for _, entry := range applied {
		if prev, dup := seen[entry.Order]; dup {
			t.Fatalf("duplicate order %d on %s and %s", entry.Order, prev, entry.ID)
		}
		seen[entry.Order] = entry.ID
	}
	for i := 0; i < len(applied); i++ {
		if _, ok := seen[i]; !ok {
			t.Fatalf("order values not contiguous 0..N-1: %v", seen)
		}
	}
}

func TestReorderCascadeDisabled(t *testing.T) {
	entries := reorderFixture()
	settings := testSettings()
	settings.CascadeChanges = false

	patches := testService().Reorder(entries, primaryTrack(), settings, "c", []string{"a", "c", "b"})

	for _, patch := range patches {
		if _, ok := patch.Patch[models.PatchFieldStart]; ok {
			t.Errorf("cascade disabled must not emit start-time patches: %+v", patch)
		}
	}
	if cPatch, ok := patchFor(patches, "c"); !ok || cPatch[models.PatchFieldOrder] != 1 {
		t.Errorf("order renumbering must still happen, got %v", patches)
	}
}

func TestReorderSkipsUnknownIDs(t *testing.T) {
	entries := reorderFixture()

	patches := testService().Reorder(entries, primaryTrack(), testSettings(), "c", []string{"a", "ghost", "c", "b"})
	if _, ok := patchFor(patches, "ghost"); ok {
		t.Errorf("unknown ids must be dropped, not patched")
	}
	if cPatch, ok := patchFor(patches, "c"); !ok || cPatch[models.PatchFieldOrder] != 1 {
		t.Errorf("reorder must degrade to a partial patch set, got %v", patches)
	}
}

func TestEditStartTimeCascade(t *testing.T) {
	entries := reorderFixture()

	patches := testService().EditStartTime(entries, primaryTrack(), testSettings(), "b", "07:00")

	if _, ok := patchFor(patches, "a"); ok {
		t.Errorf("a keeps both rank and time, must not be patched")
	}

	// b moves past c, so c takes rank 1 and b rank 2 with its new time.
	cPatch, ok := patchFor(patches, "c")
	if !ok || cPatch[models.PatchFieldOrder] != 1 {
		t.Errorf("c patch = %v, want order:1", cPatch)
	}
	if _, ok := cPatch[models.PatchFieldStart]; ok {
		t.Errorf("c is upstream of the edited rank and keeps its time: %v", cPatch)
	}

	bPatch, ok := patchFor(patches, "b")
	if !ok {
		t.Fatalf("expected patch for b")
	}
	if bPatch[models.PatchFieldOrder] != 2 || bPatch[models.PatchFieldStart] != "07:00" {
		t.Errorf("b patch = %v, want order:2 startTime:07:00", bPatch)
	}
}

func TestEditStartTimeInfersDuration(t *testing.T) {
	entries := []models.ScheduleEntry{
		{ID: "a", Order: 0, TrackID: "primary", StartTime: "06:00"},
		{ID: "b", Order: 1, TrackID: "primary", StartTime: "06:30", DurationMinutes: 15},
	}

	patches := testService().EditStartTime(entries, primaryTrack(), testSettings(), "a", "06:10")

	aPatch, ok := patchFor(patches, "a")
	if !ok {
		t.Fatalf("expected patch for a")
	}
	if aPatch[models.PatchFieldStart] != "06:10" {
		t.Errorf("a start = %v, want 06:10", aPatch[models.PatchFieldStart])
	}
	if aPatch[models.PatchFieldDuration] != 20 {
		t.Errorf("a duration = %v, want inferred 20 (gap to b)", aPatch[models.PatchFieldDuration])
	}
	if _, ok := patchFor(patches, "b"); ok {
		t.Errorf("b already starts where the cascade lands, must not be patched")
	}
}

func TestEditStartTimeUnparseableValue(t *testing.T) {
	entries := reorderFixture()

	patches := testService().EditStartTime(entries, primaryTrack(), testSettings(), "b", "bogus")
	if len(patches) != 1 {
		t.Fatalf("unparseable time patches only the edited field, got %+v", patches)
	}
	if patches[0].EntryID != "b" || patches[0].Patch[models.PatchFieldStart] != "bogus" {
		t.Errorf("patch = %+v, want b startTime:bogus", patches[0])
	}
}

func TestEditStartTimeAbsentEntry(t *testing.T) {
	patches := testService().EditStartTime(reorderFixture(), primaryTrack(), testSettings(), "ghost", "07:00")
	if len(patches) != 0 {
		t.Fatalf("absent edit target yields no patches, got %+v", patches)
	}
}

func TestEditDurationCascade(t *testing.T) {
	entries := reorderFixture()

	patches := testService().EditDuration(entries, primaryTrack(), testSettings(), "a", 30)

	aPatch, ok := patchFor(patches, "a")
	if !ok || aPatch[models.PatchFieldDuration] != 30 {
		t.Fatalf("a patch = %v, want duration:30", aPatch)
	}
	bPatch, _ := patchFor(patches, "b")
	if bPatch[models.PatchFieldStart] != "06:30" {
		t.Errorf("b start = %v, want 06:30", bPatch[models.PatchFieldStart])
	}
	cPatch, _ := patchFor(patches, "c")
	if cPatch[models.PatchFieldStart] != "06:45" {
		t.Errorf("c start = %v, want 06:45", cPatch[models.PatchFieldStart])
	}
}

func TestEditDurationCascadeDisabled(t *testing.T) {
	entries := reorderFixture()
	settings := testSettings()
	settings.CascadeChanges = false

	patches := testService().EditDuration(entries, primaryTrack(), settings, "a", 30)
	if len(patches) != 1 {
		t.Fatalf("duration edit without cascade patches only the edited entry, got %+v", patches)
	}
	if patches[0].Patch[models.PatchFieldDuration] != 30 {
		t.Errorf("patch = %+v, want duration:30", patches[0])
	}
}

func TestMoveBetweenTracks(t *testing.T) {
	tracks := []models.ScheduleTrack{
		{ID: models.PrimaryTrackID, Name: "Primary", Order: 0},
		{ID: "track-2", Name: "Second Unit", Order: 1},
	}
	entries := []models.ScheduleEntry{
		{ID: "a", Order: 0, TrackID: "primary", StartTime: "06:00", DurationMinutes: 15},
		{ID: "b", Order: 1, TrackID: "primary", StartTime: "06:15", DurationMinutes: 15},
		{ID: "c", Order: 0, TrackID: "track-2", StartTime: "06:00", DurationMinutes: 30},
	}

	patches := testService().MoveBetweenTracks(entries, tracks, testSettings(), "b", "primary", "track-2", 1)

	bPatch, ok := patchFor(patches, "b")
	if !ok {
		t.Fatalf("expected patch for b")
	}
	if bPatch[models.PatchFieldTrack] != "track-2" {
		t.Errorf("b trackId = %v, want track-2", bPatch[models.PatchFieldTrack])
	}
	if bPatch[models.PatchFieldOrder] != 1 {
		t.Errorf("b order = %v, want 1", bPatch[models.PatchFieldOrder])
	}
	if bPatch[models.PatchFieldStart] != "06:30" {
		t.Errorf("b start = %v, want 06:30 (after c)", bPatch[models.PatchFieldStart])
	}

	if _, ok := patchFor(patches, "a"); ok {
		t.Errorf("a is upstream of the removal point and must not be patched")
	}
	if _, ok := patchFor(patches, "c"); ok {
		t.Errorf("c is upstream of the insertion point and must not be patched")
	}
}

func TestMoveBetweenTracksIdempotent(t *testing.T) {
	tracks := []models.ScheduleTrack{
		{ID: models.PrimaryTrackID, Name: "Primary", Order: 0},
		{ID: "track-2", Name: "Second Unit", Order: 1},
	}
	entries := []models.ScheduleEntry{
		{ID: "a", Order: 0, TrackID: "primary", StartTime: "06:00", DurationMinutes: 15},
		{ID: "b", Order: 1, TrackID: "primary", StartTime: "06:15", DurationMinutes: 15},
		{ID: "c", Order: 0, TrackID: "track-2", StartTime: "06:00", DurationMinutes: 30},
	}
	svc := testService()

	first := svc.MoveBetweenTracks(entries, tracks, testSettings(), "b", "primary", "track-2", 1)
	applied := applyPatches(entries, first)

	second := svc.MoveBetweenTracks(applied, tracks, testSettings(), "b", "track-2", "track-2", 1)
	if len(second) != 0 {
		t.Fatalf("repeating the move on the patched state must be empty, got %+v", second)
	}
}

func TestMoveBannerIsNoOp(t *testing.T) {
	tracks := []models.ScheduleTrack{
		{ID: models.PrimaryTrackID, Order: 0},
		{ID: "track-2", Order: 1},
	}
	entries := []models.ScheduleEntry{
		{ID: "lunch", Order: 0, Type: models.EntryBanner, TrackID: models.SharedTrackID, StartTime: "12:00"},
	}

	patches := testService().MoveBetweenTracks(entries, tracks, testSettings(), "lunch", "primary", "track-2", 0)
	if patches != nil {
		t.Fatalf("banners cannot be moved, got %+v", patches)
	}
}

func TestMoveClampsInsertIndex(t *testing.T) {
	tracks := []models.ScheduleTrack{
		{ID: models.PrimaryTrackID, Order: 0},
		{ID: "track-2", Order: 1},
	}
	entries := []models.ScheduleEntry{
		{ID: "a", Order: 0, TrackID: "primary", StartTime: "06:00", DurationMinutes: 15},
		{ID: "c", Order: 0, TrackID: "track-2", StartTime: "06:00", DurationMinutes: 30},
	}

	patches := testService().MoveBetweenTracks(entries, tracks, testSettings(), "a", "primary", "track-2", 99)
	aPatch, ok := patchFor(patches, "a")
	if !ok || aPatch[models.PatchFieldOrder] != 1 {
		t.Fatalf("insert index must clamp to the destination length, got %v", patches)
	}
}
