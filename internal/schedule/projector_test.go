package schedule

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
)

func testService() *Service {
	return NewService(zerolog.Nop())
}

func testSettings() models.ScheduleSettings {
	return models.ScheduleSettings{
		CascadeChanges:              true,
		DayStartTime:                "06:00",
		DefaultEntryDurationMinutes: 15,
	}
}

func primaryTrack() []models.ScheduleTrack {
	return []models.ScheduleTrack{{ID: models.PrimaryTrackID, Name: "Primary", Order: 0}}
}

func rowByID(t *testing.T, projection models.ScheduleProjection, id string) models.ProjectedScheduleRow {
	t.Helper()
	for _, row := range projection.Rows {
		if row.Entry.ID == id {
			return row
		}
	}
	t.Fatalf("row %q not found in projection", id)
	return models.ProjectedScheduleRow{}
}

func TestProjectCursorWalk(t *testing.T) {
	entries := []models.ScheduleEntry{
		{ID: "a", Order: 0, TrackID: "primary", DurationMinutes: 30},
		{ID: "b", Order: 1, TrackID: "primary"},
		{ID: "c", Order: 2, TrackID: "primary", StartTime: "08:00", DurationMinutes: 60},
		{ID: "d", Order: 3, TrackID: "primary"},
	}

	projection := testService().Project(entries, primaryTrack(), testSettings(), ModeTime)
	if len(projection.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(projection.Rows))
	}

	a := rowByID(t, projection, "a")
	if *a.StartMin != 360 || *a.EndMin != 390 || a.TimeSource != models.TimeSourceDerived {
		t.Errorf("a = [%d,%d] %s, want [360,390] derived", *a.StartMin, *a.EndMin, a.TimeSource)
	}

	b := rowByID(t, projection, "b")
	if *b.StartMin != 390 || *b.EndMin != 405 {
		t.Errorf("b = [%d,%d], want [390,405]", *b.StartMin, *b.EndMin)
	}

	c := rowByID(t, projection, "c")
	if *c.StartMin != 480 || *c.EndMin != 540 || c.TimeSource != models.TimeSourceExplicit {
		t.Errorf("c = [%d,%d] %s, want [480,540] explicit", *c.StartMin, *c.EndMin, c.TimeSource)
	}

	// Explicit entry moves the cursor; d follows c, not b.
	d := rowByID(t, projection, "d")
	if *d.StartMin != 540 || *d.EndMin != 555 {
		t.Errorf("d = [%d,%d], want [540,555]", *d.StartMin, *d.EndMin)
	}
}

func TestProjectFirstEntrySeedsAnchor(t *testing.T) {
	entries := []models.ScheduleEntry{
		{ID: "a", Order: 0, TrackID: "primary", StartTime: "09:00"},
		{ID: "b", Order: 1, TrackID: "primary"},
	}

	projection := testService().Project(entries, primaryTrack(), testSettings(), ModeTime)
	b := rowByID(t, projection, "b")
	if *b.StartMin != 555 {
		t.Errorf("b starts at %d, want 555 (09:15)", *b.StartMin)
	}
}

func TestProjectLegacyTimeFallback(t *testing.T) {
	entries := []models.ScheduleEntry{
		{ID: "a", Order: 0, TrackID: "primary", LegacyTime: "7:30 AM"},
	}

	projection := testService().Project(entries, primaryTrack(), testSettings(), ModeTime)
	a := rowByID(t, projection, "a")
	if *a.StartMin != 450 || a.TimeSource != models.TimeSourceExplicit {
		t.Errorf("a = %d %s, want 450 explicit", *a.StartMin, a.TimeSource)
	}
}

func TestProjectBanners(t *testing.T) {
	tracks := []models.ScheduleTrack{
		{ID: "t1", Name: "Unit A", Order: 0},
		{ID: "t2", Name: "Unit B", Order: 1},
	}
	entries := []models.ScheduleEntry{
		{ID: "lunch", Order: 0, Type: models.EntryBanner, TrackID: models.SharedTrackID, StartTime: "12:00", DurationMinutes: 60},
		// Set-equality with the full track set also classifies as banner.
		{ID: "wrap", Order: 1, Type: models.EntryShot, AppliesToTrackIDs: []string{"t2", "t1"}},
		{ID: "shot", Order: 2, Type: models.EntryShot, TrackID: "t1"},
	}

	projection := testService().Project(entries, tracks, testSettings(), ModeTime)

	lunch := rowByID(t, projection, "lunch")
	if !lunch.IsBanner || lunch.Applicability != models.AppliesAll {
		t.Errorf("lunch: IsBanner=%v applicability=%s, want banner/all", lunch.IsBanner, lunch.Applicability)
	}
	if *lunch.StartMin != 720 || lunch.TimeSource != models.TimeSourceExplicit {
		t.Errorf("lunch starts %d (%s), want 720 explicit", *lunch.StartMin, lunch.TimeSource)
	}

	wrap := rowByID(t, projection, "wrap")
	if !wrap.IsBanner {
		t.Errorf("wrap should classify as banner via applies-to set equality")
	}
	// Untimed banner anchors at the day start.
	if *wrap.StartMin != 360 || wrap.TimeSource != models.TimeSourceDerived {
		t.Errorf("wrap starts %d (%s), want 360 derived", *wrap.StartMin, wrap.TimeSource)
	}

	shot := rowByID(t, projection, "shot")
	if shot.IsBanner {
		t.Errorf("shot on one track must not classify as banner")
	}
}

func TestProjectSynthesizesPrimaryTrack(t *testing.T) {
	entries := []models.ScheduleEntry{
		{ID: "a", Order: 0, TrackID: "ghost-track"},
	}

	projection := testService().Project(entries, nil, testSettings(), ModeTime)
	if len(projection.Tracks) != 1 || projection.Tracks[0].ID != models.PrimaryTrackID {
		t.Fatalf("expected synthesized primary track, got %+v", projection.Tracks)
	}
	a := rowByID(t, projection, "a")
	if a.TrackID != models.PrimaryTrackID {
		t.Errorf("unknown track id resolved to %q, want primary", a.TrackID)
	}
}

func TestProjectSequenceMode(t *testing.T) {
	entries := []models.ScheduleEntry{
		{ID: "late", Order: 0, TrackID: "primary", StartTime: "15:00"},
		{ID: "early", Order: 1, TrackID: "primary", StartTime: "07:00"},
	}

	projection := testService().Project(entries, primaryTrack(), testSettings(), ModeSequence)
	if projection.Rows[0].Entry.ID != "late" || projection.Rows[1].Entry.ID != "early" {
		t.Errorf("sequence mode must order by (order, id), got %q then %q",
			projection.Rows[0].Entry.ID, projection.Rows[1].Entry.ID)
	}

	timed := testService().Project(entries, primaryTrack(), testSettings(), ModeTime)
	if timed.Rows[0].Entry.ID != "early" {
		t.Errorf("time mode must order by start, got %q first", timed.Rows[0].Entry.ID)
	}
}

func TestNormalizeSettingsDefaultsPerField(t *testing.T) {
	normalized := NormalizeSettings(models.ScheduleSettings{DayStartTime: "not a time", DefaultEntryDurationMinutes: -5})
	if normalized.DayStartTime != models.DefaultDayStartTime {
		t.Errorf("DayStartTime = %q, want %q", normalized.DayStartTime, models.DefaultDayStartTime)
	}
	if normalized.DefaultEntryDurationMinutes != models.DefaultEntryDuration {
		t.Errorf("DefaultEntryDurationMinutes = %d, want %d", normalized.DefaultEntryDurationMinutes, models.DefaultEntryDuration)
	}
}
