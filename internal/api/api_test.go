package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ted-design/shot-builder-app-sub011/internal/events"
	"github.com/ted-design/shot-builder-app-sub011/internal/models"
	"github.com/ted-design/shot-builder-app-sub011/internal/schedule"
	"github.com/ted-design/shot-builder-app-sub011/internal/store"
	"github.com/ted-design/shot-builder-app-sub011/internal/trust"
)

func newTestAPI(t *testing.T) (*store.Store, chi.Router) {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	st := store.New(database, zerolog.Nop())
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a := New(st, schedule.NewService(zerolog.Nop()), trust.NewService(zerolog.Nop()), nil, events.NewBus(), zerolog.Nop())
	router := chi.NewRouter()
	a.Routes(router)
	return st, router
}

func seedDay(t *testing.T, st *store.Store, dayID string) {
	t.Helper()
	ctx := context.Background()

	for i, track := range []models.ScheduleTrack{
		{ID: "primary", DayID: dayID, Name: "Primary"},
		{ID: "track-2", DayID: dayID, Name: "Second Unit"},
	} {
		track.Order = i
		record := track
		if err := st.UpsertTrack(ctx, &record); err != nil {
			t.Fatalf("seed track: %v", err)
		}
	}

	for _, entry := range []models.ScheduleEntry{
		{ID: "a", DayID: dayID, Type: models.EntryShot, Title: "Opening", Order: 0, TrackID: "primary", StartTime: "06:00", DurationMinutes: 15},
		{ID: "b", DayID: dayID, Type: models.EntryShot, Title: "Coverage", Order: 1, TrackID: "primary", StartTime: "06:15", DurationMinutes: 15},
		{ID: "c", DayID: dayID, Type: models.EntryShot, Title: "Establishing", Order: 2, TrackID: "primary", StartTime: "06:30", DurationMinutes: 15},
	} {
		record := entry
		if err := st.CreateEntry(ctx, &record); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandleScheduleGet(t *testing.T) {
	st, router := newTestAPI(t)
	seedDay(t, st, "day-1")

	rr := doJSON(t, router, http.MethodGet, "/api/v1/days/day-1/schedule", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	var projection models.ScheduleProjection
	if err := json.NewDecoder(rr.Body).Decode(&projection); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(projection.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(projection.Rows))
	}
	first := projection.Rows[0]
	if first.Entry.ID != "a" || first.StartMin == nil || *first.StartMin != 360 {
		t.Errorf("first row = %+v, want a at 360", first)
	}
}

func TestHandleEntriesReorder(t *testing.T) {
	st, router := newTestAPI(t)
	seedDay(t, st, "day-1")

	rr := doJSON(t, router, http.MethodPost, "/api/v1/days/day-1/entries/reorder", map[string]any{
		"movedEntryId": "c",
		"orderedIds":   []string{"a", "c", "b"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Patches []models.EntryPatch `json:"patches"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Patches) != 2 {
		t.Fatalf("expected patches for c and b, got %+v", resp.Patches)
	}

	// Patches were applied, not just proposed.
	c, err := st.FindEntry(context.Background(), "c")
	if err != nil {
		t.Fatalf("find c: %v", err)
	}
	if c.Order != 1 || c.StartTime != "06:15" {
		t.Errorf("c after reorder = order %d start %s, want 1 / 06:15", c.Order, c.StartTime)
	}
}

func TestHandleEntryEditStartTime(t *testing.T) {
	st, router := newTestAPI(t)
	seedDay(t, st, "day-1")

	rr := doJSON(t, router, http.MethodPatch, "/api/v1/entries/b/start-time", map[string]string{"startTime": "07:00"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	b, err := st.FindEntry(context.Background(), "b")
	if err != nil {
		t.Fatalf("find b: %v", err)
	}
	if b.StartTime != "07:00" || b.Order != 2 {
		t.Errorf("b = start %s order %d, want 07:00 / 2", b.StartTime, b.Order)
	}
}

func TestHandleEntryMove(t *testing.T) {
	st, router := newTestAPI(t)
	seedDay(t, st, "day-1")

	rr := doJSON(t, router, http.MethodPost, "/api/v1/entries/b/move", map[string]any{
		"fromTrackId": "primary",
		"toTrackId":   "track-2",
		"insertIndex": 0,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	b, err := st.FindEntry(context.Background(), "b")
	if err != nil {
		t.Fatalf("find b: %v", err)
	}
	if b.TrackID != "track-2" {
		t.Errorf("b track = %s, want track-2", b.TrackID)
	}
}

func TestHandleEntryCreate(t *testing.T) {
	st, router := newTestAPI(t)
	seedDay(t, st, "day-1")

	rr := doJSON(t, router, http.MethodPost, "/api/v1/days/day-1/entries", map[string]any{
		"type":      "break",
		"title":     "Lunch",
		"trackId":   "primary",
		"startTime": "12:00 pm",
		"duration":  60,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	var created models.ScheduleEntry
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("created entry missing id")
	}
	if created.StartTime != "12:00" {
		t.Errorf("start time not canonicalized: %q", created.StartTime)
	}
	if created.Order != 3 {
		t.Errorf("new entry order = %d, want appended at 3", created.Order)
	}

	if _, err := st.FindEntry(context.Background(), created.ID); err != nil {
		t.Fatalf("created entry not persisted: %v", err)
	}
}

func TestHandleEntryCreateRejectsBadInput(t *testing.T) {
	_, router := newTestAPI(t)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/days/day-1/entries", map[string]any{"type": "song"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid type: status = %d, want 400", rr.Code)
	}

	rr = doJSON(t, router, http.MethodPost, "/api/v1/days/day-1/entries", map[string]any{"type": "shot", "startTime": "25:00"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid time: status = %d, want 400", rr.Code)
	}
}

func TestHandleConflictsAndWarnings(t *testing.T) {
	st, router := newTestAPI(t)
	ctx := context.Background()

	track := models.ScheduleTrack{ID: "primary", DayID: "day-1", Name: "Primary"}
	if err := st.UpsertTrack(ctx, &track); err != nil {
		t.Fatalf("seed track: %v", err)
	}
	for _, entry := range []models.ScheduleEntry{
		{ID: "A", DayID: "day-1", Type: models.EntryShot, Title: "Master", Order: 0, TrackID: "primary", StartTime: "09:00", DurationMinutes: 60},
		{ID: "B", DayID: "day-1", Type: models.EntryShot, Title: "Pickup", Order: 1, TrackID: "primary", StartTime: "09:30", DurationMinutes: 15},
	} {
		record := entry
		if err := st.CreateEntry(ctx, &record); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	rr := doJSON(t, router, http.MethodGet, "/api/v1/days/day-1/conflicts", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var conflictResp struct {
		Conflicts []models.TrackOverlapConflict `json:"conflicts"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&conflictResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(conflictResp.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %+v", conflictResp.Conflicts)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/days/day-1/warnings", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var warningResp struct {
		Warnings []trust.Warning `json:"warnings"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&warningResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(warningResp.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %+v", warningResp.Warnings)
	}
}

func TestHandleLayoutGet(t *testing.T) {
	st, router := newTestAPI(t)
	seedDay(t, st, "day-1")

	rr := doJSON(t, router, http.MethodGet, "/api/v1/days/day-1/layout", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	var built models.AdaptiveLayout
	if err := json.NewDecoder(rr.Body).Decode(&built); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Three back-to-back 15-minute entries merge into one block.
	if len(built.Segments) != 1 || built.Segments[0].Kind != models.SegmentBlock {
		t.Fatalf("segments = %+v, want one block", built.Segments)
	}
	if built.Segments[0].StartMin != 360 || built.Segments[0].EndMin != 405 {
		t.Errorf("block = [%d,%d], want [360,405]", built.Segments[0].StartMin, built.Segments[0].EndMin)
	}
}

func TestHandleEntryNotFound(t *testing.T) {
	_, router := newTestAPI(t)

	rr := doJSON(t, router, http.MethodPatch, "/api/v1/entries/ghost/start-time", map[string]string{"startTime": "07:00"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
