/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store is the persistence collaborator of the timeline engine.
// The engine proposes patches; this package merges them into stored
// entries and stamps update metadata. No scheduling logic lives here.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
)

// ErrNotFound reports a missing row.
var ErrNotFound = errors.New("not found")

// Store wraps the database for schedule documents.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a store.
func New(database *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     database,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.Project{},
		&models.ShootingDay{},
		&models.ScheduleTrack{},
		&models.ScheduleEntry{},
		&models.ScheduleSettings{},
	)
}

// DaySnapshot bundles everything the engine reads for one shooting day.
type DaySnapshot struct {
	Entries  []models.ScheduleEntry
	Tracks   []models.ScheduleTrack
	Settings models.ScheduleSettings
}

// DaySnapshot loads a day's entries, tracks, and settings. Missing
// settings default rather than fail.
func (s *Store) DaySnapshot(ctx context.Context, dayID string) (*DaySnapshot, error) {
	snapshot := &DaySnapshot{}

	if err := s.db.WithContext(ctx).
		Where("day_id = ?", dayID).
		Order("sort_order ASC, id ASC").
		Find(&snapshot.Entries).Error; err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Where("day_id = ?", dayID).
		Order("sort_order ASC, id ASC").
		Find(&snapshot.Tracks).Error; err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}

	err := s.db.WithContext(ctx).Where("day_id = ?", dayID).First(&snapshot.Settings).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		snapshot.Settings = models.DefaultScheduleSettings()
		snapshot.Settings.DayID = dayID
	case err != nil:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return snapshot, nil
}

// FindEntry loads one entry by id.
func (s *Store) FindEntry(ctx context.Context, entryID string) (models.ScheduleEntry, error) {
	var entry models.ScheduleEntry
	err := s.db.WithContext(ctx).First(&entry, "id = ?", entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entry, ErrNotFound
	}
	if err != nil {
		return entry, fmt.Errorf("load entry: %w", err)
	}
	return entry, nil
}

// CreateEntry inserts a new entry.
func (s *Store) CreateEntry(ctx context.Context, entry *models.ScheduleEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// DeleteEntry removes an entry by id.
func (s *Store) DeleteEntry(ctx context.Context, entryID string) error {
	return s.db.WithContext(ctx).Delete(&models.ScheduleEntry{}, "id = ?", entryID).Error
}

// UpsertTrack writes a track row.
func (s *Store) UpsertTrack(ctx context.Context, track *models.ScheduleTrack) error {
	return s.db.WithContext(ctx).Save(track).Error
}

// SaveSettings writes a day's settings row.
func (s *Store) SaveSettings(ctx context.Context, settings *models.ScheduleSettings) error {
	return s.db.WithContext(ctx).Save(settings).Error
}

// CreateProject inserts a project.
func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	return s.db.WithContext(ctx).Create(project).Error
}

// CreateDay inserts a shooting day.
func (s *Store) CreateDay(ctx context.Context, day *models.ShootingDay) error {
	return s.db.WithContext(ctx).Create(day).Error
}

// ListDays returns a project's shooting days.
func (s *Store) ListDays(ctx context.Context, projectID string) ([]models.ShootingDay, error) {
	var days []models.ShootingDay
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("date ASC, id ASC").
		Find(&days).Error
	return days, err
}

// ApplyPatches merges a patch set into stored entries in one transaction.
// Unknown entry ids are skipped; unknown fields are ignored. UpdatedAt is
// stamped by the ORM on save.
func (s *Store) ApplyPatches(ctx context.Context, patches []models.EntryPatch) error {
	if len(patches) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, patch := range patches {
			var entry models.ScheduleEntry
			err := tx.First(&entry, "id = ?", patch.EntryID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Warn().Str("entry_id", patch.EntryID).Msg("patch targets unknown entry, skipping")
				continue
			}
			if err != nil {
				return err
			}

			applyPatchFields(&entry, patch.Patch)
			if err := tx.Save(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply patches: %w", err)
	}

	s.logger.Debug().Int("patches", len(patches)).Msg("patch set applied")
	return nil
}

func applyPatchFields(entry *models.ScheduleEntry, fields map[string]any) {
	for field, value := range fields {
		switch field {
		case models.PatchFieldOrder:
			if n, ok := asInt(value); ok {
				entry.Order = n
			}
		case models.PatchFieldStart:
			if text, ok := value.(string); ok {
				entry.StartTime = text
			}
		case models.PatchFieldDuration:
			if n, ok := asInt(value); ok {
				entry.DurationMinutes = n
			}
		case models.PatchFieldTrack:
			if text, ok := value.(string); ok {
				entry.TrackID = text
			}
		}
	}
}

// asInt tolerates the numeric types a patch value can arrive as after a
// JSON round trip.
func asInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int32:
		return int(val), true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	}
	return 0, false
}
