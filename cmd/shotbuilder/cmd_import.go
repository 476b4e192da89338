/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ted-design/shot-builder-app-sub011/internal/events"
	"github.com/ted-design/shot-builder-app-sub011/internal/models"
	"github.com/ted-design/shot-builder-app-sub011/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import schedule fixtures",
	Long:  "Import projects, shooting days, tracks, and schedule entries from a YAML fixture file",
	RunE:  runImport,
}

var (
	importFilePath string
	importDryRun   bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFilePath, "file", "", "Path to YAML fixture file (required)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and validate the fixture without importing")
	_ = importCmd.MarkFlagRequired("file")
}

// Fixture file shape. IDs are optional; missing ones are generated.
type fixtureFile struct {
	Project fixtureProject `yaml:"project"`
	Days    []fixtureDay   `yaml:"days"`
}

type fixtureProject struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type fixtureDay struct {
	ID       string           `yaml:"id"`
	Title    string           `yaml:"title"`
	Date     string           `yaml:"date"`
	Settings *fixtureSettings `yaml:"settings"`
	Tracks   []fixtureTrack   `yaml:"tracks"`
	Entries  []fixtureEntry   `yaml:"entries"`
}

type fixtureSettings struct {
	CascadeChanges       *bool  `yaml:"cascadeChanges"`
	DayStartTime         string `yaml:"dayStartTime"`
	DefaultEntryDuration int    `yaml:"defaultEntryDuration"`
}

type fixtureTrack struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type fixtureEntry struct {
	ID                string   `yaml:"id"`
	Type              string   `yaml:"type"`
	Title             string   `yaml:"title"`
	TrackID           string   `yaml:"trackId"`
	StartTime         string   `yaml:"startTime"`
	Duration          int      `yaml:"duration"`
	AppliesToTrackIDs []string `yaml:"appliesToTrackIds"`
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	data, err := os.ReadFile(importFilePath)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	var fixture fixtureFile
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}
	if fixture.Project.Name == "" {
		return fmt.Errorf("fixture project requires a name")
	}

	entryCount := 0
	for _, day := range fixture.Days {
		entryCount += len(day.Entries)
	}

	logger.Info().
		Str("file", importFilePath).
		Str("project", fixture.Project.Name).
		Int("days", len(fixture.Days)).
		Int("entries", entryCount).
		Bool("dry_run", importDryRun).
		Msg("starting fixture import")

	if importDryRun {
		logger.Info().Msg("dry run complete, nothing imported")
		return nil
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}

	st := store.New(database, logger)
	if err := st.Migrate(); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	bus := events.NewBus()
	ctx := context.Background()

	project := models.Project{
		ID:          orNewID(fixture.Project.ID),
		Name:        fixture.Project.Name,
		Description: fixture.Project.Description,
	}
	if err := st.CreateProject(ctx, &project); err != nil {
		return fmt.Errorf("import project: %w", err)
	}

	for _, day := range fixture.Days {
		dayID, err := importDay(ctx, st, project.ID, day)
		if err != nil {
			return err
		}
		bus.Publish(events.EventDayImported, events.Payload{
			"day_id":     dayID,
			"project_id": project.ID,
		})
		logger.Info().Str("day_id", dayID).Str("title", day.Title).Msg("day imported")
	}

	logger.Info().Msg("fixture import complete")
	return nil
}

func importDay(ctx context.Context, st *store.Store, projectID string, day fixtureDay) (string, error) {
	record := models.ShootingDay{
		ID:        orNewID(day.ID),
		ProjectID: projectID,
		Title:     day.Title,
		Date:      day.Date,
	}
	if err := st.CreateDay(ctx, &record); err != nil {
		return "", fmt.Errorf("import day %q: %w", day.Title, err)
	}

	settings := models.DefaultScheduleSettings()
	settings.DayID = record.ID
	if day.Settings != nil {
		if day.Settings.CascadeChanges != nil {
			settings.CascadeChanges = *day.Settings.CascadeChanges
		}
		if day.Settings.DayStartTime != "" {
			settings.DayStartTime = day.Settings.DayStartTime
		}
		if day.Settings.DefaultEntryDuration > 0 {
			settings.DefaultEntryDurationMinutes = day.Settings.DefaultEntryDuration
		}
	}
	if err := st.SaveSettings(ctx, &settings); err != nil {
		return "", fmt.Errorf("import settings for day %q: %w", day.Title, err)
	}

	for i, track := range day.Tracks {
		trackRecord := models.ScheduleTrack{
			ID:    orNewID(track.ID),
			DayID: record.ID,
			Name:  track.Name,
			Order: i,
		}
		if err := st.UpsertTrack(ctx, &trackRecord); err != nil {
			return "", fmt.Errorf("import track %q: %w", track.Name, err)
		}
	}

	for i, entry := range day.Entries {
		entryRecord := models.ScheduleEntry{
			ID:                orNewID(entry.ID),
			DayID:             record.ID,
			Type:              models.EntryType(entry.Type),
			Title:             entry.Title,
			Order:             i,
			TrackID:           entry.TrackID,
			StartTime:         entry.StartTime,
			DurationMinutes:   entry.Duration,
			AppliesToTrackIDs: entry.AppliesToTrackIDs,
		}
		if err := st.CreateEntry(ctx, &entryRecord); err != nil {
			return "", fmt.Errorf("import entry %q: %w", entry.Title, err)
		}
	}

	return record.ID, nil
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
