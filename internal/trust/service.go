/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package trust turns raw conflict reports into the human-readable
// warnings surfaced on the schedule review screen.
package trust

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
	"github.com/ted-design/shot-builder-app-sub011/internal/timeutil"
)

// Severity grades a warning.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Warning is one formatted trust warning.
type Warning struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	TrackID  string   `json:"trackId"`
	EntryIDs []string `json:"entryIds"`
}

// Service formats conflict reports. It consumes the conflict detector's
// output and never inspects schedule entries itself.
type Service struct {
	logger zerolog.Logger
}

// NewService creates the trust warning formatter.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		logger: logger.With().Str("component", "trust_warnings").Logger(),
	}
}

// Warnings renders one warning per overlap conflict. Messages are written
// for schedule coordinators, not engineers: they name both entries, their
// times, and what to do about it.
func (s *Service) Warnings(conflicts []models.TrackOverlapConflict) []Warning {
	warnings := make([]Warning, 0, len(conflicts))
	for _, conflict := range conflicts {
		overlap := conflict.EndAMin - conflict.StartBMin
		if over := conflict.EndBMin - conflict.StartBMin; overlap > over {
			overlap = over
		}
		if overlap < 0 {
			overlap = 0
		}

		warnings = append(warnings, Warning{
			Severity: SeverityError,
			TrackID:  conflict.TrackID,
			EntryIDs: []string{conflict.EntryAID, conflict.EntryBID},
			Message: fmt.Sprintf(
				"%q (%s–%s) overlaps %q (starts %s) on %s by %d minutes. Move or shorten one of them so only one runs at a time.",
				titleOrFallback(conflict.EntryATitle),
				timeutil.MinutesToHHMM(conflict.StartAMin),
				timeutil.MinutesToHHMM(conflict.EndAMin),
				titleOrFallback(conflict.EntryBTitle),
				timeutil.MinutesToHHMM(conflict.StartBMin),
				trackLabel(conflict),
				overlap,
			),
		})
	}

	if len(warnings) > 0 {
		s.logger.Debug().Int("warnings", len(warnings)).Msg("trust warnings generated")
	}
	return warnings
}

func titleOrFallback(title string) string {
	if title != "" {
		return title
	}
	return "Untitled entry"
}

func trackLabel(conflict models.TrackOverlapConflict) string {
	if conflict.TrackName != "" {
		return conflict.TrackName
	}
	return conflict.TrackID
}
