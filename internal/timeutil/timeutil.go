/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package timeutil converts between free-form clock strings and minutes
// since midnight. Parsing is tolerant and never returns an error; callers
// that need to distinguish "no time" from "bad time" use ClassifyTimeInput.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinutesPerDay is the wrap-around modulus for clock arithmetic.
const MinutesPerDay = 24 * 60

var (
	re12Hour = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m?\.?\s*$`)
	re24Hour = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)
)

// ParseTimeToMinutes parses 12-hour ("6:05 AM", "6 AM", "6PM") and 24-hour
// ("06:00", "18:30") clock strings. Returns (minutes, true) on success and
// (0, false) for anything else, including out-of-range components.
func ParseTimeToMinutes(text string) (int, bool) {
	if m := re12Hour.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return 0, false
		}
		hour %= 12
		if strings.EqualFold(m[3], "p") {
			hour += 12
		}
		return hour*60 + minute, true
	}

	if m := re24Hour.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return 0, false
		}
		return hour*60 + minute, true
	}

	return 0, false
}

// MinutesToHHMM formats minutes since midnight as a zero-padded 24-hour
// string. Out-of-range values wrap modulo one day rather than erroring.
func MinutesToHHMM(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatMinutesTo12h renders minutes since midnight as a human 12-hour
// string, e.g. "6:05 AM". Values wrap modulo one day.
func FormatMinutesTo12h(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	hour := minutes / 60
	minute := minutes % 60
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}

// FormatHHMMTo12h converts any parseable clock string to the 12-hour form,
// or returns "" when the input does not parse.
func FormatHHMMTo12h(text string) string {
	minutes, ok := ParseTimeToMinutes(text)
	if !ok {
		return ""
	}
	return FormatMinutesTo12h(minutes)
}

// InputKind tags the result of ClassifyTimeInput.
type InputKind string

const (
	InputEmpty   InputKind = "empty"
	InputTime    InputKind = "time"
	InputText    InputKind = "text"
	InputInvalid InputKind = "invalid-time"
)

// ClassifiedInput is the tagged result of ClassifyTimeInput. Canonical is
// the zero-padded "HH:MM" form, set only for InputTime.
type ClassifiedInput struct {
	Kind      InputKind
	Canonical string
}

// ClassifyTimeInput decides what a user-supplied time field contains.
// With allowText set, strings carrying no time-like characters (digits,
// colon, AM/PM) classify as intentional text overrides such as "OFF".
// Time-like strings that fail validation ("24:00", "13 PM") are invalid.
func ClassifyTimeInput(text string, allowText bool) ClassifiedInput {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ClassifiedInput{Kind: InputEmpty}
	}

	if minutes, ok := ParseTimeToMinutes(trimmed); ok {
		return ClassifiedInput{Kind: InputTime, Canonical: MinutesToHHMM(minutes)}
	}

	if allowText && !looksTimeLike(trimmed) {
		return ClassifiedInput{Kind: InputText}
	}

	return ClassifiedInput{Kind: InputInvalid}
}

func looksTimeLike(text string) bool {
	for _, r := range text {
		if r >= '0' && r <= '9' || r == ':' {
			return true
		}
	}
	upper := strings.ToUpper(text)
	return strings.Contains(upper, "AM") || strings.Contains(upper, "PM")
}
