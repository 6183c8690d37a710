// Package timeutil provides the pure time arithmetic the rest of the
// scheduling core builds on: conversion between "HH:MM" strings and minute
// offsets, quarter-hour alignment, and duration arithmetic (spec §4.1).
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// InvalidMinutes is the sentinel TimeToMinutes returns on malformed input.
// Callers filter it rather than propagating an error, per spec §4.1.
const InvalidMinutes = -1

// TimeToMinutes parses "HH:MM" or "HHhMM" into minutes since midnight
// (0-1439), or InvalidMinutes if raw is not well-formed.
func TimeToMinutes(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return InvalidMinutes
	}

	sep := ":"
	if !strings.Contains(raw, sep) {
		sep = "h"
	}
	parts := strings.SplitN(raw, sep, 2)
	if len(parts) != 2 {
		return InvalidMinutes
	}

	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return InvalidMinutes
	}
	minutePart := strings.TrimSpace(parts[1])
	if minutePart == "" {
		minutePart = "0"
	}
	minutes, err := strconv.Atoi(minutePart)
	if err != nil {
		return InvalidMinutes
	}

	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return InvalidMinutes
	}

	total := hours*60 + minutes
	if total < 0 || total > 1439 {
		return InvalidMinutes
	}
	return total
}

// MinutesToTime renders minutes since midnight as a zero-padded "HH:MM".
// Out-of-range input is clamped into [0, 1439] rather than erroring, since
// callers only ever feed it values this package itself produced.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m > 1439 {
		m = 1439
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AlignToQuarter rounds m to the nearest multiple of 15.
func AlignToQuarter(m int) int {
	return ((m + 7) / 15) * 15
}

// RoundDurationToQuarter rounds a duration to the nearest quarter hour,
// with a 15-minute floor.
func RoundDurationToQuarter(m int) int {
	rounded := ((m + 7) / 15) * 15
	if rounded < 15 {
		return 15
	}
	return rounded
}

// TimesOverlap reports whether half-open intervals [s1,e1) and [s2,e2)
// intersect. Symmetric in (s1,e1) and (s2,e2).
func TimesOverlap(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// CalculateDuration returns the span between start and end in hours.
func CalculateDuration(start, end int) float64 {
	return float64(end-start) / 60.0
}
