package domain

import (
	"fmt"
	"strings"
	"time"
)

// parseStrategy is one entry in the ordered timestamp parse table.
type parseStrategy struct {
	name   string
	layout string
}

// parseStrategies is tried in order; the first successful parse wins. The
// order matters: zone-aware layouts come first so an explicit offset is never
// shadowed by a looser layout, and date-only forms come last. Layouts without
// a zone are interpreted as UTC (time.Parse's default). US month-first slash
// dates are ahead of the bare-date form so "04/26/2024 15:00" never parses as
// date-only garbage.
var parseStrategies = []parseStrategy{
	{"rfc3339-nano", time.RFC3339Nano},
	{"rfc3339", time.RFC3339},
	{"iso-seconds", "2006-01-02T15:04:05"},
	{"iso-minutes", "2006-01-02T15:04"},
	{"datetime-seconds", "2006-01-02 15:04:05"},
	{"datetime-minutes", "2006-01-02 15:04"},
	{"day-month-name", "02 Jan 2006 15:04"},
	{"us-slash-seconds", "01/02/2006 15:04:05"},
	{"us-slash-minutes", "01/02/2006 15:04"},
	{"us-slash-date", "01/02/2006"},
	{"date-only", "2006-01-02"},
}

// NormalizeTimestamp parses free-form timestamp text into a UTC instant.
// Deterministic: the same input always yields the same instant or the same
// ErrInvalidTimestamp. Date-only inputs default to midnight UTC. Normalizing
// an already-canonical UTC ISO string returns the same instant.
func NormalizeTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}

	for _, strat := range parseStrategies {
		t, err := time.Parse(strat.layout, s)
		if err != nil {
			continue
		}
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// TargetHour floors a UTC instant to the hour. The weather APIs serve hourly
// series, so this is the instant enrichment actually asks them for.
func TargetHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
