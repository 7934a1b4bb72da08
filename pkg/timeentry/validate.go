package timeentry

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Validate turns raw records into entries. Records without a parseable date
// are dropped; malformed, missing or negative numbers become zero.
func Validate(raw []RawEntry) []TimeEntry {
	entries := make([]TimeEntry, 0, len(raw))
	for _, r := range raw {
		date, ok := ParseDate(r.Date)
		if !ok {
			log.Debugf("dropping time entry %d with invalid date %v", r.Id, r.Date)
			continue
		}
		entries = append(entries, TimeEntry{
			Id:          r.Id,
			ProjectId:   r.ProjectId,
			PersonId:    r.PersonId,
			Date:        date,
			Hours:       coerceAmount(r.Hours),
			BillingRate: coerceAmount(r.BillingRate),
			CostRate:    coerceAmount(r.CostRate),
			IsBillable:  r.IsBillable,
			IsLocked:    r.IsLocked,
			Workstream:  r.Workstream,
			Stage:       r.Stage,
			Description: r.Description,
		})
	}
	return entries
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns midnight UTC
// of the calendar date as written. The zero date counts as missing.
func ParseDate(v any) (time.Time, bool) {
	t, ok := parseDate(v)
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

func parseDate(v any) (time.Time, bool) {
	switch value := v.(type) {
	case time.Time:
		return dateOnly(value), true
	case string:
		s := strings.TrimSpace(value)
		if s == "" {
			return time.Time{}, false
		}
		if t, err := time.Parse(DateLayout, s); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// NormalizeDate returns the canonical YYYY-MM-DD form of s, or "" when s is
// empty or not a date.
func NormalizeDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func coerceAmount(v any) decimal.Decimal {
	var d decimal.Decimal
	switch value := v.(type) {
	case decimal.Decimal:
		d = value
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return decimal.Zero
		}
		d = decimal.NewFromFloat(value)
	case float32:
		return coerceAmount(float64(value))
	case int:
		d = decimal.NewFromInt(int64(value))
	case int64:
		d = decimal.NewFromInt(value)
	case json.Number:
		return coerceAmount(value.String())
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
