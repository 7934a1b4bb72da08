package timeentry

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type GroupingDimension string

const (
	GroupByNone       GroupingDimension = "none"
	GroupByMonth      GroupingDimension = "month"
	GroupByWorkstream GroupingDimension = "workstream"
	GroupByStage      GroupingDimension = "stage"
)

const (
	AllEntriesLabel   = "All Entries"
	NoWorkstreamLabel = "No Workstream"
	NoStageLabel      = "No Stage"
)

func ParseGroupingDimension(s string) (GroupingDimension, error) {
	switch GroupingDimension(s) {
	case "", GroupByNone:
		return GroupByNone, nil
	case GroupByMonth, GroupByWorkstream, GroupByStage:
		return GroupingDimension(s), nil
	}
	return "", fmt.Errorf("%w: unknown grouping %q", ErrInvalidCriteria, s)
}

type Summary struct {
	TotalHours       decimal.Decimal
	BillableHours    decimal.Decimal
	NonBillableHours decimal.Decimal
	// TotalRevenue is hours*billingRate over billable entries only.
	TotalRevenue decimal.Decimal
}

type DateRange struct {
	Start string
	End   string
}

type OverallSummary struct {
	Summary
	LockedCount   int
	UnlockedCount int
	DateRange     *DateRange
}

type Group struct {
	Name    string
	Entries []TimeEntry
	Summary Summary
}

type Report struct {
	Groups  []Group
	Overall *OverallSummary
}

func Summarize(entries []TimeEntry) Summary {
	s := Summary{
		TotalHours:       decimal.Zero,
		BillableHours:    decimal.Zero,
		NonBillableHours: decimal.Zero,
		TotalRevenue:     decimal.Zero,
	}
	for _, e := range entries {
		s.TotalHours = s.TotalHours.Add(e.Hours)
		if e.IsBillable {
			s.BillableHours = s.BillableHours.Add(e.Hours)
			s.TotalRevenue = s.TotalRevenue.Add(e.Revenue())
		} else {
			s.NonBillableHours = s.NonBillableHours.Add(e.Hours)
		}
	}
	return s
}

// SummarizeOverall returns nil for an empty set.
func SummarizeOverall(entries []TimeEntry) *OverallSummary {
	if len(entries) == 0 {
		return nil
	}
	overall := &OverallSummary{Summary: Summarize(entries)}
	dateRange := DateRange{Start: entries[0].DateKey(), End: entries[0].DateKey()}
	for _, e := range entries {
		if e.IsLocked {
			overall.LockedCount++
		} else {
			overall.UnlockedCount++
		}
		key := e.DateKey()
		if key < dateRange.Start {
			dateRange.Start = key
		}
		if key > dateRange.End {
			dateRange.End = key
		}
	}
	overall.DateRange = &dateRange
	return overall
}

// GroupEntries partitions entries along dim. Entries inside every group are
// ordered by date descending, ties by id ascending. Month groups are ordered
// newest first, workstream and stage groups alphabetically.
func GroupEntries(entries []TimeEntry, dim GroupingDimension) []Group {
	if len(entries) == 0 {
		return []Group{}
	}

	switch dim {
	case GroupByMonth:
		return groupByMonth(entries)
	case GroupByWorkstream:
		return groupByLabel(entries, func(e TimeEntry) string { return e.Workstream }, NoWorkstreamLabel)
	case GroupByStage:
		return groupByLabel(entries, func(e TimeEntry) string { return e.Stage }, NoStageLabel)
	default:
		sorted := sortedByDate(entries)
		return []Group{{Name: AllEntriesLabel, Entries: sorted, Summary: Summarize(sorted)}}
	}
}

func groupByMonth(entries []TimeEntry) []Group {
	buckets := make(map[string][]TimeEntry)
	labels := make(map[string]string)
	for _, e := range entries {
		if e.Date.IsZero() {
			log.Warnf("time entry %d has no resolvable month, skipping", e.Id)
			continue
		}
		key := e.Date.Format("2006-01")
		buckets[key] = append(buckets[key], e)
		labels[key] = fmt.Sprintf("%s %d", e.Date.Month(), e.Date.Year())
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		sorted := sortedByDate(buckets[k])
		groups = append(groups, Group{Name: labels[k], Entries: sorted, Summary: Summarize(sorted)})
	}
	return groups
}

func groupByLabel(entries []TimeEntry, label func(TimeEntry) string, fallback string) []Group {
	buckets := make(map[string][]TimeEntry)
	for _, e := range entries {
		name := label(e)
		if name == "" {
			name = fallback
		}
		buckets[name] = append(buckets[name], e)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		sorted := sortedByDate(buckets[name])
		groups = append(groups, Group{Name: name, Entries: sorted, Summary: Summarize(sorted)})
	}
	return groups
}

func sortedByDate(entries []TimeEntry) []TimeEntry {
	sorted := make([]TimeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].Id < sorted[j].Id
	})
	return sorted
}

// BuildReport filters already validated entries and groups them. An empty
// result has no groups and a nil overall summary.
func BuildReport(entries []TimeEntry, criteria FilterCriteria, dim GroupingDimension) Report {
	filtered := Filter(entries, criteria)
	return Report{
		Groups:  GroupEntries(filtered, dim),
		Overall: SummarizeOverall(filtered),
	}
}

// BuildReportFromRaw runs the full validate, filter and group pipeline.
func BuildReportFromRaw(raw []RawEntry, criteria FilterCriteria, dim GroupingDimension) Report {
	return BuildReport(Validate(raw), criteria, dim)
}
