// Package experience collapses per-applicant employment history into one
// summary row per applicant.
package experience

import (
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"jobmatch-features/internal/dataset"
)

// RecencySentinelDays marks applicants without a single parsable date.
const RecencySentinelDays = 9999

// dateLayouts are tried in order before falling back to a lenient parse.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
}

// Aggregate is the one-row summary of an applicant's employment history.
type Aggregate struct {
	ApplicantID  string
	YearsTotal   float64
	LastCity     string
	LastState    string
	LastPosition string
	RecencyDays  int
	TitlesConcat string
}

// ParseDate attempts the fixed layout list, then a lenient generic parse.
// The second return value is false when the value is missing or unparsable.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// record is one experience row with parsed dates.
type record struct {
	raw      dataset.Experience
	start    time.Time
	hasStart bool
	end      time.Time
	hasEnd   bool
	current  bool
}

// effectiveEnd treats a current position as ending now. The second return
// value is false when the record carries no date evidence at all.
func (r record) effectiveEnd(now time.Time) (time.Time, bool) {
	if r.hasEnd {
		return r.end, true
	}
	if r.hasStart {
		// Missing end with a known start means the position is ongoing.
		return now, true
	}
	return time.Time{}, false
}

// years returns the duration of the record in years, never negative. A record
// with an unknown start contributes nothing.
func (r record) years(now time.Time) float64 {
	if !r.hasStart {
		return 0
	}
	end, ok := r.effectiveEnd(now)
	if !ok {
		return 0
	}
	days := end.Sub(r.start).Hours() / 24
	years := days / 365.25
	if years < 0 {
		return 0
	}
	return years
}

// Build aggregates the raw experience table into exactly one Aggregate per
// distinct applicant present in the input. Applicants without experience rows
// are absent; the feature builder fills the documented defaults on join miss.
func Build(records []dataset.Experience, now time.Time) map[string]Aggregate {
	grouped := make(map[string][]record)
	order := make([]string, 0)

	for _, raw := range records {
		if raw.ApplicantID == "" {
			continue
		}
		start, hasStart := ParseDate(raw.StartDate)
		end, hasEnd := ParseDate(raw.EndDate)
		r := record{
			raw:      raw,
			start:    start,
			hasStart: hasStart,
			end:      end,
			hasEnd:   hasEnd,
			current:  !hasEnd && hasStart,
		}
		if _, ok := grouped[raw.ApplicantID]; !ok {
			order = append(order, raw.ApplicantID)
		}
		grouped[raw.ApplicantID] = append(grouped[raw.ApplicantID], r)
	}

	out := make(map[string]Aggregate, len(grouped))
	for _, id := range order {
		out[id] = aggregate(id, grouped[id], now)
	}
	return out
}

func aggregate(id string, records []record, now time.Time) Aggregate {
	agg := Aggregate{ApplicantID: id, RecencyDays: RecencySentinelDays}

	titles := make(map[string]struct{})
	var (
		best    *record
		bestEnd time.Time
	)

	for i := range records {
		r := &records[i]
		agg.YearsTotal += r.years(now)

		if r.raw.PositionName != "" {
			titles[r.raw.PositionName] = struct{}{}
		}

		end, ok := r.effectiveEnd(now)
		if !ok {
			continue
		}
		// A current position wins over any dated end on equal footing;
		// otherwise the first record in original row order keeps ties.
		if best == nil || end.After(bestEnd) || (end.Equal(bestEnd) && r.current && !best.current) {
			best = r
			bestEnd = end
		}
	}

	if best == nil && len(records) > 0 {
		// No date evidence anywhere: recency keeps the sentinel, the
		// location and position fields fall back to the first row.
		first := records[0]
		agg.LastCity = first.raw.City
		agg.LastState = first.raw.StateCode
		agg.LastPosition = first.raw.PositionName
	}

	if best != nil {
		agg.LastCity = best.raw.City
		agg.LastState = best.raw.StateCode
		agg.LastPosition = best.raw.PositionName

		recency := int(now.Sub(bestEnd).Hours() / 24)
		if recency < 0 {
			recency = 0
		}
		agg.RecencyDays = recency
	}

	sorted := make([]string, 0, len(titles))
	for title := range titles {
		sorted = append(sorted, title)
	}
	sort.Strings(sorted)
	agg.TitlesConcat = strings.Join(sorted, " ")

	return agg
}
