// Package groundtruth derives the labeled positive set from implicit signals:
// job views and stated interests resolved against real job titles.
package groundtruth

import (
	"strings"

	"jobmatch-features/internal/dataset"
)

// Pair identifies one (job, applicant) combination.
type Pair struct {
	JobID       string
	ApplicantID string
}

// LabeledPair is a pair with its binary match label.
type LabeledPair struct {
	JobID       string
	ApplicantID string
	Label       int
}

// Set is a membership index over pairs.
type Set map[Pair]struct{}

// Contains reports whether the pair is in the set.
func (s Set) Contains(p Pair) bool {
	_, ok := s[p]
	return ok
}

// Options control interest-to-job resolution. The default is a strict,
// case-insensitive, trimmed exact-title match; substring matching is an
// explicit opt-in.
type Options struct {
	FuzzyInterestMatch bool
}

// Report accounts for where the positives came from. Producing it is part of
// the builder contract, not optional logging.
type Report struct {
	FromViews           int
	FromInterests       int
	Overlap             int
	InterestsUnresolved int
	Total               int
}

// Build combines view-derived and interest-derived positives into one
// deduplicated positive set with label 1, preserving first-seen order.
func Build(views []dataset.View, interests []dataset.Interest, jobs []dataset.Job, opts Options) ([]LabeledPair, Set, Report) {
	var report Report

	positives := make(Set)
	ordered := make([]LabeledPair, 0, len(views))

	add := func(p Pair) bool {
		if positives.Contains(p) {
			return false
		}
		positives[p] = struct{}{}
		ordered = append(ordered, LabeledPair{JobID: p.JobID, ApplicantID: p.ApplicantID, Label: 1})
		return true
	}

	viewPairs := make(Set)
	for _, v := range views {
		if v.JobID == "" || v.ApplicantID == "" {
			continue
		}
		p := Pair{JobID: v.JobID, ApplicantID: v.ApplicantID}
		if viewPairs.Contains(p) {
			continue
		}
		viewPairs[p] = struct{}{}
		add(p)
	}
	report.FromViews = len(viewPairs)

	titles := titleIndex(jobs)
	for _, in := range interests {
		if in.ApplicantID == "" || strings.TrimSpace(in.Position) == "" {
			continue
		}
		jobID, ok := resolveTitle(titles, jobs, in.Position, opts.FuzzyInterestMatch)
		if !ok {
			// Interests without a matching job title never fabricate a
			// job reference; they are dropped and counted.
			report.InterestsUnresolved++
			continue
		}
		p := Pair{JobID: jobID, ApplicantID: in.ApplicantID}
		report.FromInterests++
		if !add(p) && viewPairs.Contains(p) {
			report.Overlap++
		}
	}

	report.Total = len(ordered)
	return ordered, positives, report
}

// titleIndex maps the normalized job title to the first job carrying it, in
// original input order.
func titleIndex(jobs []dataset.Job) map[string]string {
	index := make(map[string]string, len(jobs))
	for _, j := range jobs {
		title := normalizeTitle(j.Title)
		if title == "" || j.ID == "" {
			continue
		}
		if _, ok := index[title]; !ok {
			index[title] = j.ID
		}
	}
	return index
}

func resolveTitle(index map[string]string, jobs []dataset.Job, interest string, fuzzy bool) (string, bool) {
	want := normalizeTitle(interest)
	if want == "" {
		return "", false
	}
	if id, ok := index[want]; ok {
		return id, true
	}
	if !fuzzy {
		return "", false
	}
	// Opt-in substring resolution: the interest text must appear inside a
	// job title. First job in input order wins.
	for _, j := range jobs {
		if j.ID == "" {
			continue
		}
		if strings.Contains(normalizeTitle(j.Title), want) {
			return j.ID, true
		}
	}
	return "", false
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
