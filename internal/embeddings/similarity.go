package embeddings

import (
	"sort"

	"jobmatch-features/internal/groundtruth"
)

// PairSimilarity is the per-pair result. Similarity is exactly 0 when either
// vector is missing; HasBoth distinguishes that case from a true zero.
type PairSimilarity struct {
	Similarity float64
	HasBoth    bool
}

// Coverage accounts for embedding gaps over a pair set. It is produced
// unconditionally; data-quality diagnosis depends on it.
type Coverage struct {
	Pairs            int
	MissingJob       int
	MissingApplicant int

	// Distinct missing IDs, sorted.
	MissingJobIDs       []string
	MissingApplicantIDs []string
}

// MissingJobPct returns the percentage of pairs without a job vector.
func (c Coverage) MissingJobPct() float64 {
	if c.Pairs == 0 {
		return 0
	}
	return 100 * float64(c.MissingJob) / float64(c.Pairs)
}

// MissingApplicantPct returns the percentage of pairs without an applicant vector.
func (c Coverage) MissingApplicantPct() float64 {
	if c.Pairs == 0 {
		return 0
	}
	return 100 * float64(c.MissingApplicant) / float64(c.Pairs)
}

// Similarities computes cosine similarity for every pair against the two
// embedding tables. The output is positionally aligned with the input; no row
// is dropped here regardless of coverage. Callers running in drop-missing
// mode filter on HasBoth afterwards.
func Similarities(pairs []groundtruth.LabeledPair, jobs, applicants *Table) ([]PairSimilarity, Coverage) {
	out := make([]PairSimilarity, len(pairs))
	cov := Coverage{Pairs: len(pairs)}

	missingJobs := make(map[string]struct{})
	missingApplicants := make(map[string]struct{})

	for i, p := range pairs {
		jobVec, jobOK := jobs.Lookup(p.JobID)
		appVec, appOK := applicants.Lookup(p.ApplicantID)

		if !jobOK {
			cov.MissingJob++
			missingJobs[p.JobID] = struct{}{}
		}
		if !appOK {
			cov.MissingApplicant++
			missingApplicants[p.ApplicantID] = struct{}{}
		}

		if jobOK && appOK {
			out[i] = PairSimilarity{Similarity: Cosine(jobVec, appVec), HasBoth: true}
		}
	}

	cov.MissingJobIDs = sortedKeys(missingJobs)
	cov.MissingApplicantIDs = sortedKeys(missingApplicants)
	return out, cov
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
