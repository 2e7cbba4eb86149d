// Package sampling manufactures negative pairs by rejection sampling over the
// job and applicant ID universes.
package sampling

import (
	"math/rand"

	"jobmatch-features/internal/groundtruth"
)

// DefaultAttemptFactor bounds the rejection-sampling loop: the sampler gives
// up after factor × target draws and returns whatever it has accumulated.
const DefaultAttemptFactor = 10

// Config controls the negative sampler. Rand must be supplied by the caller;
// there is no process-wide generator behind this package.
type Config struct {
	NegPerPos     int
	AttemptFactor int
	Rand          *rand.Rand
}

// Result carries the sampled negatives and the draw accounting.
type Result struct {
	Negatives []groundtruth.LabeledPair
	Target    int
	Attempts  int
	Exhausted bool
}

// Sample draws (job, applicant) pairs uniformly at random, rejecting any pair
// already in the positive set or already sampled. With a dense positive set
// over a small universe the yield can be below target; callers must treat the
// result size as "up to NegPerPos × |positives|".
func Sample(jobIDs, applicantIDs []string, positives groundtruth.Set, cfg Config) Result {
	target := cfg.NegPerPos * len(positives)

	res := Result{Target: target}
	if target <= 0 || len(jobIDs) == 0 || len(applicantIDs) == 0 || cfg.Rand == nil {
		return res
	}

	factor := cfg.AttemptFactor
	if factor <= 0 {
		factor = DefaultAttemptFactor
	}
	maxAttempts := target * factor

	chosen := make(groundtruth.Set, target)
	res.Negatives = make([]groundtruth.LabeledPair, 0, target)

	for len(res.Negatives) < target && res.Attempts < maxAttempts {
		res.Attempts++

		p := groundtruth.Pair{
			JobID:       jobIDs[cfg.Rand.Intn(len(jobIDs))],
			ApplicantID: applicantIDs[cfg.Rand.Intn(len(applicantIDs))],
		}
		if positives.Contains(p) || chosen.Contains(p) {
			continue
		}

		chosen[p] = struct{}{}
		res.Negatives = append(res.Negatives, groundtruth.LabeledPair{
			JobID:       p.JobID,
			ApplicantID: p.ApplicantID,
			Label:       0,
		})
	}

	res.Exhausted = len(res.Negatives) < target
	return res
}
