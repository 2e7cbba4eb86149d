package pipeline

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"jobmatch-features/internal/dataset"
	"jobmatch-features/internal/embeddings"
	"jobmatch-features/internal/experience"
	"jobmatch-features/internal/features"
	"jobmatch-features/internal/groundtruth"
	"jobmatch-features/internal/logger"
	"jobmatch-features/internal/sampling"
)

type loadStage struct {
	paths dataset.Paths
}

// NewLoad creates the stage that loads and schema-validates the raw tables.
func NewLoad(paths dataset.Paths) Stage {
	return &loadStage{paths: paths}
}

func (st *loadStage) Name() string { return "load_raw" }

func (st *loadStage) Run(_ context.Context, s *State) (Info, error) {
	raw, err := dataset.LoadAll(st.paths)
	if err != nil {
		return Info{}, err
	}
	s.Raw = raw
	s.Interests = dataset.InterestTexts(raw.Interests)

	skipped := 0
	for _, t := range raw.Tables {
		skipped += t.SkippedLines
	}

	return Info{
		Produced: len(raw.Jobs) + len(raw.Experience) + len(raw.Views) + len(raw.Interests),
		Fields: []zap.Field{
			zap.Int("jobs", len(raw.Jobs)),
			zap.Int("experience_rows", len(raw.Experience)),
			zap.Int("views", len(raw.Views)),
			zap.Int("interests", len(raw.Interests)),
			zap.Int("skipped_lines", skipped),
		},
	}, nil
}

type aggregateStage struct{}

// NewAggregate creates the experience aggregation stage.
func NewAggregate() Stage { return &aggregateStage{} }

func (st *aggregateStage) Name() string { return "aggregate_experience" }

func (st *aggregateStage) Run(_ context.Context, s *State) (Info, error) {
	if s.Raw == nil {
		return Info{}, fmt.Errorf("raw tables are not loaded")
	}
	s.Experience = experience.Build(s.Raw.Experience, s.Now)
	return Info{Produced: len(s.Experience)}, nil
}

type groundTruthStage struct {
	opts groundtruth.Options
}

// NewGroundTruth creates the positive-pair derivation stage.
func NewGroundTruth(opts groundtruth.Options) Stage {
	return &groundTruthStage{opts: opts}
}

func (st *groundTruthStage) Name() string { return "ground_truth" }

func (st *groundTruthStage) Run(_ context.Context, s *State) (Info, error) {
	if s.Raw == nil {
		return Info{}, fmt.Errorf("raw tables are not loaded")
	}

	positives, set, report := groundtruth.Build(s.Raw.Views, s.Raw.Interests, s.Raw.Jobs, st.opts)
	s.Positives = positives
	s.PositiveSet = set
	s.GroundTruthReport = report

	return Info{
		Produced: report.Total,
		Fields: []zap.Field{
			zap.Int("from_views", report.FromViews),
			zap.Int("from_interests", report.FromInterests),
			zap.Int("overlap", report.Overlap),
			zap.Int("interests_unresolved", report.InterestsUnresolved),
			zap.Bool("fuzzy_interest_match", st.opts.FuzzyInterestMatch),
		},
	}, nil
}

type negativesStage struct {
	negPerPos     int
	attemptFactor int
	seed          int64
}

// NewNegatives creates the negative-sampling stage. The seed makes the run
// reproducible; the random source is built here and never shared.
func NewNegatives(negPerPos, attemptFactor int, seed int64) Stage {
	return &negativesStage{negPerPos: negPerPos, attemptFactor: attemptFactor, seed: seed}
}

func (st *negativesStage) Name() string { return "sample_negatives" }

func (st *negativesStage) Run(_ context.Context, s *State) (Info, error) {
	if s.Raw == nil || s.PositiveSet == nil {
		return Info{}, fmt.Errorf("ground truth is not built")
	}

	jobIDs := make([]string, 0, len(s.Raw.Jobs))
	for _, j := range s.Raw.Jobs {
		if j.ID != "" {
			jobIDs = append(jobIDs, j.ID)
		}
	}
	applicantIDs := applicantUniverse(s.Raw.Experience)

	res := sampling.Sample(jobIDs, applicantIDs, s.PositiveSet, sampling.Config{
		NegPerPos:     st.negPerPos,
		AttemptFactor: st.attemptFactor,
		Rand:          rand.New(rand.NewSource(st.seed)),
	})
	s.Sampling = res

	s.Pairs = make([]groundtruth.LabeledPair, 0, len(s.Positives)+len(res.Negatives))
	s.Pairs = append(s.Pairs, s.Positives...)
	s.Pairs = append(s.Pairs, res.Negatives...)

	return Info{
		Produced: len(res.Negatives),
		Fields: []zap.Field{
			zap.Int("target", res.Target),
			zap.Int("attempts", res.Attempts),
			zap.Bool("attempt_budget_exhausted", res.Exhausted),
			zap.Int64("seed", st.seed),
		},
	}, nil
}

// applicantUniverse collects the distinct applicant IDs in experience-table
// order.
func applicantUniverse(records []dataset.Experience) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.ApplicantID == "" {
			continue
		}
		if _, ok := seen[r.ApplicantID]; ok {
			continue
		}
		seen[r.ApplicantID] = struct{}{}
		ids = append(ids, r.ApplicantID)
	}
	return ids
}

type embeddingsStage struct {
	jobsPath       string
	applicantsPath string
}

// NewEmbeddings creates the stage that loads the precomputed embedding
// tables.
func NewEmbeddings(jobsPath, applicantsPath string) Stage {
	return &embeddingsStage{jobsPath: jobsPath, applicantsPath: applicantsPath}
}

func (st *embeddingsStage) Name() string { return "load_embeddings" }

func (st *embeddingsStage) Run(_ context.Context, s *State) (Info, error) {
	jobs, err := embeddings.LoadTable(st.jobsPath, "job", dataset.ColJobID)
	if err != nil {
		return Info{}, err
	}
	applicants, err := embeddings.LoadTable(st.applicantsPath, "applicant", dataset.ColApplicantID)
	if err != nil {
		return Info{}, err
	}

	s.JobVectors = jobs
	s.ApplicantVectors = applicants

	return Info{
		Produced: jobs.Len() + applicants.Len(),
		Fields: []zap.Field{
			zap.Int("job_vectors", jobs.Len()),
			zap.Int("applicant_vectors", applicants.Len()),
			zap.Int("job_dim", jobs.Dimension()),
			zap.Int("applicant_dim", applicants.Dimension()),
			zap.Int("skipped_rows", jobs.SkippedRows+applicants.SkippedRows),
		},
	}, nil
}

type featuresStage struct {
	cfg features.Config
}

// NewFeatures creates the feature-building stage.
func NewFeatures(cfg features.Config) Stage {
	return &featuresStage{cfg: cfg}
}

func (st *featuresStage) Name() string { return "build_features" }

func (st *featuresStage) Run(ctx context.Context, s *State) (Info, error) {
	if s.Raw == nil || s.Pairs == nil {
		return Info{}, fmt.Errorf("labeled pairs are not built")
	}

	out, err := features.Build(ctx, features.Inputs{
		Pairs:            s.Pairs,
		Jobs:             s.Raw.Jobs,
		Experience:       s.Experience,
		Interests:        s.Interests,
		JobVectors:       s.JobVectors,
		ApplicantVectors: s.ApplicantVectors,
	}, st.cfg)
	if err != nil {
		return Info{}, err
	}
	s.Features = out

	return Info{
		Produced: len(out.Rows),
		Fields: []zap.Field{
			zap.Int("missing_job_embeddings", out.Coverage.MissingJob),
			zap.Int("missing_applicant_embeddings", out.Coverage.MissingApplicant),
			zap.Float64("missing_job_pct", out.Coverage.MissingJobPct()),
			zap.Float64("missing_applicant_pct", out.Coverage.MissingApplicantPct()),
			zap.Strings("missing_job_ids", logger.TruncateIDs(out.Coverage.MissingJobIDs, 10)),
			zap.Strings("missing_applicant_ids", logger.TruncateIDs(out.Coverage.MissingApplicantIDs, 10)),
			zap.Int("dropped_missing", out.DroppedMissing),
			zap.Int("tfidf_vocabulary", out.VocabularySize),
		},
	}, nil
}
