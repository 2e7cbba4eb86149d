// Package features joins labeled pairs against job metadata, experience
// aggregates, and interest data, and computes the final feature matrix.
package features

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"jobmatch-features/internal/dataset"
	"jobmatch-features/internal/embeddings"
	"jobmatch-features/internal/experience"
	"jobmatch-features/internal/features/tfidf"
	"jobmatch-features/internal/groundtruth"
)

const (
	// YearsCap bounds exp_years_total to keep outliers from dominating
	// downstream models.
	YearsCap = 40
	// RecencyCapDays bounds exp_recency_days; the no-experience sentinel
	// clips to this value.
	RecencyCapDays = 3650

	// DefaultTFIDFMaxFeatures caps the shared TF-IDF vocabulary.
	DefaultTFIDFMaxFeatures = 5000
)

// Row is one output row of the feature matrix: the pair identity, the label,
// and every derived feature. This is the pipeline's terminal artifact.
type Row struct {
	JobID       string
	ApplicantID string
	Label       int

	StateMatch            int
	CityMatch             int
	LocationMatch         int
	PositionInterestMatch int

	PositionInterestOverlap float64
	TitleSimilarityTFIDF    float64
	DescKeywordOverlap      float64

	EmbeddingSimilarity float64
	HasBothEmbeds       int

	ExpYearsTotalCapped  float64
	ExpRecencyDaysCapped float64
}

// Inputs are the immutable tables the builder joins. The builder never
// mutates them; it produces a new, independent output.
type Inputs struct {
	Pairs      []groundtruth.LabeledPair
	Jobs       []dataset.Job
	Experience map[string]experience.Aggregate
	Interests  map[string]string

	JobVectors       *embeddings.Table
	ApplicantVectors *embeddings.Table
}

// Config holds the builder's policy switches.
type Config struct {
	// DropMissingEmbeddings filters the output to rows where both vectors
	// exist. The default keeps every row with zero-filled similarity.
	DropMissingEmbeddings bool
	// TFIDFMaxFeatures caps the shared vocabulary; 0 means the default.
	TFIDFMaxFeatures int
	// Workers sets the feature-computation parallelism; 0 means NumCPU.
	// Output order is independent of it.
	Workers int
}

// Output carries the feature matrix plus the diagnostic obligations.
type Output struct {
	Rows     []Row
	Coverage embeddings.Coverage

	// DroppedMissing counts rows removed by drop-missing mode.
	DroppedMissing int
	// VocabularySize is the fitted TF-IDF vocabulary size.
	VocabularySize int
}

// Build computes one feature row per labeled pair. Join misses fill the
// documented defaults and are never fatal. Recomputing on identical inputs is
// reproducible: the TF-IDF vocabulary is re-fit deterministically and rows
// keep the input pair order.
func Build(ctx context.Context, in Inputs, cfg Config) (*Output, error) {
	jobIndex := make(map[string]dataset.Job, len(in.Jobs))
	for _, j := range in.Jobs {
		jobIndex[j.ID] = j
	}

	maxFeatures := cfg.TFIDFMaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = DefaultTFIDFMaxFeatures
	}
	titles := fitTitleVectorizer(in, maxFeatures)

	sims, coverage := embeddings.Similarities(in.Pairs, in.JobVectors, in.ApplicantVectors)

	rows := make([]Row, len(in.Pairs))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(in.Pairs) && len(in.Pairs) > 0 {
		workers = len(in.Pairs)
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	chunk := (len(in.Pairs) + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}
	for lo := 0; lo < len(in.Pairs); lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > len(in.Pairs) {
			hi = len(in.Pairs)
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				rows[i] = buildRow(in.Pairs[i], jobIndex, in, titles, sims[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Output{
		Coverage:       coverage,
		VocabularySize: titles.Size(),
	}

	if !cfg.DropMissingEmbeddings {
		out.Rows = rows
		return out, nil
	}
	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.HasBothEmbeds == 0 {
			out.DroppedMissing++
			continue
		}
		kept = append(kept, row)
	}
	out.Rows = kept
	return out, nil
}

// fitTitleVectorizer fits the shared vocabulary jointly over every job's
// Position+Title text and every applicant's concatenated historical titles.
func fitTitleVectorizer(in Inputs, maxFeatures int) *tfidf.Vectorizer {
	corpus := make([]string, 0, len(in.Jobs)+len(in.Experience))
	for _, j := range in.Jobs {
		corpus = append(corpus, jobTitleText(j))
	}
	for _, agg := range in.Experience {
		corpus = append(corpus, agg.TitlesConcat)
	}

	v := tfidf.New(Tokenize, maxFeatures)
	// An empty corpus leaves the vectorizer unfitted; every similarity is 0.
	_ = v.Fit(corpus)
	return v
}

func buildRow(pair groundtruth.LabeledPair, jobIndex map[string]dataset.Job, in Inputs, titles *tfidf.Vectorizer, sim embeddings.PairSimilarity) Row {
	// Join misses resolve to zero values: empty job fields, zero years,
	// sentinel recency, empty interest text.
	job := jobIndex[pair.JobID]
	agg, ok := in.Experience[pair.ApplicantID]
	if !ok {
		agg = experience.Aggregate{
			ApplicantID: pair.ApplicantID,
			RecencyDays: experience.RecencySentinelDays,
		}
	}
	interest := in.Interests[pair.ApplicantID]

	row := Row{
		JobID:       pair.JobID,
		ApplicantID: pair.ApplicantID,
		Label:       pair.Label,

		StateMatch:            equalFold(job.StateCode, agg.LastState),
		CityMatch:             equalFold(job.City, agg.LastCity),
		LocationMatch:         cityInText(agg.LastCity, job.Text()),
		PositionInterestMatch: equalFold(job.Position, interest),

		PositionInterestOverlap: Jaccard(TokenSet(job.Position), TokenSet(interest)),
		TitleSimilarityTFIDF:    tfidf.Cosine(titles.Vector(jobTitleText(job)), titles.Vector(agg.TitlesConcat)),
		DescKeywordOverlap:      Jaccard(TokenSet(job.Text()), TokenSet(agg.TitlesConcat)),

		EmbeddingSimilarity: sim.Similarity,

		ExpYearsTotalCapped:  clamp(agg.YearsTotal, 0, YearsCap),
		ExpRecencyDaysCapped: clamp(float64(agg.RecencyDays), 0, RecencyCapDays),
	}
	if sim.HasBoth {
		row.HasBothEmbeds = 1
	}
	return row
}

func jobTitleText(j dataset.Job) string {
	switch {
	case j.Position == "":
		return j.Title
	case j.Title == "":
		return j.Position
	default:
		return j.Position + " " + j.Title
	}
}

// equalFold compares case-insensitively after normalizing missing values to
// empty strings; empty equals empty.
func equalFold(a, b string) int {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1
	}
	return 0
}

// cityInText reports whether the applicant's last-known city appears anywhere
// in the job's full text. An unknown city never matches.
func cityInText(city, text string) int {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(text), city) {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
