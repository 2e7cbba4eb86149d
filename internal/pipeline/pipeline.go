// Package pipeline composes the batch run as an ordered list of stages over a
// shared state, with per-stage accounting.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobmatch-features/internal/dataset"
	"jobmatch-features/internal/embeddings"
	"jobmatch-features/internal/experience"
	"jobmatch-features/internal/features"
	"jobmatch-features/internal/groundtruth"
	"jobmatch-features/internal/sampling"
)

// State is the data flowing through the pipeline. Each stage reads what
// earlier stages produced and fills its own slot; nothing is mutated after it
// is set.
type State struct {
	Now time.Time

	Raw        *dataset.Raw
	Experience map[string]experience.Aggregate
	Interests  map[string]string

	Positives         []groundtruth.LabeledPair
	PositiveSet       groundtruth.Set
	GroundTruthReport groundtruth.Report

	Sampling sampling.Result

	// Pairs is the full labeled set: positives first, then negatives.
	Pairs []groundtruth.LabeledPair

	JobVectors       *embeddings.Table
	ApplicantVectors *embeddings.Table

	Features *features.Output
}

// NewState creates a run state anchored at the current wall clock. Every
// recency computation in the run uses this single timestamp.
func NewState() *State {
	return &State{Now: time.Now().UTC()}
}

// Info describes the outcome of one stage.
type Info struct {
	Produced int
	Fields   []zap.Field
}

// Stage is a single pipeline step.
type Stage interface {
	Name() string
	Run(ctx context.Context, s *State) (Info, error)
}

// Run executes the stages sequentially, logging per-stage accounting. The
// first failing stage aborts the run.
func Run(ctx context.Context, logger *zap.Logger, stages []Stage, s *State) error {
	for _, stage := range stages {
		started := time.Now()

		info, err := stage.Run(ctx, s)
		if err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		fields := []zap.Field{
			zap.String("name", stage.Name()),
			zap.Int("produced", info.Produced),
			zap.Duration("took", time.Since(started)),
		}
		fields = append(fields, info.Fields...)
		logger.Info("pipeline stage", fields...)
	}
	return nil
}
