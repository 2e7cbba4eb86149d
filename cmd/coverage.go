package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"jobmatch-features/internal/dataset"
	"jobmatch-features/internal/embeddings"
	"jobmatch-features/internal/features"
	"jobmatch-features/internal/groundtruth"
	logutil "jobmatch-features/internal/logger"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Diagnose embedding coverage over the positive pair set",
	Run: func(_ *cobra.Command, _ []string) {
		coverage()
	},
}

func init() {
	rootCmd.AddCommand(coverageCmd)
}

func coverage() {
	logger, err := logutil.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if err := validateConfig(config); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	raw, err := dataset.LoadAll(dataset.Paths{
		Jobs:       config.Data.Jobs,
		Experience: config.Data.Experience,
		Views:      config.Data.Views,
		Interests:  config.Data.Interests,
	})
	if err != nil {
		logger.Fatal("loading raw tables", zap.Error(err))
	}

	opts := groundtruth.Options{}
	if config.GroundTruth != nil {
		opts.FuzzyInterestMatch = config.GroundTruth.FuzzyInterestMatch
	}
	pairs, _, report := groundtruth.Build(raw.Views, raw.Interests, raw.Jobs, opts)
	logger.Info("positive pairs built",
		zap.Int("total", report.Total),
		zap.Int("from_views", report.FromViews),
		zap.Int("from_interests", report.FromInterests),
	)

	jobVectors, err := embeddings.LoadTable(config.Embeddings.Jobs, "job", dataset.ColJobID)
	if err != nil {
		logger.Fatal("loading job embeddings", zap.Error(err))
	}
	applicantVectors, err := embeddings.LoadTable(config.Embeddings.Applicants, "applicant", dataset.ColApplicantID)
	if err != nil {
		logger.Fatal("loading applicant embeddings", zap.Error(err))
	}

	_, cov := embeddings.Similarities(pairs, jobVectors, applicantVectors)

	logger.Info("embedding coverage",
		zap.Int("pairs", cov.Pairs),
		zap.Int("have_job_vectors", jobVectors.Len()),
		zap.Int("have_applicant_vectors", applicantVectors.Len()),
		zap.Int("missing_job", cov.MissingJob),
		zap.Float64("missing_job_pct", cov.MissingJobPct()),
		zap.Int("missing_applicant", cov.MissingApplicant),
		zap.Float64("missing_applicant_pct", cov.MissingApplicantPct()),
		zap.Strings("missing_job_ids", logutil.TruncateIDs(cov.MissingJobIDs, 20)),
		zap.Strings("missing_applicant_ids", logutil.TruncateIDs(cov.MissingApplicantIDs, 20)),
	)

	// Missing job IDs that are absent from the raw jobs export point at stale
	// pairs rather than an embedding-generation gap.
	known := make(map[string]struct{}, len(raw.Jobs))
	for _, j := range raw.Jobs {
		known[j.ID] = struct{}{}
	}
	notInRaw := 0
	for _, id := range cov.MissingJobIDs {
		if _, ok := known[id]; !ok {
			notInRaw++
		}
	}
	logger.Info("missing jobs absent from raw jobs table", zap.Int("count", notInRaw))

	if config.Output != nil && config.Output.MissingJobIDs != "" {
		if err := features.WriteIDList(config.Output.MissingJobIDs, cov.MissingJobIDs); err != nil {
			logger.Warn("writing missing job ids", zap.Error(err))
		}
	}
	if config.Output != nil && config.Output.MissingApplicantIDs != "" {
		if err := features.WriteIDList(config.Output.MissingApplicantIDs, cov.MissingApplicantIDs); err != nil {
			logger.Warn("writing missing applicant ids", zap.Error(err))
		}
	}
}
