package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"jobmatch-features/internal/dataset"
	"jobmatch-features/internal/features"
	"jobmatch-features/internal/groundtruth"
	"jobmatch-features/internal/logger"
	"jobmatch-features/internal/pipeline"
	"jobmatch-features/internal/store"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full feature pipeline and write the feature matrix",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-aprove", "y", false, "do not ask for confirmation before overwriting the output file")
	runCmd.Flags().Int64("seed", 0, "random seed for the negative sampler (overrides config)")
	runCmd.Flags().Int("neg-per-pos", 0, "negatives per positive pair (overrides config)")
	runCmd.Flags().Bool("drop-missing", false, "keep only rows where both embeddings exist")
	runCmd.Flags().Bool("fuzzy-interests", false, "resolve interests to job titles by substring instead of exact match")

	viper.BindPFlag("sampling.seed", runCmd.Flags().Lookup("seed"))
	viper.BindPFlag("sampling.neg-per-pos", runCmd.Flags().Lookup("neg-per-pos"))
	viper.BindPFlag("features.drop-missing-embeddings", runCmd.Flags().Lookup("drop-missing"))
	viper.BindPFlag("ground-truth.fuzzy-interest-match", runCmd.Flags().Lookup("fuzzy-interests"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobmatch-features pipeline", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if err := validateConfig(config); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	outPath := config.Output.Features
	if !confirmOverwrite(cmd, outPath) {
		logger.Info("exiting", zap.String("reason", "overwrite declined"))
		return
	}

	state := pipeline.NewState()
	stages := prepareStages(config)

	if err := pipeline.Run(ctx, logger, stages, state); err != nil {
		logger.Fatal("pipeline failed", zap.Error(err))
	}

	if err := features.WriteCSV(outPath, state.Features.Rows); err != nil {
		logger.Fatal("writing feature matrix", zap.Error(err))
	}
	logger.Info("feature matrix written",
		zap.String("path", outPath),
		zap.Int("rows", len(state.Features.Rows)),
	)

	writeSideOutputs(logger, config, state)

	if config.Output.Store != "" {
		if err := saveToStore(ctx, config.Output.Store, state.Features.Rows); err != nil {
			logger.Fatal("saving features to store", zap.Error(err))
		}
		logger.Info("feature matrix stored",
			zap.String("path", config.Output.Store),
			zap.Int("rows", len(state.Features.Rows)),
		)
	}
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is required")
	}
	if config.Data == nil {
		return fmt.Errorf("data section with the raw table paths is required")
	}
	missing := []string{}
	for name, path := range map[string]string{
		"data.jobs":       config.Data.Jobs,
		"data.experience": config.Data.Experience,
		"data.views":      config.Data.Views,
		"data.interests":  config.Data.Interests,
	} {
		if path == "" {
			missing = append(missing, name)
		}
	}
	if config.Embeddings == nil || config.Embeddings.Jobs == "" {
		missing = append(missing, "embeddings.jobs")
	}
	if config.Embeddings == nil || config.Embeddings.Applicants == "" {
		missing = append(missing, "embeddings.applicants")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config keys: %v", missing)
	}
	return nil
}

func prepareStages(config *Config) []pipeline.Stage {
	samplingCfg := config.Sampling
	if samplingCfg == nil {
		samplingCfg = &SamplingConfig{
			NegPerPos:     viper.GetInt("sampling.neg-per-pos"),
			AttemptFactor: viper.GetInt("sampling.attempt-factor"),
			Seed:          viper.GetInt64("sampling.seed"),
		}
	}

	opts := groundtruth.Options{}
	if config.GroundTruth != nil {
		opts.FuzzyInterestMatch = config.GroundTruth.FuzzyInterestMatch
	}

	featCfg := features.Config{}
	if config.Features != nil {
		featCfg.DropMissingEmbeddings = config.Features.DropMissingEmbeddings
		featCfg.TFIDFMaxFeatures = config.Features.TFIDFMaxFeatures
		featCfg.Workers = config.Features.Workers
	}

	return []pipeline.Stage{
		pipeline.NewLoad(dataset.Paths{
			Jobs:       config.Data.Jobs,
			Experience: config.Data.Experience,
			Views:      config.Data.Views,
			Interests:  config.Data.Interests,
		}),
		pipeline.NewAggregate(),
		pipeline.NewGroundTruth(opts),
		pipeline.NewNegatives(samplingCfg.NegPerPos, samplingCfg.AttemptFactor, samplingCfg.Seed),
		pipeline.NewEmbeddings(config.Embeddings.Jobs, config.Embeddings.Applicants),
		pipeline.NewFeatures(featCfg),
	}
}

func confirmOverwrite(cmd *cobra.Command, path string) bool {
	if cmd.Flag("auto-aprove").Value.String() == "true" {
		return true
	}
	if _, err := os.Stat(path); err != nil {
		return true
	}

	prompt := promptui.Select{
		Label: fmt.Sprintf("Output file %s exists, overwrite?", path),
		Items: []string{PromptYes, PromptNo},
	}
	_, answer, err := prompt.Run()
	if err != nil {
		return false
	}
	return answer == PromptYes
}

func writeSideOutputs(logger *zap.Logger, config *Config, state *pipeline.State) {
	if config.Output.MissingJobIDs != "" {
		if err := features.WriteIDList(config.Output.MissingJobIDs, state.Features.Coverage.MissingJobIDs); err != nil {
			logger.Warn("writing missing job ids", zap.Error(err))
		}
	}
	if config.Output.MissingApplicantIDs != "" {
		if err := features.WriteIDList(config.Output.MissingApplicantIDs, state.Features.Coverage.MissingApplicantIDs); err != nil {
			logger.Warn("writing missing applicant ids", zap.Error(err))
		}
	}
}

func saveToStore(ctx context.Context, path string, rows []features.Row) error {
	db, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening store %s: %w", path, err)
	}
	defer db.Close()

	return db.SaveFeatures(ctx, rows)
}
