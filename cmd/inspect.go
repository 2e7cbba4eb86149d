package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"jobmatch-features/internal/dataset"
	"jobmatch-features/internal/logger"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load and schema-validate the raw tables and report their quality",
	Run: func(_ *cobra.Command, _ []string) {
		inspect()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspect() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
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

	for _, t := range raw.Tables {
		logger.Info("inspecting table",
			zap.String("table", t.Name),
			zap.Int("rows", len(t.Rows)),
			zap.Int("columns", len(t.Header)),
			zap.Int("skipped_lines", t.SkippedLines),
			zap.Int("duplicate_rows", t.DuplicateCount()),
		)

		for col, nulls := range t.NullCounts() {
			if nulls == 0 {
				continue
			}
			logger.Info("column with empty values",
				zap.String("table", t.Name),
				zap.String("column", col),
				zap.Int("empty", nulls),
			)
		}
	}
}
