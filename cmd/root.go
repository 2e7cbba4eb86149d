package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobmatch-features"
)

type Config struct {
	Data        *DataConfig        `mapstructure:"data"`
	Embeddings  *EmbeddingsConfig  `mapstructure:"embeddings"`
	Sampling    *SamplingConfig    `mapstructure:"sampling"`
	GroundTruth *GroundTruthConfig `mapstructure:"ground-truth"`
	Features    *FeaturesConfig    `mapstructure:"features"`
	Output      *OutputConfig      `mapstructure:"output"`
}

type DataConfig struct {
	Jobs       string `mapstructure:"jobs"`
	Experience string `mapstructure:"experience"`
	Views      string `mapstructure:"views"`
	Interests  string `mapstructure:"interests"`
}

type EmbeddingsConfig struct {
	Jobs       string `mapstructure:"jobs"`
	Applicants string `mapstructure:"applicants"`
}

type SamplingConfig struct {
	NegPerPos     int   `mapstructure:"neg-per-pos"`
	AttemptFactor int   `mapstructure:"attempt-factor"`
	Seed          int64 `mapstructure:"seed"`
}

type GroundTruthConfig struct {
	FuzzyInterestMatch bool `mapstructure:"fuzzy-interest-match"`
}

type FeaturesConfig struct {
	DropMissingEmbeddings bool `mapstructure:"drop-missing-embeddings"`
	TFIDFMaxFeatures      int  `mapstructure:"tfidf-max-features"`
	Workers               int  `mapstructure:"workers"`
}

type OutputConfig struct {
	Features            string `mapstructure:"features"`
	MissingJobIDs       string `mapstructure:"missing-job-ids"`
	MissingApplicantIDs string `mapstructure:"missing-applicant-ids"`
	Store               string `mapstructure:"store"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatch-features builds the labeled feature matrix for the applicant/job matching model from raw CSV exports",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobmatch-features.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("sampling.neg-per-pos", 3)
	viper.SetDefault("sampling.attempt-factor", 10)
	viper.SetDefault("sampling.seed", 42)
	viper.SetDefault("output.features", "data/features.csv")
}

func initConfig() {
	// Config is needed only for the data commands; version runs without one.
	if runCmd.CalledAs() == "" && inspectCmd.CalledAs() == "" && coverageCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
