package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rabies-risk-service/internal/config"
	"rabies-risk-service/internal/core/classifier"
	"rabies-risk-service/internal/core/model"
)

var (
	v   = viper.New()
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "trainer",
		Short: "Offline training for the rabies exposure risk model",
		Long: `trainer generates the synthetic labelled dataset, fits the
preprocessing transform and classifier, and writes the model artifact
loaded by the server.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("data", "rabies_dataset.csv", "training data file")
	flags.String("model", "rabies_model.json", "model artifact path")
	flags.Uint64("seed", 42, "random seed for sampling, splitting and fitting")

	// Bind flags to viper
	_ = v.BindPFlag("CONFIG_FILE", flags.Lookup("config"))
	_ = v.BindPFlag("LOGGER_LEVEL", flags.Lookup("log-level"))
	_ = v.BindPFlag("LOGGER_FORMAT", flags.Lookup("log-format"))
	_ = v.BindPFlag("TRAINING_DATA_PATH", flags.Lookup("data"))
	_ = v.BindPFlag("MODEL_ARTIFACT_PATH", flags.Lookup("model"))
	_ = v.BindPFlag("TRAINING_SEED", flags.Lookup("seed"))

	// Add commands
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(predictCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.LoadFrom(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded

	initLogger(cfg)
	return nil
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// trainOptions maps the training section of the config onto model.TrainOptions.
func trainOptions(t config.TrainingConfig) model.TrainOptions {
	return model.TrainOptions{
		Classifier: classifier.Config{
			Kind:           t.Classifier,
			Trees:          t.Trees,
			Rounds:         t.Rounds,
			LearningRate:   t.LearningRate,
			MaxDepth:       t.MaxDepth,
			MinSamplesLeaf: t.MinSamplesLeaf,
			MaxFeatures:    t.MaxFeatures,
			Seed:           t.Seed,
		},
		TestFraction: t.TestFraction,
		Seed:         t.Seed,
	}
}
