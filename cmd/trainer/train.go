package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rabies-risk-service/internal/core/classifier"
	"rabies-risk-service/internal/core/model"
	"rabies-risk-service/internal/dataset"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the transform and classifier and write the model artifact",
		RunE:  runTrain,
	}

	flags := cmd.Flags()
	flags.String("classifier", classifier.KindRandomForest, "random_forest or gradient_boosting")
	flags.Int("trees", 100, "trees in the random forest")
	flags.Int("rounds", 100, "gradient boosting rounds")
	flags.Float64("learning-rate", 0.1, "gradient boosting learning rate")
	flags.Int("max-depth", 0, "maximum tree depth (0: unlimited for forests, 3 for boosting)")
	flags.Int("min-samples-leaf", 1, "minimum rows per leaf")
	flags.Int("max-features", 0, "features considered per split (0: sqrt for forests, all for boosting)")
	flags.Float64("test-fraction", 0.2, "share of rows held out for evaluation")
	flags.Bool("no-progress", false, "disable the progress bar")

	_ = v.BindPFlag("TRAINING_CLASSIFIER", flags.Lookup("classifier"))
	_ = v.BindPFlag("TRAINING_TREES", flags.Lookup("trees"))
	_ = v.BindPFlag("TRAINING_ROUNDS", flags.Lookup("rounds"))
	_ = v.BindPFlag("TRAINING_LEARNING_RATE", flags.Lookup("learning-rate"))
	_ = v.BindPFlag("TRAINING_MAX_DEPTH", flags.Lookup("max-depth"))
	_ = v.BindPFlag("TRAINING_MIN_SAMPLES_LEAF", flags.Lookup("min-samples-leaf"))
	_ = v.BindPFlag("TRAINING_MAX_FEATURES", flags.Lookup("max-features"))
	_ = v.BindPFlag("TRAINING_TEST_FRACTION", flags.Lookup("test-fraction"))

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	examples, err := dataset.ReadFile(cfg.Training.DataPath)
	if err != nil {
		return err
	}

	opts := trainOptions(cfg.Training)
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	if !noProgress {
		bar, err := newProgressBar(cmd.ErrOrStderr(), opts.Classifier)
		if err != nil {
			return err
		}
		opts.OnStep = func() {
			if err := bar.Add(1); err != nil {
				log.WithError(err).Warn("failed to update progress bar")
			}
		}
	}

	m, eval, err := model.Train(examples, opts)
	if err != nil {
		return err
	}
	if err := m.Save(cfg.Model.ArtifactPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "model %s (%s) written to %s\n", m.Metadata.ID, m.Metadata.ClassifierKind, cfg.Model.ArtifactPath)
	fmt.Fprintf(out, "training rows: %d, hold-out rows: %d\n", m.Metadata.TrainingRows, m.Metadata.HoldoutRows)
	printEvaluation(out, eval)
	return nil
}

func newProgressBar(w io.Writer, cfg classifier.Config) (*progressbar.ProgressBar, error) {
	clf, err := classifier.New(cfg)
	if err != nil {
		return nil, err
	}
	steps := -1
	if pr, ok := clf.(classifier.ProgressReporter); ok {
		steps = pr.Steps()
	}

	return progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("fitting %s", clf.Kind())),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	), nil
}
