package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/model"
	"rabies-risk-service/internal/dataset"
)

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Score a saved model artifact against a training data file",
		RunE:  runEvaluate,
	}
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	m, err := model.Load(cfg.Model.ArtifactPath)
	if err != nil {
		return err
	}
	examples, err := dataset.ReadFile(cfg.Training.DataPath)
	if err != nil {
		return err
	}

	eval, err := model.Evaluate(m, examples)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "model %s (%s) on %s\n", m.Metadata.ID, m.Metadata.ClassifierKind, cfg.Training.DataPath)
	printEvaluation(cmd.OutOrStdout(), eval)
	return nil
}

func printEvaluation(w io.Writer, eval *model.Evaluation) {
	fmt.Fprintf(w, "accuracy: %.4f (%d/%d", eval.Accuracy, eval.Correct, eval.Rows)
	if eval.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", eval.Skipped)
	}
	fmt.Fprintln(w, ")")

	fmt.Fprintf(w, "%-10s", "actual")
	for _, predicted := range domain.Labels() {
		fmt.Fprintf(w, "%8s", predicted)
	}
	fmt.Fprintln(w)
	for _, actual := range domain.Labels() {
		fmt.Fprintf(w, "%-10s", actual)
		for _, predicted := range domain.Labels() {
			fmt.Fprintf(w, "%8d", eval.Confusion[actual][predicted])
		}
		fmt.Fprintln(w)
	}
}
