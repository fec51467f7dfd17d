package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/synth"
	"rabies-risk-service/internal/dataset"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Sample feature vectors, label them and write the training data file",
		RunE:  runGenerate,
	}

	cmd.Flags().Int("samples", synth.DefaultSampleCount, "number of rows to generate")
	_ = v.BindPFlag("TRAINING_SAMPLES", cmd.Flags().Lookup("samples"))

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	examples := synth.NewSampler(cfg.Training.Seed).Examples(cfg.Training.Samples)
	if err := dataset.WriteFile(cfg.Training.DataPath, examples); err != nil {
		return err
	}

	counts := make(map[domain.RiskLabel]int, domain.NumClasses)
	for _, ex := range examples {
		counts[ex.Label]++
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "wrote %d rows to %s\n", len(examples), cfg.Training.DataPath)
	for _, label := range domain.Labels() {
		fmt.Fprintf(out, "  %-6s %5d\n", label, counts[label])
	}
	return nil
}
