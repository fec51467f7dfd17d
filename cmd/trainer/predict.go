package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/model"
	"rabies-risk-service/internal/core/services"
	"rabies-risk-service/internal/core/synth"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict ['<json attributes>']",
		Short: "Score one set of raw attributes against the saved model artifact",
		Example: `  trainer predict '{"Age":30,"Location_Risk":"High","Animal_Type":"Dog","Bite_Severity":"Major",
    "Vaccination_Status":"Unvaccinated","PEP":"No","Time_Since_Exposure":60,
    "Wound_Location":"Head/Neck","Animal_Vaccination":"Unvaccinated"}'
  trainer predict --sample --seed 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPredict,
	}
	cmd.Flags().Bool("sample", false, "score a synthetic incident drawn with --seed instead of JSON input")
	return cmd
}

func runPredict(cmd *cobra.Command, args []string) error {
	sample, _ := cmd.Flags().GetBool("sample")

	var raw map[string]any
	switch {
	case sample && len(args) == 0:
		raw = synth.NewSampler(cfg.Training.Seed).Sample().Attributes()
	case !sample && len(args) == 1:
		if err := json.Unmarshal([]byte(args[0]), &raw); err != nil {
			return fmt.Errorf("parse attributes: %w", err)
		}
	default:
		return errors.New("pass either JSON attributes or --sample")
	}

	m, err := model.Load(cfg.Model.ArtifactPath)
	if err != nil {
		return err
	}

	result, err := services.NewInferenceService(m).Predict(raw)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if sample {
		input, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "input: %s\n", input)
	}
	fmt.Fprintf(out, "risk level: %s (%.2f%%)\n", result.Label, result.Percentage)
	for _, label := range domain.Labels() {
		fmt.Fprintf(out, "  %-6s %.4f\n", label, result.Probabilities[label])
	}
	return nil
}
