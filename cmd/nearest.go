package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/constants"
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Show the registered references closest to a face",
	Long: `Diagnostic search: list the k stored reference embeddings nearest to a
face, with their distances. Useful for choosing MATCH_THRESHOLD.`,
	Args: cobra.NoArgs,
	RunE: runNearest,
}

func init() {
	rootCmd.AddCommand(nearestCmd)
	addInputFlags(nearestCmd)
	nearestCmd.Flags().IntP("k", "k", constants.DefaultNearestK, "Number of neighbours")
	nearestCmd.Flags().Bool("json", false, "Output as JSON")
}

func runNearest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input, err := readFaceInput(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	probe := input.Embedding
	if probe == nil {
		if len(input.Detections) == 0 || len(input.Detections[0].Embedding) == 0 {
			return errors.New("no encodable face in input")
		}
		probe = input.Detections[0].Embedding
	}

	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	hits, err := eng.Nearest(ctx, probe, mustGetInt(cmd, "k"))
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(hits)
	}
	if len(hits) == 0 {
		fmt.Println("Registry is empty.")
		return nil
	}
	for i, h := range hits {
		marker := ""
		if h.Distance < cfg.Match.Threshold {
			marker = "  (match)"
		}
		fmt.Printf("%2d. %-30s %.4f%s\n", i+1, h.Name, h.Distance, marker)
	}
	return nil
}
