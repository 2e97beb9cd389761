package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/facematch"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Recognize the faces of one frame and record attendance",
	Long: `Match every face of a frame against the registry and record attendance
for each recognized person, once per day.

Examples:
  attendance recognize --image frame.jpg
  attendance recognize --detections frame.json --json`,
	Args: cobra.NoArgs,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	addInputFlags(recognizeCmd)
	recognizeCmd.Flags().Bool("json", false, "Output the frame result as JSON")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input, err := readFaceInput(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	dets := input.Detections
	if input.Embedding != nil {
		dets = []facematch.Detection{{Embedding: input.Embedding}}
	}

	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	res, err := eng.ProcessFrameDetections(ctx, dets, eng.Now())
	if err != nil {
		return fmt.Errorf("processing frame: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(res)
	}

	fmt.Printf("%d face(s)\n", len(res.Annotations))
	for i, ann := range res.Annotations {
		box := "-"
		if !ann.Box.Empty() {
			box = fmt.Sprintf("%v %dx%d", ann.Box.Corners(), ann.Box.Width(), ann.Box.Height())
		}
		if ann.Matched {
			fmt.Printf("  [%d] %-24s distance %.4f  box %s\n", i, ann.Label, ann.Distance, box)
		} else {
			fmt.Printf("  [%d] %-24s box %s\n", i, ann.Label, box)
		}
	}
	if res.Status != "" {
		fmt.Println(res.Status)
	}
	return nil
}
