package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Enroll a face under a name",
	Long: `Enroll a face under a name. Registering an existing name adds another
reference embedding for that person.

The face comes from an image (sent to the face extractor), from a detections
file, or from a raw embedding file. With an image or detections the first
detected face is used.

Examples:
  attendance register "Ada Lovelace" --image ada.jpg
  attendance register "Ada Lovelace" --embedding ada.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	addInputFlags(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input, err := readFaceInput(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	var count int
	if input.Embedding != nil {
		count, err = eng.RegisterIdentity(ctx, args[0], input.Embedding)
	} else {
		count, err = eng.RegisterFromDetections(ctx, input.Detections, args[0])
	}
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("Registered %s (%d identities)\n", args[0], count)
	return nil
}
