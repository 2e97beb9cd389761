package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// addInputFlags registers the shared face input flags.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("image", "", "Image file sent to the face extractor")
	cmd.Flags().String("detections", "", "JSON file with an array of {box, embedding} detections")
	cmd.Flags().String("embedding", "", "JSON file with a single embedding array")
	cmd.MarkFlagsMutuallyExclusive("image", "detections", "embedding")
}

// requireConfirmation fails unless --yes was given.
func requireConfirmation(cmd *cobra.Command, what string) error {
	if !mustGetBool(cmd, "yes") {
		return fmt.Errorf("refusing to %s without --yes", what)
	}
	return nil
}
