package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "Registry operations",
}

var identitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities in registration order",
	Args:  cobra.NoArgs,
	RunE:  runIdentitiesList,
}

var identitiesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove an identity and all its reference embeddings",
	Long: `Remove an identity and all its reference embeddings.
Attendance history is kept; use "attendance delete-identity" to purge it.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentitiesDelete,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesListCmd)
	identitiesCmd.AddCommand(identitiesDeleteCmd)

	identitiesListCmd.Flags().Bool("json", false, "Output as JSON")
	identitiesDeleteCmd.Flags().Bool("yes", false, "Confirm deletion")
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	names, err := eng.ListIdentities(ctx)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		if names == nil {
			names = []string{}
		}
		return outputJSON(names)
	}

	snap := eng.Snapshot()
	fmt.Printf("%d identities\n", len(names))
	for _, name := range names {
		id, _ := snap.Find(name)
		fmt.Printf("  %-30s %d reference(s)\n", name, len(id.Embeddings))
	}
	return nil
}

func runIdentitiesDelete(cmd *cobra.Command, args []string) error {
	if err := requireConfirmation(cmd, "delete "+args[0]); err != nil {
		return err
	}

	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	count, err := eng.DeleteIdentity(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %s (%d identities left)\n", args[0], count)
	return nil
}
