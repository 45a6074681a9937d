package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/outcal/internal/connectors/microsoft/graph"
	"github.com/custodia-labs/outcal/internal/core/domain"
)

// logoutCmd drops the cached Graph token so the next --cli run performs
// a fresh sign-in. Browser sessions sign out on their own at the end of
// each run.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the cached sign-in for a target",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagTarget == "" {
			return fmt.Errorf("%w: select a target with --target", domain.ErrTargetNotFound)
		}

		store, err := graph.NewTokenStore("")
		if err != nil {
			return err
		}
		if err := store.Delete(flagTarget); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Signed out of %s.\n", flagTarget)
		return nil
	},
}

func init() {
	logoutCmd.Flags().StringVarP(&flagTarget, "target", "t", "", "target account to sign out")
	rootCmd.AddCommand(logoutCmd)
}
