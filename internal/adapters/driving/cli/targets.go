package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/outcal/internal/adapters/driven/config/file"
)

// targetsCmd is the subcommand form of --list-targets.
var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List configured targets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := file.Load(flagConfig)
		if err != nil {
			return err
		}
		return listTargets(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
