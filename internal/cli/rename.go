package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renameLabel string

var renameCmd = &cobra.Command{
	Use:   "rename <path>...",
	Short: "Print where each path would be relocated to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := passOptions(renameLabel, false)
		if err != nil {
			return err
		}
		rn := opts.Renamer()
		for _, p := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p, rn.Rename(p))
		}
		return nil
	},
}

func init() {
	renameCmd.Flags().StringVar(&renameLabel, "label", "", "replacement for node_modules (overrides config)")
	rootCmd.AddCommand(renameCmd)
}
