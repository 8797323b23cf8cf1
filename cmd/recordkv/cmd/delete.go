package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/recordkv/pkg/adapter"
)

// newDeleteCmd represents the delete command
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <key>",
		Aliases: []string{"del"},
		Short:   "Delete the record under a key",
		Long: `Delete the record under a key. Deleting a missing key is not an error.

Example:
  recordkv delete user1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *adapter.DB) error {
				ops := &recordOps{db: db, out: cmd.OutOrStdout()}
				return ops.remove(args[0])
			})
		},
	}
}
