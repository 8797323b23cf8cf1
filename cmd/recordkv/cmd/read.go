package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/recordkv/pkg/adapter"
	"github.com/ssargent/recordkv/pkg/codec"
)

func newReadCmd() *cobra.Command {
	readCmd := &cobra.Command{
		Use:     "read <key>",
		Aliases: []string{"get"},
		Short:   "Read the record stored under a key",
		Long: `Read the record stored under a key and print its fields.

Examples:
  recordkv read user1
  recordkv read user1 --fields field0,field3 --json
  recordkv read user1 --raw`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, _ := cmd.Flags().GetString("fields")
			asJSON, _ := cmd.Flags().GetBool("json")
			raw, _ := cmd.Flags().GetBool("raw")

			return withDB(cmd, func(db *adapter.DB) error {
				ops := &recordOps{db: db, out: cmd.OutOrStdout(), asJSON: asJSON}
				if raw {
					return ops.readRaw(args[0])
				}
				return ops.read(args[0], codec.ParseFieldFilter(fields))
			})
		},
	}

	readCmd.Flags().String("fields", "", "Comma separated field names to return (default: all)")
	readCmd.Flags().Bool("json", false, "Print the record as JSON")
	readCmd.Flags().Bool("raw", false, "Print fields in stored order with quoted values and the encoded size")
	return readCmd
}
