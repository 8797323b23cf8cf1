package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/recordkv/pkg/adapter"
	"github.com/ssargent/recordkv/pkg/codec"
)

func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan <start-key>",
		Short: "Read records in key order",
		Long: `Read up to --count records in key order, starting at the first key that is
greater than or equal to start-key.

Examples:
  recordkv scan user1 --count 5
  recordkv scan "" --count 100 --fields field0 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			fields, _ := cmd.Flags().GetString("fields")
			asJSON, _ := cmd.Flags().GetBool("json")

			return withDB(cmd, func(db *adapter.DB) error {
				ops := &recordOps{db: db, out: cmd.OutOrStdout(), asJSON: asJSON}
				return ops.scan(args[0], count, codec.ParseFieldFilter(fields))
			})
		},
	}

	scanCmd.Flags().IntP("count", "n", defaultScanCount, "Maximum number of records")
	scanCmd.Flags().String("fields", "", "Comma separated field names to return (default: all)")
	scanCmd.Flags().Bool("json", false, "Print the records as a JSON array")
	return scanCmd
}
