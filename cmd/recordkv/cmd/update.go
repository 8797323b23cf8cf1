package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/recordkv/pkg/adapter"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <key> <field=value>...",
		Short: "Merge fields into a record",
		Long: `Merge name=value fields into the record under a key. Given fields replace
existing ones of the same name and all other fields are kept. A missing key
is created.

Example:
  recordkv update user1 field1=gamma field4=delta`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args[1:])
			if err != nil {
				return err
			}

			return withDB(cmd, func(db *adapter.DB) error {
				ops := &recordOps{db: db, out: cmd.OutOrStdout()}
				return ops.update(args[0], fields)
			})
		},
	}
}
