package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ssargent/recordkv/pkg/adapter"
)

func newInsertCmd() *cobra.Command {
	insertCmd := &cobra.Command{
		Use:     "insert <key> <field=value>...",
		Aliases: []string{"put"},
		Short:   "Insert a record, replacing any existing one",
		Long: `Insert a record of name=value fields under a key. An existing record under
the same key is replaced entirely; use update to merge instead.

With --auto-key no key argument is taken; a time-ordered KSUID is generated
and printed, so later scans walk records in insertion order.

Examples:
  recordkv insert user1 field0=alpha field1=beta
  recordkv insert --auto-key name=ada lang=go`,
		RunE: func(cmd *cobra.Command, args []string) error {
			autoKey, _ := cmd.Flags().GetBool("auto-key")

			key := ""
			if !autoKey {
				if len(args) == 0 {
					return errors.New("insert requires a key (or --auto-key)")
				}
				key, args = args[0], args[1:]
			}
			fields, err := parseFields(args)
			if err != nil {
				return err
			}

			return withDB(cmd, func(db *adapter.DB) error {
				ops := &recordOps{db: db, out: cmd.OutOrStdout()}
				_, err := ops.insert(key, fields)
				return err
			})
		},
	}

	insertCmd.Flags().Bool("auto-key", false, "Generate a KSUID key instead of taking one")
	return insertCmd
}
