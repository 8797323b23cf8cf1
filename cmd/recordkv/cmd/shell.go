package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/ssargent/recordkv/pkg/adapter"
	"github.com/ssargent/recordkv/pkg/codec"
)

const shellHelp = `Commands:
  read <key> [field...]            print a record, optionally only some fields
  insert <key> <field=value>...    store a record (key "-" generates a KSUID)
  update <key> <field=value>...    merge fields into a record
  delete <key>                     delete a record
  scan <start-key> [count] [field...]
  help                             show this help
  exit | quit                      leave the shell
Arguments are split like a POSIX shell, so quote values with spaces:
  insert user1 "name=Ada Lovelace"`

// newShellCmd represents the shell command
func newShellCmd() *cobra.Command {
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive record shell",
		Long: `Start an interactive shell over the configured store. Every line is one
command; each prints its result followed by the operation status (OK,
NOT_FOUND or ERROR).

With --scratch the shell runs against an in-memory store that is discarded
on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *adapter.DB) error {
				return runShell(db, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}

	shellCmd.Flags().Bool("scratch", false, "Use a throwaway in-memory store")
	return shellCmd
}

var errShellExit = errors.New("exit")

func runShell(db *adapter.DB, in io.Reader, out io.Writer) error {
	ops := &recordOps{db: db, out: out}
	fmt.Fprintln(out, "Type commands. 'help' for information or 'exit' to quit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		words, err := shellquote.Split(line)
		if err != nil {
			fmt.Fprintf(out, "parse error: %v\n", err)
			continue
		}

		err = runShellCommand(ops, words)
		if errors.Is(err, errShellExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", adapter.StatusOf(err), err)
			continue
		}
		if words[0] != "help" {
			fmt.Fprintln(out, adapter.StatusOK)
		}
	}
}

func runShellCommand(ops *recordOps, words []string) error {
	name, args := strings.ToLower(words[0]), words[1:]

	switch name {
	case "exit", "quit":
		return errShellExit
	case "help":
		fmt.Fprintln(ops.out, shellHelp)
		return nil
	case "read", "get":
		if len(args) < 1 {
			return usageError("read <key> [field...]")
		}
		return ops.read(args[0], codec.NewFieldFilter(args[1:]...))
	case "insert", "put":
		if len(args) < 1 {
			return usageError("insert <key> <field=value>...")
		}
		fields, err := parseFields(args[1:])
		if err != nil {
			return err
		}
		key := args[0]
		if key == "-" {
			key = ""
		}
		_, err = ops.insert(key, fields)
		return err
	case "update":
		if len(args) < 1 {
			return usageError("update <key> <field=value>...")
		}
		fields, err := parseFields(args[1:])
		if err != nil {
			return err
		}
		return ops.update(args[0], fields)
	case "delete", "del":
		if len(args) != 1 {
			return usageError("delete <key>")
		}
		return ops.remove(args[0])
	case "scan":
		if len(args) < 1 {
			return usageError("scan <start-key> [count] [field...]")
		}
		startKey, count, names := args[0], defaultScanCount, args[1:]
		if len(names) > 0 {
			n, err := strconv.Atoi(names[0])
			if err != nil {
				return fmt.Errorf("count %q: %w", names[0], err)
			}
			count, names = n, names[1:]
		}
		return ops.scan(startKey, count, codec.NewFieldFilter(names...))
	}
	return fmt.Errorf("unknown command %q, try 'help'", name)
}

func usageError(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}
