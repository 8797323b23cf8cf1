package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ssargent/recordkv/pkg/api"
	"github.com/ssargent/recordkv/pkg/codec"
)

// parseFields turns name=value arguments into a record. The value is
// everything after the first '=' and may be empty.
func parseFields(args []string) (codec.Record, error) {
	rec := make(codec.Record, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("field %q: expected name=value", arg)
		}
		if name == "" {
			return nil, fmt.Errorf("field %q: empty field name", arg)
		}
		rec[name] = []byte(value)
	}
	return rec, nil
}

// printRecord writes rec as sorted name=value lines, or as one JSON object
func printRecord(w io.Writer, rec codec.Record, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(api.ToStringRecord(rec))
	}

	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s=%s\n", name, rec[name]); err != nil {
			return err
		}
	}
	return nil
}

func printRecords(w io.Writer, records []codec.Record, asJSON bool) error {
	if asJSON {
		out := make([]api.StringRecord, len(records))
		for i, rec := range records {
			out[i] = api.ToStringRecord(rec)
		}
		return json.NewEncoder(w).Encode(out)
	}

	for i, rec := range records {
		if _, err := fmt.Fprintf(w, "# %d\n", i); err != nil {
			return err
		}
		if err := printRecord(w, rec, false); err != nil {
			return err
		}
	}
	return nil
}
