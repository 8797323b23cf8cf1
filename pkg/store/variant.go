package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Variant selects the storage engine behind a Store.
type Variant int

const (
	VariantBaseline Variant = iota // pebble LSM
	VariantLog                     // in-repo append-only log
	VariantBolt                    // bbolt B+tree file
	VariantMemory                  // process memory, nothing persisted
)

// ErrUnknownVariant is returned for a selector that names no engine.
var ErrUnknownVariant = errors.New("unknown store variant")

var variantNames = map[Variant]string{
	VariantBaseline: "baseline",
	VariantLog:      "log",
	VariantBolt:     "bolt",
	VariantMemory:   "memory",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Valid reports whether v names an engine.
func (v Variant) Valid() bool {
	_, ok := variantNames[v]
	return ok
}

// ParseVariant accepts either the numeric selector or the engine name.
func ParseVariant(s string) (Variant, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		if v := Variant(n); v.Valid() {
			return v, nil
		}
		return 0, fmt.Errorf("%w: %d", ErrUnknownVariant, n)
	}
	for v, name := range variantNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// DefaultFsyncInterval is used by the log engine when Sync is off and no
// interval is given.
const DefaultFsyncInterval = time.Second

// Options configures Open.
type Options struct {
	Path          string        // data directory
	Sync          bool          // fsync every write
	FsyncInterval time.Duration // log engine only, ignored when Sync is set
}

// Open creates the engine selected by variant.
func Open(variant Variant, opts Options) (Store, error) {
	if variant != VariantMemory && opts.Path == "" {
		return nil, opError("open", nil, errors.New("data path is required"))
	}

	switch variant {
	case VariantBaseline:
		return OpenPebble(opts.Path, opts.Sync)
	case VariantLog:
		interval := opts.FsyncInterval
		if opts.Sync {
			interval = 0
		} else if interval <= 0 {
			interval = DefaultFsyncInterval
		}
		kv, err := NewKVStore(KVStoreConfig{DataDir: opts.Path, FsyncInterval: interval})
		if err != nil {
			return nil, opError("open", nil, err)
		}
		if _, err := kv.Open(); err != nil {
			return nil, opError("open", nil, err)
		}
		return kv, nil
	case VariantBolt:
		return OpenBolt(opts.Path, opts.Sync)
	case VariantMemory:
		return NewMemStore(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, int(variant))
}
