// Package scan rebuilds the records of a range scan from the single buffer
// and offsets array a store hands back.
package scan

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ssargent/recordkv/pkg/codec"
)

// DefaultSequentialBelow is the record count under which Assemble decodes on
// the calling goroutine.
const DefaultSequentialBelow = 8

// SliceError reports the record that failed to decode.
type SliceError struct {
	Index int
	Start int
	End   int
	Err   error
}

func (e *SliceError) Error() string {
	return fmt.Sprintf("scan record %d [%d,%d): %v", e.Index, e.Start, e.End, e.Err)
}

func (e *SliceError) Unwrap() error {
	return e.Err
}

// OffsetsError reports an offsets array that does not partition the buffer.
type OffsetsError struct {
	Index  int
	Reason string
}

func (e *OffsetsError) Error() string {
	return fmt.Sprintf("invalid scan offsets at %d: %s", e.Index, e.Reason)
}

type options struct {
	workers         int
	sequentialBelow int
}

// Option configures Assemble
type Option func(*options)

// WithWorkers caps the number of decoding goroutines. Values below 1 mean
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSequentialBelow sets the record count under which no goroutines are
// started.
func WithSequentialBelow(n int) Option {
	return func(o *options) {
		o.sequentialBelow = n
	}
}

// ValidateOffsets checks that offsets describes len(offsets)-1 records packed
// back to back into a buffer of bufLen bytes. Neighbouring offsets may be
// equal, which is how an empty record appears.
func ValidateOffsets(offsets []int, bufLen int) error {
	if len(offsets) == 0 {
		return &OffsetsError{Index: 0, Reason: "no offsets"}
	}
	if offsets[0] != 0 {
		return &OffsetsError{Index: 0, Reason: fmt.Sprintf("first offset is %d, want 0", offsets[0])}
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return &OffsetsError{Index: i, Reason: fmt.Sprintf("offset %d is before %d", offsets[i], offsets[i-1])}
		}
	}
	if last := offsets[len(offsets)-1]; last != bufLen {
		return &OffsetsError{Index: len(offsets) - 1, Reason: fmt.Sprintf("last offset is %d, buffer holds %d bytes", last, bufLen)}
	}
	return nil
}

// Assemble decodes record i from buf[offsets[i]:offsets[i+1]] for every i and
// returns them in index order. Slices are decoded independently, possibly in
// parallel, each into its own slot of the result.
//
// If any slice is malformed the whole scan fails with a *SliceError for the
// lowest failing index that was decoded; no partial result is returned.
func Assemble(buf []byte, offsets []int, filter codec.FieldFilter, opts ...Option) ([]codec.Record, error) {
	o := options{sequentialBelow: DefaultSequentialBelow}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	if err := ValidateOffsets(offsets, len(buf)); err != nil {
		return nil, err
	}

	n := len(offsets) - 1
	out := make([]codec.Record, n)
	if n == 0 {
		return out, nil
	}

	if n < o.sequentialBelow || o.workers == 1 {
		for i := range out {
			record, err := decodeSlice(buf, offsets, i, filter)
			if err != nil {
				return nil, err
			}
			out[i] = record
		}
		return out, nil
	}

	errs := make([]*SliceError, n)
	var (
		next    atomic.Int64
		stopped atomic.Bool
		wg      sync.WaitGroup
	)
	workers := min(o.workers, n)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for !stopped.Load() {
				i := int(next.Add(1) - 1)
				if i >= n {
					return
				}
				record, err := decodeSlice(buf, offsets, i, filter)
				if err != nil {
					errs[i] = err
					stopped.Store(true)
					return
				}
				out[i] = record
			}
		}()
	}
	wg.Wait()

	if stopped.Load() {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func decodeSlice(buf []byte, offsets []int, i int, filter codec.FieldFilter) (codec.Record, *SliceError) {
	start, end := offsets[i], offsets[i+1]
	record, err := codec.DecodeRange(buf, start, end, filter)
	if err != nil {
		return nil, &SliceError{Index: i, Start: start, End: end, Err: err}
	}
	return record, nil
}
