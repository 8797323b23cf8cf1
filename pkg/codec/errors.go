package codec

import (
	"errors"
	"fmt"
)

// ErrMalformed matches every *DecodeError via errors.Is.
var ErrMalformed = errors.New("malformed encoded record")

// DecodeError reports a length prefix or range that runs past the end of the
// bytes being decoded.
type DecodeError struct {
	Offset int    // position of the bytes that did not fit
	End    int    // exclusive end of the decode range
	Need   int64  // bytes the prefix asked for
	Part   string // "key length", "key", "value length", "value" or "range"
}

func (e *DecodeError) Error() string {
	if e.Part == "range" {
		return fmt.Sprintf("%v: invalid range [%d,%d)", ErrMalformed, e.Offset, e.End)
	}
	return fmt.Sprintf("%v: %s at offset %d needs %d bytes, only %d before end %d",
		ErrMalformed, e.Part, e.Offset, e.Need, e.End-e.Offset, e.End)
}

// Is reports ErrMalformed as a match.
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformed
}
