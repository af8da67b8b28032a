// ABOUTME: Decode error type
// ABOUTME: Recoverable per-chunk decode failures
package decode

import "fmt"

// DecodeError reports a chunk that could not be interpreted. It is
// recoverable: the caller skips the chunk and the stream continues.
type DecodeError struct {
	Codec string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
