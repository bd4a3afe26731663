package pipeline

import "fmt"

// SynthesisError reports a failed synthesis call. Chunk is 1-based, matching
// the progress logs.
type SynthesisError struct {
	Chunk int
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed on chunk %d: %v", e.Chunk, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// DecodeError reports an audio blob the codec could not decode or append.
type DecodeError struct {
	Chunk int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("audio decode failed on chunk %d: %v", e.Chunk, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ExportError reports a failed track export.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
