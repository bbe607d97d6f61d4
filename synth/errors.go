package synth

import "errors"

var (
	// ErrSynthesizerRequired is returned when no synthesizer is provided.
	ErrSynthesizerRequired = errors.New("synthesizer is required")

	// ErrWriterRequired is returned when no pair writer is provided.
	ErrWriterRequired = errors.New("pair writer is required")

	// ErrNoReplies marks a thread with no replies to synthesize from.
	ErrNoReplies = errors.New("thread has no replies")
)
