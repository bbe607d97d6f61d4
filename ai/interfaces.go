package ai

import (
	"context"
	"errors"

	"github.com/poiesic/distill/core"
)

// Synthesizer derives one question/answer pair from serialized thread
// content. Implementations must be thread-safe for concurrent use.
type Synthesizer interface {
	// Synthesize sends the thread text to a generative model and parses the
	// response into a QAPair with non-empty question and answer fields.
	//
	// Returns an error wrapping ErrNoPair when the model legitimately finds
	// no question in the thread, and an error wrapping ErrMalformedOutput
	// when the response cannot be parsed. Both are data-quality conditions:
	// the caller skips the thread and continues. Transport errors are
	// returned as-is for retry classification.
	Synthesize(ctx context.Context, thread string) (*core.QAPair, error)
}

var (
	// ErrMalformedOutput indicates the model response could not be parsed
	// into a question/answer pair.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrNoPair indicates the model found no discernible question in the
	// thread. This is a legitimate outcome, not a failure.
	ErrNoPair = errors.New("no question/answer pair in thread")
)

// IsDataQuality reports whether err is a data-quality condition: the thread
// should be skipped and the run should continue.
func IsDataQuality(err error) bool {
	return errors.Is(err, ErrMalformedOutput) || errors.Is(err, ErrNoPair)
}
