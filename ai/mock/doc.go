// Package mock provides test double implementations of AI service interfaces.
//
// This package contains a mock implementation of ai.Synthesizer for use in
// unit tests. The mock allows tests to run without external AI service
// dependencies and enables controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	synth := mock.NewMockSynthesizer()
//	pair, err := synth.Synthesize(ctx, "Question:\nHow do I reset a token?")
//
//	// Custom behavior injection
//	synth.SynthesizeFunc = func(ctx context.Context, thread string) (*core.QAPair, error) {
//	    return nil, ai.ErrNoPair
//	}
//
//	// Check call counts
//	count := synth.CallCount()
//
// # Default Behavior
//
// Without an injected SynthesizeFunc, the mock returns the first non-empty
// line of the thread as the question and a fixed answer.
package mock
