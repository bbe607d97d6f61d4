// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package synth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/distill/ai"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/retry"
	"golang.org/x/time/rate"
)

const defaultWorkers = 4

// Summary reports the outcome of one synthesis run.
type Summary struct {
	Threads          int // thread records read from the interchange file
	Produced         int // pairs written
	SkippedNoReplies int // threads with nothing to answer from
	SkippedNoPair    int // threads the model declined or answered unusably
	Failed           int // threads that failed after retries
}

// Pipeline runs thread records through a Synthesizer concurrently and writes
// the resulting pairs in the records' original order.
type Pipeline struct {
	synthesizer ai.Synthesizer
	pool        *ants.Pool
	limiter     *rate.Limiter
	counter     TokenCounter
	budget      int
	policy      retry.Policy
	logger      *slog.Logger
	progress    io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the worker pool size for concurrent synthesis.
// Default is 4.
func WithWorkers(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithRateLimit caps synthesis requests at the given number per second,
// shared across all workers. Zero or negative disables the cap.
func WithRateLimit(perSecond float64) Option {
	return func(p *Pipeline) error {
		if perSecond <= 0 {
			p.limiter = rate.NewLimiter(rate.Inf, 1)
			return nil
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithTokenCounter sets the counter used for prompt budget truncation.
// Default is none, which disables truncation.
func WithTokenCounter(counter TokenCounter) Option {
	return func(p *Pipeline) error {
		p.counter = counter
		return nil
	}
}

// WithTokenBudget sets the prompt token budget for thread serialization.
// Default is 6000. Zero or negative disables truncation.
func WithTokenBudget(budget int) Option {
	return func(p *Pipeline) error {
		p.budget = budget
		return nil
	}
}

// WithRetryPolicy sets the retry policy for synthesis calls.
// Default is retry.DefaultPolicy().
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Pipeline) error {
		p.policy = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithProgress sets the writer for progress reporting.
// Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		if w == nil {
			w = io.Discard
		}
		p.progress = w
		return nil
	}
}

// NewPipeline creates a synthesis pipeline around the given synthesizer.
func NewPipeline(synthesizer ai.Synthesizer, opts ...Option) (*Pipeline, error) {
	if synthesizer == nil {
		return nil, ErrSynthesizerRequired
	}

	pool, err := ants.NewPool(defaultWorkers)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		synthesizer: synthesizer,
		pool:        pool,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		budget:      6000,
		policy:      retry.DefaultPolicy(),
		logger:      slog.Default().With("component", "synth-pipeline"),
		progress:    io.Discard,
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Run synthesizes one pair per eligible thread and writes the pairs through
// writer, numbered by output order starting at zero. Threads keep their file
// order regardless of which worker finishes first.
//
// Per-thread problems (no replies, model declined, retries exhausted) are
// counted and logged, never fatal; only context cancellation and writer
// failures abort the run.
func (p *Pipeline) Run(ctx context.Context, file *core.ThreadFile, writer PairWriter) (*Summary, error) {
	if writer == nil {
		return nil, ErrWriterRequired
	}

	records := file.Messages
	results := make([]*core.QAPair, len(records))
	failures := make([]error, len(records))

	tracker := NewProgressTracker(p.progress, len(records), 1)
	tracker.Start()

	var wg sync.WaitGroup
	for i := range records {
		if len(records[i].Replies) == 0 {
			failures[i] = ErrNoReplies
			tracker.Increment(1)
			continue
		}

		idx := i
		record := &records[i]
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			defer tracker.Increment(1)

			thread := SerializeThread(record, p.counter, p.budget)
			results[idx], failures[idx] = p.synthesize(ctx, thread)
		})
		if submitErr != nil {
			failures[idx] = submitErr
			wg.Done()
			tracker.Increment(1)
		}
	}
	wg.Wait()
	tracker.Finish()

	summary := &Summary{Threads: len(records)}
	outIndex := 0
	for i := range records {
		if err := failures[i]; err != nil {
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return nil, err
			case errors.Is(err, ErrNoReplies):
				p.logger.Debug("no replies to message, skipping", "messageId", records[i].ID)
				summary.SkippedNoReplies++
			case ai.IsDataQuality(err), errors.Is(err, core.ErrInvalidQAPair):
				p.logger.Warn("no usable pair for thread, skipping",
					"messageId", records[i].ID, "err", err)
				summary.SkippedNoPair++
			default:
				p.logger.Error("synthesis failed for thread",
					"messageId", records[i].ID, "err", err)
				summary.Failed++
			}
			continue
		}

		if err := writer.Write(outIndex, results[i]); err != nil {
			return nil, err
		}
		outIndex++
	}
	summary.Produced = outIndex

	p.logger.Info("synthesis complete",
		"threads", summary.Threads,
		"produced", summary.Produced,
		"skippedNoReplies", summary.SkippedNoReplies,
		"skippedNoPair", summary.SkippedNoPair,
		"failed", summary.Failed,
		"elapsed", tracker.Elapsed())
	return summary, nil
}

// synthesize runs one thread through the model under the shared rate gate
// and retry policy. Data-quality errors are not retried; a model that
// declined once will decline again.
func (p *Pipeline) synthesize(ctx context.Context, thread string) (*core.QAPair, error) {
	var pair *core.QAPair
	err := retry.Do(ctx, p.policy, func() error {
		if waitErr := p.limiter.Wait(ctx); waitErr != nil {
			return retry.Fatal(waitErr)
		}

		result, synthErr := p.synthesizer.Synthesize(ctx, thread)
		if synthErr != nil {
			if ai.IsDataQuality(synthErr) {
				return retry.Fatal(synthErr)
			}
			return synthErr
		}

		// A pair with empty fields is a data-quality skip regardless of
		// which synthesizer produced it
		if validErr := core.ValidateQAPair(result); validErr != nil {
			return retry.Fatal(validErr)
		}

		pair = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
