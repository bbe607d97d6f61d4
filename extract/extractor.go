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


package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/graph"
	"github.com/poiesic/distill/htmlclean"
)

// ThreadSource produces channel threads for extraction. graph.Client is the
// production implementation; tests substitute their own.
type ThreadSource interface {
	Threads(ctx context.Context, since time.Time) ([]graph.Thread, *graph.Stats, error)
}

// Summary reports the outcome of one extraction run.
type Summary struct {
	Threads        int // thread records written to the interchange file
	Replies        int // replies carried across all written threads
	SkippedThreads int // threads dropped for empty or uncleanable content
	DroppedReplies int // individual replies dropped for empty content
	Pages          int // channel message pages fetched upstream
}

// Extractor turns raw channel threads into the cleaned JSON interchange file
// consumed by the synthesis pipelines.
type Extractor struct {
	source ThreadSource
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewExtractor creates an extractor reading from the given source.
func NewExtractor(source ThreadSource, opts ...Option) (*Extractor, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	e := &Extractor{
		source: source,
		logger: slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run fetches every thread created on or after since (zero means no bound),
// cleans the message bodies, and writes the interchange file to outPath.
// Threads whose originating message cleans to nothing are skipped and
// counted, never fatal. The output is deterministic for a fixed input: the
// same threads produce byte-identical files.
func (e *Extractor) Run(ctx context.Context, since time.Time, outPath string) (*Summary, error) {
	threads, stats, err := e.source.Threads(ctx, since)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Pages: stats.Pages, SkippedThreads: stats.SkippedThreads}
	records := make([]core.ThreadRecord, 0, len(threads))

	for _, thread := range threads {
		record, ok := e.buildRecord(thread, summary)
		if !ok {
			summary.SkippedThreads++
			continue
		}
		records = append(records, record)
		summary.Replies += len(record.Replies)
	}
	summary.Threads = len(records)

	if err := writeThreadFile(outPath, records); err != nil {
		return nil, err
	}

	e.logger.Info("extraction complete",
		"threads", summary.Threads,
		"replies", summary.Replies,
		"skipped", summary.SkippedThreads,
		"pages", summary.Pages)
	return summary, nil
}

// buildRecord converts one raw thread into a cleaned record. Returns false
// when the originating message has no usable content.
func (e *Extractor) buildRecord(thread graph.Thread, summary *Summary) (core.ThreadRecord, bool) {
	content, err := cleanBody(thread.Message.BodyType, thread.Message.Body)
	if err != nil {
		e.logger.Warn("unable to clean message body, skipping thread",
			"messageId", thread.Message.ID, "err", err)
		return core.ThreadRecord{}, false
	}
	if content == "" {
		e.logger.Debug("empty message after cleaning, skipping thread",
			"messageId", thread.Message.ID)
		return core.ThreadRecord{}, false
	}

	// Replies always marshal as an array, never null
	replies := make([]core.Reply, 0, len(thread.Replies))
	for _, reply := range thread.Replies {
		body, err := cleanBody(reply.BodyType, reply.Body)
		if err != nil || body == "" {
			e.logger.Debug("dropping unusable reply",
				"messageId", thread.Message.ID, "replyId", reply.ID)
			summary.DroppedReplies++
			continue
		}
		replies = append(replies, core.Reply{
			ID:        reply.ID,
			Author:    reply.Author,
			CreatedAt: reply.CreatedAt,
			Content:   body,
		})
	}

	record := core.ThreadRecord{
		ID:        thread.Message.ID,
		Author:    thread.Message.Author,
		CreatedAt: thread.Message.CreatedAt,
		Content:   content,
		Replies:   replies,
	}
	if err := core.ValidateThreadRecord(&record); err != nil {
		e.logger.Warn("invalid thread record, skipping",
			"messageId", thread.Message.ID, "err", err)
		return core.ThreadRecord{}, false
	}

	return record, true
}

// cleanBody normalizes a message body to plain text. HTML bodies go through
// the markup cleaner; text bodies are trimmed as-is.
func cleanBody(bodyType, body string) (string, error) {
	if strings.EqualFold(bodyType, "html") {
		return htmlclean.Clean(body)
	}
	return strings.TrimSpace(body), nil
}

// writeThreadFile marshals the records into the interchange envelope and
// writes them with stable indentation.
func writeThreadFile(path string, records []core.ThreadRecord) error {
	file := core.ThreadFile{Messages: records}
	data, err := json.MarshalIndent(&file, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
