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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns a fixed set of threads.
type stubSource struct {
	threads []graph.Thread
	stats   graph.Stats
	err     error
}

func (s *stubSource) Threads(ctx context.Context, since time.Time) ([]graph.Thread, *graph.Stats, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.threads, &s.stats, nil
}

func htmlMessage(id, body string, at time.Time) graph.Message {
	return graph.Message{ID: id, Author: "A. Person", CreatedAt: at, BodyType: "html", Body: body}
}

func TestRun_WritesInterchangeFile(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	source := &stubSource{
		threads: []graph.Thread{
			{
				Message: htmlMessage("m1", `<p>How do I <a href="https://example.com/docs">configure</a> this?</p>`, at),
				Replies: []graph.Message{
					htmlMessage("r1", "<p>Set the flag.</p>", at.Add(time.Hour)),
				},
			},
			{
				Message: graph.Message{ID: "m2", CreatedAt: at, BodyType: "text", Body: "Plain question?"},
				Replies: []graph.Message{},
			},
		},
		stats: graph.Stats{Pages: 2},
	}

	extractor, err := NewExtractor(source)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "threads.json")
	summary, err := extractor.Run(context.Background(), time.Time{}, out)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Threads)
	assert.Equal(t, 1, summary.Replies)
	assert.Equal(t, 0, summary.SkippedThreads)
	assert.Equal(t, 2, summary.Pages)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var file core.ThreadFile
	require.NoError(t, json.Unmarshal(data, &file))
	require.Len(t, file.Messages, 2)

	first := file.Messages[0]
	assert.Equal(t, "m1", first.ID)
	assert.Equal(t, "How do I [configure](https://example.com/docs) this?", first.Content)
	require.Len(t, first.Replies, 1)
	assert.Equal(t, "Set the flag.", first.Replies[0].Content)

	// Zero-reply threads survive with an empty array, not null
	assert.Contains(t, string(data), `"replies": []`)
}

func TestRun_SkipsEmptyMessages(t *testing.T) {
	at := time.Now().UTC()
	source := &stubSource{
		threads: []graph.Thread{
			{Message: htmlMessage("m1", "<p>&nbsp;</p>", at)},
			{Message: htmlMessage("m2", "<p>Real question?</p>", at)},
		},
	}

	extractor, err := NewExtractor(source)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "threads.json")
	summary, err := extractor.Run(context.Background(), time.Time{}, out)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Threads)
	assert.Equal(t, 1, summary.SkippedThreads)
}

func TestRun_DropsEmptyReplies(t *testing.T) {
	at := time.Now().UTC()
	source := &stubSource{
		threads: []graph.Thread{
			{
				Message: htmlMessage("m1", "<p>Question?</p>", at),
				Replies: []graph.Message{
					htmlMessage("r1", "<p></p>", at),
					htmlMessage("r2", "<p>Answer.</p>", at),
				},
			},
		},
	}

	extractor, err := NewExtractor(source)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "threads.json")
	summary, err := extractor.Run(context.Background(), time.Time{}, out)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Replies)
	assert.Equal(t, 1, summary.DroppedReplies)
}

func TestRun_Idempotent(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	source := &stubSource{
		threads: []graph.Thread{
			{
				Message: htmlMessage("m1", "<p>Question?</p>", at),
				Replies: []graph.Message{htmlMessage("r1", "<p>Answer.</p>", at)},
			},
		},
	}

	extractor, err := NewExtractor(source)
	require.NoError(t, err)

	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")

	_, err = extractor.Run(context.Background(), time.Time{}, first)
	require.NoError(t, err)
	_, err = extractor.Run(context.Background(), time.Time{}, second)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_SourceErrorPropagates(t *testing.T) {
	sourceErr := errors.New("upstream failed")
	extractor, err := NewExtractor(&stubSource{err: sourceErr})
	require.NoError(t, err)

	_, err = extractor.Run(context.Background(), time.Time{}, filepath.Join(t.TempDir(), "out.json"))
	assert.ErrorIs(t, err, sourceErr)
}

func TestRun_CarriesUpstreamSkips(t *testing.T) {
	at := time.Now().UTC()
	source := &stubSource{
		threads: []graph.Thread{{Message: htmlMessage("m1", "<p>Q?</p>", at)}},
		stats:   graph.Stats{Pages: 1, SkippedThreads: 2},
	}

	extractor, err := NewExtractor(source)
	require.NoError(t, err)

	summary, err := extractor.Run(context.Background(), time.Time{}, filepath.Join(t.TempDir(), "out.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SkippedThreads)
}

func TestNewExtractor_RequiresSource(t *testing.T) {
	_, err := NewExtractor(nil)
	assert.ErrorIs(t, err, ErrSourceRequired)
}
