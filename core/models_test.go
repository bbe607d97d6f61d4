package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent_Deterministic(t *testing.T) {
	id1 := IDFromContent("How do I reset my password?")
	id2 := IDFromContent("How do I reset my password?")
	assert.Equal(t, id1, id2, "identical content must produce identical IDs")
}

func TestIDFromContent_DistinctContent(t *testing.T) {
	id1 := IDFromContent("How do I reset my password?")
	id2 := IDFromContent("How do I change my email?")
	assert.NotEqual(t, id1, id2, "different content should produce different IDs")
}

func TestThreadFile_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	file := ThreadFile{
		Messages: []ThreadRecord{
			{
				ID:        "1709288100000",
				Author:    "user-a",
				CreatedAt: created,
				Content:   "How do I reset my password?",
				Replies: []Reply{
					{
						ID:        "1709288200000",
						CreatedAt: created.Add(5 * time.Minute),
						Content:   "Go to settings > security > reset",
					},
				},
			},
		},
	}

	data, err := json.Marshal(file)
	require.NoError(t, err)

	// Interchange field names match the extractor output format
	assert.Contains(t, string(data), `"messageId"`)
	assert.Contains(t, string(data), `"messageDateTime"`)
	assert.Contains(t, string(data), `"messageContent"`)
	assert.Contains(t, string(data), `"replyContent"`)

	var decoded ThreadFile
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, file, decoded)
}

func TestThreadRecord_EmptyRepliesSurviveRoundTrip(t *testing.T) {
	record := ThreadRecord{
		ID:        "42",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Content:   "announcement with no replies",
		Replies:   []Reply{},
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded ThreadRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotNil(t, decoded.Replies)
	assert.Empty(t, decoded.Replies)
}
