package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so that identical content
// always maps to the same identifier across runs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Reply is a single reply message within a thread. Replies are flattened to
// one level; they never nest further.
type Reply struct {
	ID        string    `json:"replyId"`
	Author    string    `json:"replyFrom,omitempty"`
	CreatedAt time.Time `json:"replyDateTime"`
	Content   string    `json:"replyContent"`
}

// ThreadRecord is the cleaned, structured representation of one channel
// thread: an originating message plus its replies in chronological order.
// Records are immutable once built; each pipeline stage produces new
// structures rather than mutating in place.
type ThreadRecord struct {
	ID        string    `json:"messageId"`
	Author    string    `json:"messageFrom,omitempty"`
	CreatedAt time.Time `json:"messageDateTime"`
	Content   string    `json:"messageContent"`
	Replies   []Reply   `json:"replies"`
}

// ContentID returns a deterministic identifier derived from the thread's
// originating message content. Useful for log correlation when the upstream
// message ID is opaque.
func (t *ThreadRecord) ContentID() ID {
	return IDFromContent(t.Content)
}

// ThreadFile is the interchange envelope written by the extractor and read
// by the synthesizers. Downstream stages treat it as read-only input.
type ThreadFile struct {
	Messages []ThreadRecord `json:"messages"`
}

// QAPair is a model-synthesized question and answer derived from exactly one
// ThreadRecord. There is no guarantee of factual grounding beyond what the
// model produced.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
