package graph

import "time"

// Message is a raw channel message as returned by the API. Body content is
// left untouched (typically HTML); markup cleaning happens downstream.
type Message struct {
	ID        string
	Author    string
	CreatedAt time.Time
	BodyType  string
	Body      string
}

// Thread is one originating channel message together with its replies in
// chronological order.
type Thread struct {
	Message Message
	Replies []Message
}

// Stats summarises one extraction pass against the channel API.
type Stats struct {
	Pages          int // channel message pages fetched
	Messages       int // messages seen across all pages
	Filtered       int // messages excluded by the date bound
	SkippedThreads int // threads dropped because the reply fetch failed after retries
}

// messagesPage is one page of a channel /messages (or /replies) response.
type messagesPage struct {
	Value    []channelMessage `json:"value"`
	NextLink string           `json:"@odata.nextLink"`
}

// channelMessage represents the relevant fields from a Graph API channel
// message response.
type channelMessage struct {
	ID              string    `json:"id"`
	CreatedDateTime time.Time `json:"createdDateTime"`
	From            struct {
		User *struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"user"`
	} `json:"from"`
	Body struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

// toMessage converts a wire message into the canonical form.
func (m *channelMessage) toMessage() Message {
	author := ""
	if m.From.User != nil {
		author = m.From.User.DisplayName
	}
	return Message{
		ID:        m.ID,
		Author:    author,
		CreatedAt: m.CreatedDateTime,
		BodyType:  m.Body.ContentType,
		Body:      m.Body.Content,
	}
}
