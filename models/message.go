package models

// ItemType describes the payload kind of a single thread item.
type ItemType string

const (
	ItemTypeText        ItemType = "text"
	ItemTypeMedia       ItemType = "media"
	ItemTypeLike        ItemType = "like"
	ItemTypeLink        ItemType = "link"
	ItemTypePlaceholder ItemType = "placeholder"
)

// Message is a single immutable item inside a direct thread. Once received
// from the server it is never modified locally.
type Message struct {
	// ItemID is the server-side item identifier (decimal string form).
	ItemID string `json:"item_id"`

	// ThreadID is the identifier of the owning thread. Not present in the
	// wire item payload; filled in by the client when fetching a thread.
	ThreadID string `json:"thread_id,omitempty"`

	// SenderUserID is the numeric account identifier of the sender.
	SenderUserID int64 `json:"user_id"`

	// ItemType discriminates the payload union.
	ItemType ItemType `json:"item_type"`

	// Text is the message body for text items, empty otherwise.
	Text string `json:"text,omitempty"`

	// TimestampMicros is the microsecond UNIX timestamp of the item.
	TimestampMicros int64 `json:"timestamp"`
}

// SendResult reports the server-assigned identifiers of a delivered message.
type SendResult struct {
	ThreadID string `json:"thread_id"`
	ItemID   string `json:"item_id"`
}
