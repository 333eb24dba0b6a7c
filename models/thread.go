package models

// ThreadUser identifies a single participant of a direct thread.
type ThreadUser struct {
	// UserID is the numeric account identifier.
	UserID int64 `json:"pk"`

	// Username is the public handle of the participant.
	Username string `json:"username"`

	// FullName is the display name, may be empty.
	FullName string `json:"full_name,omitempty"`
}

// Thread is a read-only snapshot of a direct-message thread as returned by
// the inbox endpoint. A new fetch replaces the previous snapshot; threads are
// never mutated locally.
type Thread struct {
	// ThreadID is the server-side thread identifier. It is a very large
	// integer transmitted in decimal string form and must never be parsed
	// into a float-backed number type.
	ThreadID string `json:"thread_id"`

	// Title is the thread title shown in the inbox. For one-to-one threads
	// the server fills it with the other participant's name.
	Title string `json:"thread_title"`

	// Users holds the participants excluding the viewer, in server order.
	Users []ThreadUser `json:"users"`

	// LastActivityAt is the microsecond UNIX timestamp of the most recent
	// item in the thread.
	LastActivityAt int64 `json:"last_activity_at"`

	// LastMessagePreview is the text of the last item, truncated server-side.
	LastMessagePreview string `json:"last_permanent_item_text,omitempty"`
}
