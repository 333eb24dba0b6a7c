package store

import (
	"github.com/Masterminds/squirrel"

	"github.com/ospolov/go-dm-client/models"
)

const (
	threadsTable  = "threads"
	messagesTable = "messages"
)

var (
	threadColumns  = []string{"thread_id", "title", "users", "last_activity_at", "last_message", "fetched_at"}
	messageColumns = []string{"item_id", "thread_id", "sender_user_id", "item_type", "text", "timestamp_us", "fetched_at"}
)

// buildUpsertThreadQuery builds the INSERT OR UPDATE of one inbox thread.
// usersJSON is the encoded participant list; fetchedAt marks cache freshness.
func buildUpsertThreadQuery(thread models.Thread, usersJSON string, fetchedAt int64) (string, []any, error) {
	return squirrel.Insert(threadsTable).
		Columns(threadColumns...).
		Values(thread.ThreadID, thread.Title, usersJSON, thread.LastActivityAt, thread.LastMessagePreview, fetchedAt).
		Suffix(`ON CONFLICT (thread_id) DO UPDATE SET
			title = excluded.title,
			users = excluded.users,
			last_activity_at = excluded.last_activity_at,
			last_message = excluded.last_message,
			fetched_at = excluded.fetched_at`).
		ToSql()
}

func buildSelectThreadsQuery() (string, []any, error) {
	return squirrel.Select(threadColumns...).
		From(threadsTable).
		OrderBy("last_activity_at DESC").
		ToSql()
}

func buildUpsertMessageQuery(msg models.Message, fetchedAt int64) (string, []any, error) {
	return squirrel.Insert(messagesTable).
		Columns(messageColumns...).
		Values(msg.ItemID, msg.ThreadID, msg.SenderUserID, string(msg.ItemType), msg.Text, msg.TimestampMicros, fetchedAt).
		Suffix(`ON CONFLICT (item_id) DO UPDATE SET
			text = excluded.text,
			item_type = excluded.item_type,
			fetched_at = excluded.fetched_at`).
		ToSql()
}

func buildSelectMessagesQuery(threadID string) (string, []any, error) {
	return squirrel.Select(messageColumns...).
		From(messagesTable).
		Where(squirrel.Eq{"thread_id": threadID}).
		OrderBy("timestamp_us DESC").
		ToSql()
}
