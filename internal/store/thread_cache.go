package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ospolov/go-dm-client/internal/logger"
	"github.com/ospolov/go-dm-client/models"
)

// threadCache is the sqlite-backed implementation of [ThreadCache].
type threadCache struct {
	db     *DB
	logger *logger.Logger

	now func() time.Time
}

// NewThreadCache constructs a [ThreadCache] backed by the provided cache
// database.
func NewThreadCache(db *DB, log *logger.Logger) ThreadCache {
	log.Debug().Msg("creating thread cache repository")
	return &threadCache{db: db, logger: log, now: time.Now}
}

// SaveThreads implements [ThreadCache]. The whole batch is written in one
// transaction so a failed upsert leaves the cache at its previous state.
func (c *threadCache) SaveThreads(ctx context.Context, threads []models.Thread) error {
	if len(threads) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache tx: %w", err)
	}
	defer tx.Rollback()

	fetchedAt := c.now().Unix()
	for _, thread := range threads {
		usersJSON, err := json.Marshal(thread.Users)
		if err != nil {
			return fmt.Errorf("encode thread users: %w", err)
		}

		query, args, err := buildUpsertThreadQuery(thread, string(usersJSON), fetchedAt)
		if err != nil {
			return fmt.Errorf("build thread upsert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			c.logger.Err(err).Str("func", "*threadCache.SaveThreads").Msg("error upserting thread")
			return fmt.Errorf("upsert thread: %w", err)
		}
	}

	return tx.Commit()
}

// Threads implements [ThreadCache].
func (c *threadCache) Threads(ctx context.Context) ([]models.Thread, error) {
	query, args, err := buildSelectThreadsQuery()
	if err != nil {
		return nil, fmt.Errorf("build threads select: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Err(err).Str("func", "*threadCache.Threads").Msg("error querying cached threads")
		return nil, fmt.Errorf("query cached threads: %w", err)
	}
	defer rows.Close()

	threads := make([]models.Thread, 0)
	for rows.Next() {
		var (
			thread    models.Thread
			usersJSON string
			fetchedAt int64
		)
		if err = rows.Scan(&thread.ThreadID, &thread.Title, &usersJSON, &thread.LastActivityAt, &thread.LastMessagePreview, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan cached thread: %w", err)
		}
		if err = json.Unmarshal([]byte(usersJSON), &thread.Users); err != nil {
			return nil, fmt.Errorf("decode thread users: %w", err)
		}
		threads = append(threads, thread)
	}

	return threads, rows.Err()
}

// SaveMessages implements [ThreadCache].
func (c *threadCache) SaveMessages(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache tx: %w", err)
	}
	defer tx.Rollback()

	fetchedAt := c.now().Unix()
	for _, msg := range messages {
		query, args, err := buildUpsertMessageQuery(msg, fetchedAt)
		if err != nil {
			return fmt.Errorf("build message upsert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			c.logger.Err(err).Str("func", "*threadCache.SaveMessages").Msg("error upserting message")
			return fmt.Errorf("upsert message: %w", err)
		}
	}

	return tx.Commit()
}

// Messages implements [ThreadCache].
func (c *threadCache) Messages(ctx context.Context, threadID string) ([]models.Message, error) {
	query, args, err := buildSelectMessagesQuery(threadID)
	if err != nil {
		return nil, fmt.Errorf("build messages select: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Err(err).Str("func", "*threadCache.Messages").Msg("error querying cached messages")
		return nil, fmt.Errorf("query cached messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var (
			msg       models.Message
			itemType  string
			fetchedAt int64
		)
		if err = rows.Scan(&msg.ItemID, &msg.ThreadID, &msg.SenderUserID, &itemType, &msg.Text, &msg.TimestampMicros, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan cached message: %w", err)
		}
		msg.ItemType = models.ItemType(itemType)
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
