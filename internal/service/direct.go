package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ospolov/go-dm-client/internal/adapter"
	"github.com/ospolov/go-dm-client/internal/feed"
	"github.com/ospolov/go-dm-client/internal/logger"
	"github.com/ospolov/go-dm-client/internal/session"
	"github.com/ospolov/go-dm-client/internal/store"
	"github.com/ospolov/go-dm-client/internal/utils"
	"github.com/ospolov/go-dm-client/models"
)

type directService struct {
	api   adapter.APIClient
	sess  *session.State
	cache store.ThreadCache
	uuid  *utils.UUIDGenerator

	maxEmptyPages int
	logger        *logger.Logger
}

// NewDirectService constructs the messaging façade. cache may be nil, in
// which case cached reads report ErrCacheUnavailable and write-through is
// skipped.
func NewDirectService(api adapter.APIClient, sess *session.State, cache store.ThreadCache, maxEmptyPages int, log *logger.Logger) DirectService {
	return &directService{
		api:           api,
		sess:          sess,
		cache:         cache,
		uuid:          utils.NewUUIDGenerator(),
		maxEmptyPages: maxEmptyPages,
		logger:        log,
	}
}

// ListInbox implements [DirectService].
func (d *directService) ListInbox(ctx context.Context) ([]models.Thread, error) {
	if !d.sess.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}

	inbox := feed.New(func(ctx context.Context, cursor string) (feed.Page[models.Thread], error) {
		page, err := d.api.Inbox(ctx, cursor)
		if err != nil {
			return feed.Page[models.Thread]{}, err
		}
		return feed.Page[models.Thread]{
			Items:   page.Inbox.Threads,
			Cursor:  page.Inbox.OldestCursor,
			HasMore: page.Inbox.HasOlder,
		}, nil
	}, d.maxEmptyPages)

	threads, err := inbox.Collect(ctx)
	if err != nil {
		return nil, err
	}

	d.writeThrough(ctx, func(ctx context.Context) error {
		return d.cache.SaveThreads(ctx, threads)
	})
	return threads, nil
}

// CachedInbox implements [DirectService].
func (d *directService) CachedInbox(ctx context.Context) ([]models.Thread, error) {
	if d.cache == nil {
		return nil, ErrCacheUnavailable
	}
	return d.cache.Threads(ctx)
}

// ThreadMessages implements [DirectService].
func (d *directService) ThreadMessages(ctx context.Context, threadID string) ([]models.Message, error) {
	if !d.sess.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, fmt.Errorf("no thread id provided")
	}

	items := feed.New(func(ctx context.Context, cursor string) (feed.Page[models.Message], error) {
		page, err := d.api.Thread(ctx, threadID, cursor)
		if err != nil {
			return feed.Page[models.Message]{}, err
		}
		return feed.Page[models.Message]{
			Items:   page.Thread.Items,
			Cursor:  page.Thread.OldestCursor,
			HasMore: page.Thread.HasOlder,
		}, nil
	}, d.maxEmptyPages)

	messages, err := items.Collect(ctx)
	if err != nil {
		return nil, err
	}

	// the wire item payload does not carry the owning thread
	for i := range messages {
		messages[i].ThreadID = threadID
	}

	d.writeThrough(ctx, func(ctx context.Context) error {
		return d.cache.SaveMessages(ctx, messages)
	})
	return messages, nil
}

// CachedThreadMessages implements [DirectService].
func (d *directService) CachedThreadMessages(ctx context.Context, threadID string) ([]models.Message, error) {
	if d.cache == nil {
		return nil, ErrCacheUnavailable
	}
	return d.cache.Messages(ctx, threadID)
}

// SendText implements [DirectService]. One client context UUID is generated
// per logical send: the transport retries carry the same wire payload, so the
// server can deduplicate, while every new SendText call gets a fresh one.
func (d *directService) SendText(ctx context.Context, recipient, text string) (models.SendResult, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return models.SendResult{}, ErrValidationNoRecipient
	}
	if strings.TrimSpace(text) == "" {
		return models.SendResult{}, ErrValidationNoText
	}
	if !d.sess.IsAuthenticated() {
		return models.SendResult{}, ErrNotLoggedIn
	}

	// числовой получатель трактуется как user id, без lookup
	userID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		user, lookupErr := d.api.LookupUser(ctx, recipient)
		if lookupErr != nil {
			return models.SendResult{}, lookupErr
		}
		userID = user.UserID
	}

	return d.broadcast(ctx, adapter.BroadcastTextPayload{
		RecipientUserID: userID,
		Text:            text,
		ClientContext:   d.uuid.Generate(),
	})
}

// SendTextToThread implements [DirectService].
func (d *directService) SendTextToThread(ctx context.Context, threadID, text string) (models.SendResult, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return models.SendResult{}, ErrValidationNoThread
	}
	if strings.TrimSpace(text) == "" {
		return models.SendResult{}, ErrValidationNoText
	}
	if !d.sess.IsAuthenticated() {
		return models.SendResult{}, ErrNotLoggedIn
	}

	return d.broadcast(ctx, adapter.BroadcastTextPayload{
		ThreadID:      threadID,
		Text:          text,
		ClientContext: d.uuid.Generate(),
	})
}

func (d *directService) broadcast(ctx context.Context, payload adapter.BroadcastTextPayload) (models.SendResult, error) {
	resp, err := d.api.BroadcastText(ctx, payload)
	if err != nil {
		return models.SendResult{}, err
	}
	if resp.Payload == nil {
		return models.SendResult{}, fmt.Errorf("malformed send response")
	}

	d.logger.Info().Str("thread_id", resp.Payload.ThreadID).Msg("message sent")
	return *resp.Payload, nil
}

// CurrentUser implements [DirectService].
func (d *directService) CurrentUser(ctx context.Context) (models.User, error) {
	if !d.sess.IsAuthenticated() {
		return models.User{}, ErrNotLoggedIn
	}
	return d.api.CurrentUser(ctx)
}

// writeThrough runs a cache update, logging instead of failing: the network
// fetch already succeeded and stale cache is acceptable.
func (d *directService) writeThrough(ctx context.Context, save func(ctx context.Context) error) {
	if d.cache == nil {
		return
	}
	if err := save(ctx); err != nil {
		d.logger.Err(err).Str("func", "*directService.writeThrough").Msg("error updating local cache")
	}
}
