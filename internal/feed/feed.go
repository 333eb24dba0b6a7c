// Package feed implements cursor-based pagination as a lazy pull iterator.
//
// A Feed walks a paginated endpoint one page per fetch, in server order,
// until the server reports no further pages. It is finite and not
// restartable: once exhausted it stays exhausted, and there is no rewind.
package feed

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDone signals normal exhaustion, like io.EOF for readers.
	ErrDone = errors.New("feed exhausted")

	// ErrEmptyPages signals that the server kept returning empty pages while
	// claiming more data, and the abort guard tripped.
	ErrEmptyPages = errors.New("too many consecutive empty feed pages")
)

// defaultMaxEmptyPages bounds consecutive zero-item pages with has-more set
// before the feed aborts. Protects against a misbehaving server turning a
// listing into an infinite loop.
const defaultMaxEmptyPages = 3

// Page is one fetched page of items together with its continuation state.
type Page[T any] struct {
	Items   []T
	Cursor  string
	HasMore bool
}

// FetchFunc retrieves the page at cursor. An empty cursor requests the first
// page.
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Feed is a lazy iterator over a paginated endpoint. Not safe for concurrent
// use; a feed belongs to one consumer.
type Feed[T any] struct {
	fetch FetchFunc[T]

	cursor        string
	exhausted     bool
	emptyStreak   int
	maxEmptyPages int

	buffer []T
}

// New creates a feed over fetch. maxEmptyPages bounds consecutive empty
// pages before abort; zero or negative selects the default of 3.
func New[T any](fetch FetchFunc[T], maxEmptyPages int) *Feed[T] {
	if maxEmptyPages <= 0 {
		maxEmptyPages = defaultMaxEmptyPages
	}
	return &Feed[T]{fetch: fetch, maxEmptyPages: maxEmptyPages}
}

// Next returns the next item in server order, fetching pages on demand.
// Returns ErrDone once the feed is exhausted and ErrEmptyPages if the
// empty-page guard trips. A fetch error is returned as-is; the feed keeps
// its position, so a caller may call Next again after a transient failure.
func (f *Feed[T]) Next(ctx context.Context) (T, error) {
	var zero T

	for len(f.buffer) == 0 {
		if f.exhausted {
			return zero, ErrDone
		}

		page, err := f.fetch(ctx, f.cursor)
		if err != nil {
			return zero, fmt.Errorf("fetch feed page: %w", err)
		}

		f.cursor = page.Cursor
		if !page.HasMore {
			f.exhausted = true
		}

		if len(page.Items) == 0 {
			if f.exhausted {
				return zero, ErrDone
			}
			f.emptyStreak++
			if f.emptyStreak >= f.maxEmptyPages {
				f.exhausted = true
				return zero, ErrEmptyPages
			}
			continue
		}

		f.emptyStreak = 0
		f.buffer = page.Items
	}

	item := f.buffer[0]
	f.buffer = f.buffer[1:]
	return item, nil
}

// Collect drains the feed and returns all remaining items in order.
// ErrDone is consumed; any other error is returned with the items pulled so
// far.
func (f *Feed[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for {
		item, err := f.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrDone) {
				return items, nil
			}
			return items, err
		}
		items = append(items, item)
	}
}
