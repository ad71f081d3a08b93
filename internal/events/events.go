// Package events carries domain events between services. Dispatch is
// synchronous: handlers run in the publishing request, and handler errors
// are logged rather than propagated so a notification failure never fails
// the write that triggered it.
package events

import (
	"context"
	"log/slog"
	"sync"

	"haven/internal/middleware"
)

// ArticleCreated is published after an article is committed.
type ArticleCreated struct {
	ArticleID       uint
	Slug            string
	Title           string
	AuthorProfileID uint
	AuthorUserID    uint
	AuthorUsername  string
}

// CommentCreated is published after a comment is committed.
type CommentCreated struct {
	CommentID       uint
	ArticleID       uint
	ArticleSlug     string
	ArticleTitle    string
	ArticleAuthor   string
	CommenterUserID uint
	Commenter       string
	Body            string
}

// Handler reacts to domain events.
type Handler interface {
	HandleArticleCreated(ctx context.Context, e ArticleCreated) error
	HandleCommentCreated(ctx context.Context, e CommentCreated) error
}

// Dispatcher fans events out to subscribed handlers in subscription order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a handler for all events.
func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// ArticleCreated delivers the event to every handler.
func (d *Dispatcher) ArticleCreated(ctx context.Context, e ArticleCreated) {
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, h := range handlers {
		if err := h.HandleArticleCreated(ctx, e); err != nil {
			middleware.Logger.ErrorContext(ctx, "article created handler failed",
				slog.String("slug", e.Slug),
				slog.String("error", err.Error()),
			)
		}
	}
}

// CommentCreated delivers the event to every handler.
func (d *Dispatcher) CommentCreated(ctx context.Context, e CommentCreated) {
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, h := range handlers {
		if err := h.HandleCommentCreated(ctx, e); err != nil {
			middleware.Logger.ErrorContext(ctx, "comment created handler failed",
				slog.String("slug", e.ArticleSlug),
				slog.String("error", err.Error()),
			)
		}
	}
}
