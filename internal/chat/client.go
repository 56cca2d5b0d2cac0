// Package chat implements the client-side chat synchronization core: the
// session store, the active-conversation selector, message reconciliation,
// the outbound send pipeline and read-state tracking. The remote backend
// owns all business rules; this package owns one consistent local view.
package chat

import (
	"context"
	"sync"

	"github.com/velorent/rentchat/internal/bus"
	"github.com/velorent/rentchat/internal/identity"
	"github.com/velorent/rentchat/internal/realtime"
	"github.com/velorent/rentchat/internal/rest"
	"go.uber.org/zap"
)

// Client is the chat core coordinator. All state transitions run under one
// mutex: user actions, push events, send completions and refreshes may
// interleave freely, but each mutation runs to completion before the next.
type Client struct {
	identity *identity.Identity
	api      *rest.Client
	bus      *bus.Bus
	logger   *zap.Logger

	mu            sync.Mutex
	sessions      []*Session
	lastErr       error
	active        *Session
	pendingTarget string
	messages      []Message // displayed list for the active conversation

	cancel context.CancelFunc
}

// NewClient creates the chat core for one authenticated user.
func NewClient(id *identity.Identity, api *rest.Client, b *bus.Bus, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		identity: id,
		api:      api,
		bus:      b,
		logger:   logger,
	}
}

// Start subscribes to inbound push events on the bus and routes them until
// Stop or context cancellation.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	ch, unsub := c.bus.Subscribe("push.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				if pm, ok := evt.Payload.(realtime.PushMessage); ok {
					c.handlePush(pm)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the push routing loop.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Sessions returns the current session list. The returned sessions are a
// read-only snapshot: each refresh replaces them wholesale.
func (c *Client) Sessions() []*Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Messages returns a copy of the displayed message list for the active
// conversation.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ActiveID returns the active conversation's session id, or "".
func (c *Client) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.ID
}

// Err returns the last refresh/store error, or nil after a successful
// refresh.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// UserID returns the identity this core acts for.
func (c *Client) UserID() string {
	return c.identity.UserID
}
