// Package rest implements the HTTP client for the rental platform's chat
// API. Every call requires the injected identity's bearer token; the
// absence of a token aborts client-side with ErrNoCredential.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/velorent/rentchat/internal/identity"
	"go.uber.org/zap"
)

// Client talks to the chat endpoints of the platform backend.
type Client struct {
	baseURL  string
	identity *identity.Identity
	http     *http.Client
	logger   *zap.Logger
}

// New creates a backend client. timeout of zero means requests are not
// bounded; a hung request then leaves its caller's optimistic state in
// place, which the product accepts.
func New(baseURL string, id *identity.Identity, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		identity: id,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Session json.RawMessage `json:"session"`
	Error   string          `json:"error"`
}

// do issues one authenticated request and returns the decoded envelope.
// wantStatus of zero accepts any 2xx.
func (c *Client) do(ctx context.Context, op, method, path string, body any, wantStatus int) (*envelope, error) {
	if !c.identity.HasCredential() {
		return nil, fmt.Errorf("%s: %w", op, ErrNoCredential)
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.identity.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if wantStatus != 0 {
		ok = resp.StatusCode == wantStatus
	}
	if !ok {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Detail: env.Error}
	}

	env := &envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			return nil, fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return env, nil
}

// ListSessions fetches all chat sessions for a user, each carrying its raw
// message history.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	env, err := c.do(ctx, "list sessions", http.MethodGet, "/chat/sessions/"+url.PathEscape(userID), nil, 0)
	if err != nil {
		return nil, err
	}
	var sessions []Session
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &sessions); err != nil {
			return nil, fmt.Errorf("list sessions: decode data: %w", err)
		}
	}
	return sessions, nil
}

// FindDirectSession looks up an existing direct session between exactly two
// participants. Returns (nil, nil) when no such session exists — both an
// empty result array and a 404 count as absent, not as errors.
func (c *Client) FindDirectSession(ctx context.Context, participant1, participant2 string) (*Session, error) {
	q := url.Values{}
	q.Set("participant1", participant1)
	q.Set("participant2", participant2)

	env, err := c.do(ctx, "find direct session", http.MethodGet, "/chat/sessions/direct?"+q.Encode(), nil, 0)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var sessions []Session
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &sessions); err != nil {
			return nil, fmt.Errorf("find direct session: decode data: %w", err)
		}
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

type createSessionRequest struct {
	Type           string   `json:"type"`
	ParticipantIDs []string `json:"participantIds"`
	ReservationID  string   `json:"reservation_id,omitempty"`
}

// CreateDirectSession creates a new direct session between two participants,
// optionally tied to a reservation.
func (c *Client) CreateDirectSession(ctx context.Context, participant1, participant2, reservationID string) (*Session, error) {
	body := createSessionRequest{
		Type:           "direct",
		ParticipantIDs: []string{participant1, participant2},
		ReservationID:  reservationID,
	}
	env, err := c.do(ctx, "create session", http.MethodPost, "/chat/create/chatSessions", body, 0)
	if err != nil {
		return nil, err
	}
	if len(env.Session) == 0 {
		return nil, fmt.Errorf("create session: response carries no session")
	}
	var s Session
	if err := json.Unmarshal(env.Session, &s); err != nil {
		return nil, fmt.Errorf("create session: decode session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session server-side.
func (c *Client) DeleteSession(ctx context.Context, chatID string) error {
	_, err := c.do(ctx, "delete session", http.MethodDelete, "/chat/"+url.PathEscape(chatID), nil, 0)
	return err
}

type sendMessageRequest struct {
	ChatID         string `json:"chatId"`
	SenderID       string `json:"senderId"`
	MessageContent string `json:"messageContent"`
	MediaURL       string `json:"mediaUrl,omitempty"`
}

// SendMessage posts a message and returns the server-confirmed record. The
// backend signals acceptance with 201; anything else is a failure.
func (c *Client) SendMessage(ctx context.Context, chatID, senderID, content, mediaURL string) (*Message, error) {
	body := sendMessageRequest{
		ChatID:         chatID,
		SenderID:       senderID,
		MessageContent: content,
		MediaURL:       mediaURL,
	}
	env, err := c.do(ctx, "send message", http.MethodPost, "/chat", body, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	var m Message
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("send message: decode data: %w", err)
		}
	}
	return &m, nil
}

type markReadRequest struct {
	CurrentUserID string `json:"currentUserId"`
}

// MarkRead marks all messages in a session read for the given user.
func (c *Client) MarkRead(ctx context.Context, chatID, userID string) error {
	_, err := c.do(ctx, "mark read", http.MethodPut, "/vehicle/read_messages/"+url.PathEscape(chatID), markReadRequest{CurrentUserID: userID}, 0)
	return err
}
