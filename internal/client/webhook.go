package client

import (
	"context"
	"errors"
	"time"
)

// ChatWebhook relays chat messages to a workflow-automation webhook.
type ChatWebhook struct {
	url     string
	timeout time.Duration
}

// NewChatWebhook builds the relay. An empty url leaves it unconfigured.
func NewChatWebhook(url string, timeout time.Duration) *ChatWebhook {
	return &ChatWebhook{url: url, timeout: timeout}
}

// ErrUnexpectedReply means the webhook answered with an unknown shape.
var ErrUnexpectedReply = errors.New("unexpected webhook reply")

type chatRequest struct {
	Message string `json:"message"`
}

type chatReplyItem struct {
	Output string `json:"output"`
}

// Ask forwards message and returns the output of the first reply item. An
// empty output is returned as "" with no error.
func (w *ChatWebhook) Ask(ctx context.Context, message string) (string, error) {
	if w == nil || w.url == "" {
		return "", ErrNotConfigured
	}
	var items []chatReplyItem
	if err := postJSON(ctx, w.url, nil, w.timeout, chatRequest{Message: message}, &items); err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", ErrUnexpectedReply
	}
	return items[0].Output, nil
}

// EventWebhook posts arbitrary JSON payloads, used for event notifications.
type EventWebhook struct {
	url     string
	timeout time.Duration
}

// NewEventWebhook builds the poster.
func NewEventWebhook(url string, timeout time.Duration) *EventWebhook {
	return &EventWebhook{url: url, timeout: timeout}
}

// Enabled reports whether a url is configured.
func (w *EventWebhook) Enabled() bool {
	return w != nil && w.url != ""
}

// Post sends payload and ignores the response body.
func (w *EventWebhook) Post(ctx context.Context, payload any) error {
	if !w.Enabled() {
		return ErrNotConfigured
	}
	return postJSON(ctx, w.url, nil, w.timeout, payload, nil)
}
