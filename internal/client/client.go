package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
)

// ErrNotConfigured is returned when a client has no endpoint or credentials.
var ErrNotConfigured = errors.New("client not configured")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Code, e.Body)
}

// postJSON sends body as JSON and decodes a 2xx response into out.
func postJSON(ctx context.Context, url string, headers map[string]string, timeout time.Duration, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(url)
	agent.JSON(body)
	for k, v := range headers {
		agent.Set(k, v)
	}
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("prepare request: %w", err)
	}

	code, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("post %s: %w", url, errors.Join(errs...))
	}
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return &StatusError{Code: code, Body: preview(string(raw), 200)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// preview cuts s to at most max bytes without splitting a UTF-8 sequence.
func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
