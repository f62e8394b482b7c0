package fragment

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StreamClosedMsg is emitted when the trigger stream shuts down for good
// (context cancelled).
type StreamClosedMsg struct{}

// refreshEvent is the JSON payload of a server-pushed refresh event.
type refreshEvent struct {
	Trigger string `json:"trigger"`
}

// TriggerStream receives server-pushed trigger events over SSE so the
// console refreshes when another client changes data. The stream reconnects
// with backoff until its context is cancelled.
type TriggerStream struct {
	ch chan TriggerMsg
}

// OpenTriggerStream connects to the server's /events stream and starts a
// reader goroutine. The stream stops when ctx is cancelled.
func (c *Client) OpenTriggerStream(ctx context.Context) *TriggerStream {
	s := &TriggerStream{ch: make(chan TriggerMsg, 8)}
	go s.run(ctx, c)
	return s
}

// Next returns a command that waits for the next server-pushed trigger.
// Re-issue it after each TriggerMsg to keep listening.
func (s *TriggerStream) Next() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-s.ch
		if !ok {
			return StreamClosedMsg{}
		}
		return msg
	}
}

// run connects, reads events, and reconnects with backoff. Every
// reconnect waits out the backoff, including clean stream ends, so a
// server answering instantly (401, proxy error page, immediate EOF) can
// never drive a tight request loop.
func (s *TriggerStream) run(ctx context.Context, c *Client) {
	defer close(s.ch)

	backoff := time.Second
	for {
		started := time.Now()
		err := s.read(ctx, c)
		if ctx.Err() != nil {
			return
		}

		// A connection that stayed up long enough to outlive the server's
		// keepalive pings earns a fresh backoff.
		if err == nil && time.Since(started) >= time.Minute {
			backoff = time.Second
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
		}
	}
}

// read holds one SSE connection open and forwards refresh events.
func (s *TriggerStream) read(ctx context.Context, c *Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// No client timeout: the stream stays open until the context ends.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Anything that is not an event stream (401 from a bad token, 404,
	// a proxy error page) must count as a failed connection.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return fmt.Errorf("event stream: unexpected content type %q", ct)
	}

	var event string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if event != "refresh" {
				continue // pings keep the connection alive, nothing more
			}
			var ev refreshEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				continue
			}
			if ev.Trigger == "" {
				continue
			}
			select {
			case s.ch <- TriggerMsg{Name: ev.Trigger}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case line == "":
			event = ""
		}
	}
	return scanner.Err()
}
