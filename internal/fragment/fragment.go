// Package fragment is the partial-update client used by the academy
// console. It dispatches HTTP requests for server-rendered HTML fragments
// and reports their lifecycle as typed Bubble Tea messages: a StartedMsg
// before the round trip and a CompletedMsg after, carrying the status
// code, the fragment body, the swap target, and any out-of-band trigger
// names from the HX-Trigger response header.
package fragment

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// maxFragmentSize caps how much of a fragment body is read.
const maxFragmentSize = 1 << 20 // 1MB

// triggerHeader carries out-of-band trigger names, comma separated.
const triggerHeader = "HX-Trigger"

// Request describes one partial-update request. TriggerID identifies the
// originating element (used to scope its loading indicator); Target names
// the slot the response content is destined for.
type Request struct {
	TriggerID string
	Target    string
	Method    string
	Path      string
	Form      url.Values
}

// StartedMsg is emitted before the request is dispatched.
type StartedMsg struct {
	TriggerID string
	Target    string
}

// CompletedMsg is emitted after the request finishes, whether it succeeded
// or failed. Status is 0 when the round trip itself failed, with Err set.
type CompletedMsg struct {
	TriggerID string
	Target    string
	Status    int
	Body      string
	Triggers  []string
	Err       error
}

// TriggerMsg is an out-of-band trigger signal. It is emitted both for
// HX-Trigger names on completed requests and for server-pushed refresh
// events from the SSE stream.
type TriggerMsg struct {
	Name string
}

// Client dispatches fragment requests against one server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a fragment client for the given server base URL.
// token, when non-empty, is sent as a bearer token on every request.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// BaseURL returns the server base URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Dispatch performs the request asynchronously. The returned command yields
// StartedMsg first, then CompletedMsg once the round trip finishes. There
// are no retries; transport failures complete with status 0.
func (c *Client) Dispatch(req Request) tea.Cmd {
	return tea.Sequence(
		func() tea.Msg {
			return StartedMsg{TriggerID: req.TriggerID, Target: req.Target}
		},
		func() tea.Msg {
			return c.Do(req)
		},
	)
}

// Do executes the round trip synchronously and builds the completion
// message. Most callers want Dispatch; Do exists for non-TUI use.
func (c *Client) Do(req Request) CompletedMsg {
	out := CompletedMsg{TriggerID: req.TriggerID, Target: req.Target}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Form) > 0 {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequest(method, c.baseURL+req.Path, body)
	if err != nil {
		out.Err = fmt.Errorf("build request: %w", err)
		return out
	}

	httpReq.Header.Set("Accept", "text/html")
	if len(req.Form) > 0 {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		out.Err = fmt.Errorf("dispatch %s %s: %w", method, req.Path, err)
		return out
	}
	defer resp.Body.Close()

	out.Status = resp.StatusCode
	out.Triggers = parseTriggers(resp.Header.Get(triggerHeader))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentSize))
	if err != nil {
		out.Err = fmt.Errorf("read fragment body: %w", err)
		return out
	}
	out.Body = string(data)

	return out
}

// parseTriggers splits an HX-Trigger header value into trigger names.
func parseTriggers(header string) []string {
	if header == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(header, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// TriggerCmds converts the out-of-band trigger names on a completion into
// commands yielding TriggerMsg, so list regions refresh independently of
// the request's own target.
func TriggerCmds(msg CompletedMsg) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(msg.Triggers))
	for _, name := range msg.Triggers {
		cmds = append(cmds, func() tea.Msg { return TriggerMsg{Name: name} })
	}
	return cmds
}
