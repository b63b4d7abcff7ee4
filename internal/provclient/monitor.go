package provclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/muurk/wifiprov/internal/machine"
	"github.com/muurk/wifiprov/internal/monitor"
	"github.com/muurk/wifiprov/internal/version"
)

// FetchStatus reads the machine snapshot from a monitor endpoint
func FetchStatus(ctx context.Context, httpClient *http.Client, monitorURL string) (machine.Snapshot, error) {
	var snap machine.Snapshot

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(monitorURL, "/")+"/status", nil)
	if err != nil {
		return snap, NewNetworkError("failed to create status request", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := httpClient.Do(req)
	if err != nil {
		return snap, NewNetworkError("monitor unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return snap, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, NewParseError("failed to parse status response", err)
	}
	return snap, nil
}

// EventsURL converts a monitor base URL to its WebSocket event URL
func EventsURL(monitorURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(monitorURL, "/"))
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("invalid monitor URL %q: %v", monitorURL, err))
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", NewValidationError(fmt.Sprintf("unsupported monitor URL scheme %q", u.Scheme))
	}
	u.Path += "/events"
	return u.String(), nil
}

// Watch streams monitor messages to fn until ctx ends or the stream closes
func Watch(ctx context.Context, monitorURL string, fn func(monitor.Message)) error {
	eventsURL, err := EventsURL(monitorURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, eventsURL, nil)
	if err != nil {
		return NewNetworkError("failed to open event stream", err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var msg monitor.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return NewNetworkError("event stream closed", err)
		}
		fn(msg)
	}
}
