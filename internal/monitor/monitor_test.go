package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/wifiprov/internal/machine"
)

type staticSource struct {
	mu       sync.Mutex
	snapshot machine.Snapshot
}

func (s *staticSource) Snapshot() machine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func newTestServer(t *testing.T, metrics http.Handler) (*Server, *httptest.Server) {
	t.Helper()
	source := &staticSource{snapshot: machine.Snapshot{
		State: machine.StateProvisioning,
		Mode:  "access-point",
	}}
	s := New(&Config{Addr: "127.0.0.1:0"}, source, metrics)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.hub.close(context.Background())
		ts.Close()
	})
	return s, ts
}

func dialEvents(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStatus(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap machine.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, machine.StateProvisioning, snap.State)
	assert.Equal(t, "access-point", snap.Mode)
	assert.False(t, snap.Status.Connected)
}

func TestEvents_SnapshotThenTransitions(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dialEvents(t, ts)

	first := readMessage(t, conn)
	assert.Equal(t, TypeSnapshot, first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, machine.StateProvisioning, first.Snapshot.State)
	assert.Equal(t, 1, s.GetActiveConnections())

	s.OnTransition(machine.Transition{
		From:   machine.StateProvisioning,
		To:     machine.StateConnecting,
		Reason: "credentials submitted",
	})

	next := readMessage(t, conn)
	assert.Equal(t, TypeTransition, next.Type)
	require.NotNil(t, next.Transition)
	assert.Equal(t, machine.StateProvisioning, next.Transition.From)
	assert.Equal(t, machine.StateConnecting, next.Transition.To)
	assert.Equal(t, "credentials submitted", next.Transition.Reason)
}

func TestEvents_CloseDisconnectsClients(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dialEvents(t, ts)
	readMessage(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.hub.close(ctx)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Equal(t, 0, s.GetActiveConnections())

	// broadcasting after close is a no-op
	s.OnTransition(machine.Transition{To: machine.StateConnected})
}

func TestEvents_RejectsPlainHTTP(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/events")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBroadcast_DropsSlowClient(t *testing.T) {
	h := newHub()
	c := &client{send: make(chan Message, 2), remoteAddr: "test"}
	require.True(t, h.register(c, func() Message {
		return snapshotMessage(machine.Snapshot{State: machine.StateProvisioning})
	}))

	h.broadcast(transitionMessage(machine.Transition{To: machine.StateConnecting}))
	assert.Equal(t, 1, h.count())

	h.broadcast(transitionMessage(machine.Transition{To: machine.StateConnected}))
	assert.Equal(t, 0, h.count())

	// queued messages are still delivered before the closed channel
	msg, ok := <-c.send
	require.True(t, ok)
	assert.Equal(t, TypeSnapshot, msg.Type)
	msg, ok = <-c.send
	require.True(t, ok)
	assert.Equal(t, machine.StateConnecting, msg.Transition.To)
	_, ok = <-c.send
	assert.False(t, ok)
}

func TestRegister_TransitionDuringSnapshotIsDelivered(t *testing.T) {
	h := newHub()
	c := &client{send: make(chan Message, sendBuffer), remoteAddr: "test"}

	building := make(chan struct{})
	broadcasted := make(chan struct{})
	go func() {
		<-building
		h.broadcast(transitionMessage(machine.Transition{
			From: machine.StateProvisioning,
			To:   machine.StateConnecting,
		}))
		close(broadcasted)
	}()

	require.True(t, h.register(c, func() Message {
		close(building)
		// give the broadcast a chance to race the registration
		time.Sleep(20 * time.Millisecond)
		return snapshotMessage(machine.Snapshot{State: machine.StateProvisioning})
	}))
	<-broadcasted

	first := <-c.send
	assert.Equal(t, TypeSnapshot, first.Type)
	second := <-c.send
	require.Equal(t, TypeTransition, second.Type)
	assert.Equal(t, machine.StateConnecting, second.Transition.To)
}

func TestMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "wifiprov_machine_connected 0\n")
	})
	_, ts := newTestServer(t, metrics)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "wifiprov_machine_connected")
}

func TestMetrics_NotConfigured(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartShutdown(t *testing.T) {
	s := New(&Config{Addr: "127.0.0.1:0"}, &staticSource{}, nil)
	assert.Empty(t, s.Addr())

	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())
	assert.Error(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/status")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
