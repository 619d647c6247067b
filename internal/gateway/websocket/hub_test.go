package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecell/codecell/internal/common/logger"
	"github.com/codecell/codecell/internal/events"
	"github.com/codecell/codecell/internal/events/bus"
	ws "github.com/codecell/codecell/pkg/websocket"
)

func newTestHub(t *testing.T) (*Hub, *logger.Logger) {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "console"})
	require.NoError(t, err)

	hub := NewHub(ws.NewDispatcher(), log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, log
}

func recvMessage(t *testing.T, c *Client) *ws.Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for client message")
		return nil
	}
}

func expectNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BroadcastToSessionRoutesOnlySubscribers(t *testing.T) {
	hub, log := newTestHub(t)

	sub := NewClient("sub", nil, hub, log)
	other := NewClient("other", nil, hub, log)
	hub.Register(sub)
	hub.Register(other)

	hub.SubscribeToSession(sub, "s1")

	msg, err := ws.NewNotification(ws.ActionExecutionOutput, map[string]any{"sessionId": "s1"})
	require.NoError(t, err)
	hub.BroadcastToSession("s1", msg)

	got := recvMessage(t, sub)
	assert.Equal(t, ws.ActionExecutionOutput, got.Action)
	assert.Equal(t, ws.MessageTypeNotification, got.Type)
	expectNoMessage(t, other)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub, log := newTestHub(t)

	c := NewClient("c", nil, hub, log)
	hub.Register(c)
	hub.SubscribeToSession(c, "s1")
	hub.UnsubscribeFromSession(c, "s1")

	msg, err := ws.NewNotification(ws.ActionExecutionOutput, map[string]any{"sessionId": "s1"})
	require.NoError(t, err)
	hub.BroadcastToSession("s1", msg)

	expectNoMessage(t, c)
}

func TestHub_ConcurrentSubscribeAndBroadcast(t *testing.T) {
	hub, log := newTestHub(t)

	msg, err := ws.NewNotification(ws.ActionExecutionOutput, map[string]any{"sessionId": "s1"})
	require.NoError(t, err)

	// Subscriber churn on one goroutine, broadcasts on another. Run with
	// -race: broadcasting must not observe the subscriber map mid-mutation.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			c := NewClient(fmt.Sprintf("c%d", i), nil, hub, log)
			hub.SubscribeToSession(c, "s1")
			hub.UnsubscribeFromSession(c, "s1")
		}
	}()
	for i := 0; i < 500; i++ {
		hub.BroadcastToSession("s1", msg)
	}
	<-done
}

func TestExecutionBroadcaster_RelaysBusEvents(t *testing.T) {
	hub, log := newTestHub(t)

	memBus := bus.NewMemoryEventBus(log)
	t.Cleanup(memBus.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	RegisterExecutionNotifications(ctx, memBus, hub, log)

	c := NewClient("c", nil, hub, log)
	hub.Register(c)
	hub.SubscribeToSession(c, "s1")

	event := bus.NewEvent(events.ExecutionOutput, "runner", map[string]any{
		"sessionId": "s1",
		"line":      "hello\n",
		"stream":    "stdout",
	})
	require.NoError(t, memBus.Publish(context.Background(), events.BuildExecutionOutputSubject("s1"), event))

	got := recvMessage(t, c)
	assert.Equal(t, ws.ActionExecutionOutput, got.Action)

	var payload map[string]any
	require.NoError(t, got.ParsePayload(&payload))
	assert.Equal(t, "hello\n", payload["line"])
	assert.Equal(t, "stdout", payload["stream"])

	// Events for other sessions are not delivered to this client.
	otherEvent := bus.NewEvent(events.ExecutionOutput, "runner", map[string]any{
		"sessionId": "s2",
		"line":      "nope\n",
		"stream":    "stdout",
	})
	require.NoError(t, memBus.Publish(context.Background(), events.BuildExecutionOutputSubject("s2"), otherEvent))
	expectNoMessage(t, c)
}

func TestExecutionBroadcaster_CompletedAndStateChanged(t *testing.T) {
	hub, log := newTestHub(t)

	memBus := bus.NewMemoryEventBus(log)
	t.Cleanup(memBus.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	RegisterExecutionNotifications(ctx, memBus, hub, log)

	c := NewClient("c", nil, hub, log)
	hub.Register(c)
	hub.SubscribeToSession(c, "s1")

	completed := bus.NewEvent(events.ExecutionCompleted, "runner", map[string]any{
		"sessionId": "s1",
		"stdout":    "a\n",
		"stderr":    "",
		"exitCode":  0,
	})
	require.NoError(t, memBus.Publish(context.Background(), events.BuildExecutionCompletedSubject("s1"), completed))
	assert.Equal(t, ws.ActionExecutionCompleted, recvMessage(t, c).Action)

	state := bus.NewEvent(events.ExecutionStateChanged, "runner", map[string]any{
		"sessionId": "s1",
		"isRunning": false,
	})
	require.NoError(t, memBus.Publish(context.Background(), events.BuildExecutionStateChangedSubject("s1"), state))
	assert.Equal(t, ws.ActionExecutionStateChanged, recvMessage(t, c).Action)
}
