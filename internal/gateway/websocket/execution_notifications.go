package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/codecell/codecell/internal/common/logger"
	"github.com/codecell/codecell/internal/events"
	"github.com/codecell/codecell/internal/events/bus"
	ws "github.com/codecell/codecell/pkg/websocket"
)

// ExecutionBroadcaster relays execution events from the bus to WebSocket
// clients subscribed to the owning session. It is the only consumer-side
// bridge between the supervisor and UI surfaces.
type ExecutionBroadcaster struct {
	hub           *Hub
	subscriptions []bus.Subscription
	logger        *logger.Logger
}

// RegisterExecutionNotifications wires the execution subjects to their
// WebSocket notification actions. The broadcaster closes with ctx.
func RegisterExecutionNotifications(ctx context.Context, eventBus bus.EventBus, hub *Hub, log *logger.Logger) *ExecutionBroadcaster {
	b := &ExecutionBroadcaster{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws-execution-broadcaster")),
	}
	if eventBus == nil {
		return b
	}

	b.subscribe(eventBus, events.BuildExecutionOutputWildcardSubject(), ws.ActionExecutionOutput)
	b.subscribe(eventBus, events.BuildExecutionCompletedWildcardSubject(), ws.ActionExecutionCompleted)
	b.subscribe(eventBus, events.BuildExecutionStateChangedWildcardSubject(), ws.ActionExecutionStateChanged)

	go func() {
		<-ctx.Done()
		b.Close()
	}()

	return b
}

// Close drops all bus subscriptions.
func (b *ExecutionBroadcaster) Close() {
	for _, sub := range b.subscriptions {
		if sub != nil && sub.IsValid() {
			_ = sub.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

func (b *ExecutionBroadcaster) subscribe(eventBus bus.EventBus, subject, action string) {
	sub, err := eventBus.Subscribe(subject, func(ctx context.Context, event *bus.Event) error {
		sessionID := extractSessionID(event.Data)
		if sessionID == "" {
			return nil
		}
		msg, err := ws.NewNotification(action, event.Data)
		if err != nil {
			b.logger.Error("failed to build websocket notification",
				zap.String("action", action), zap.Error(err))
			return nil
		}
		b.hub.BroadcastToSession(sessionID, msg)
		return nil
	})
	if err != nil {
		b.logger.Error("failed to subscribe to events",
			zap.String("subject", subject), zap.Error(err))
		return
	}
	b.subscriptions = append(b.subscriptions, sub)
}

func extractSessionID(data map[string]any) string {
	if data == nil {
		return ""
	}
	if id, ok := data["sessionId"].(string); ok {
		return id
	}
	return ""
}
