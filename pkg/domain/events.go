package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventInvokeStart  EventType = "invoke_start"
	EventInvokeFinish EventType = "invoke_finish"
)

// InvokeEvent describes one invocation crossing a lifecycle boundary.
type InvokeEvent struct {
	Timestamp  time.Time  `json:"timestamp"`
	Type       EventType  `json:"type"`
	Invocation Invocation `json:"invocation"`
	Result     *Result    `json:"result,omitempty"` // Set on EventInvokeFinish only
}

// InvokeHooks defines callbacks for invoker observability.
// Hooks run synchronously on the request goroutine and must not block.
type InvokeHooks struct {
	OnStart  func(context.Context, *InvokeEvent)
	OnFinish func(context.Context, *InvokeEvent)
}

// Merge returns hooks that call h first and then other.
func (h InvokeHooks) Merge(other InvokeHooks) InvokeHooks {
	return InvokeHooks{
		OnStart:  chain(h.OnStart, other.OnStart),
		OnFinish: chain(h.OnFinish, other.OnFinish),
	}
}

func chain(a, b func(context.Context, *InvokeEvent)) func(context.Context, *InvokeEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *InvokeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
