package ports

import (
	"context"

	"github.com/aretw0/loadbank/pkg/domain"
)

// Invoker runs one invocation of the serial interface.
// Implementations never return a Go error: every outcome, including spawn
// failures and timeouts, is reported through the Result kind.
type Invoker interface {
	Invoke(ctx context.Context, inv domain.Invocation) domain.Result
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, inv domain.Invocation) domain.Result

// Invoke calls f(ctx, inv).
func (f InvokerFunc) Invoke(ctx context.Context, inv domain.Invocation) domain.Result {
	return f(ctx, inv)
}
