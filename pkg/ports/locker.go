package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a device lock.
type UnlockFunc func(ctx context.Context) error

// DeviceLocker serialises access to the load bank's serial device.
// It allows several gateway instances (or several processes on one host) to
// share a device without interleaving frames on the wire.
type DeviceLocker interface {
	// Lock attempts to acquire the lock for the given key (e.g., the device path).
	// It blocks until the lock is acquired or the context is canceled.
	// The TTL bounds how long a crashed holder can keep the lock (implementation specific).
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
