//go:build !unix

package serial

import "context"

// LockFile is only implemented on Unix systems.
func LockFile(ctx context.Context, path string) (func() error, error) {
	return nil, ErrUnsupported
}
