//go:build !linux

package serial

// Open is only implemented on Linux.
func Open(device string, baud int) (*Port, error) {
	return nil, ErrUnsupported
}
