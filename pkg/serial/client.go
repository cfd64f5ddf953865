package serial

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/loadbank/internal/logging"
)

// Client issues commands to the controller over a framed byte stream.
// Calls are serialised; the protocol has no request ids.
type Client struct {
	mu     sync.Mutex
	rw     io.ReadWriter
	logger *slog.Logger
}

// NewClient creates a Client over rw, typically a *Port.
func NewClient(rw io.ReadWriter, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{rw: rw, logger: logger}
}

// roundTrip sends one request frame and reads one response frame.
func (c *Client) roundTrip(req []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := WriteFrame(c.rw, req); err != nil {
		return nil, fmt.Errorf("write %q: %w", bytes.TrimSpace(req), err)
	}
	resp, err := ReadFrame(c.rw)
	if err != nil {
		return nil, fmt.Errorf("read response to %q: %w", bytes.TrimSpace(req), err)
	}
	c.logger.Debug("serial round trip", "request", req, "response", resp)
	return resp, nil
}

// QueryZCS reports whether zero-crossing switching is enabled.
func (c *Client) QueryZCS() (bool, error) {
	resp, err := c.roundTrip(reqZCSQuery)
	if err != nil {
		return false, err
	}
	return bytes.HasPrefix(resp, respZCSOn), nil
}

// SetZCS enables or disables zero-crossing switching and returns the new state.
func (c *Client) SetZCS(on bool) (bool, error) {
	req := reqZCSOff
	if on {
		req = reqZCSOn
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return false, err
	}
	if err := checkAck(resp); err != nil {
		return false, err
	}
	return c.QueryZCS()
}

// QuerySwitches returns the current switch string.
func (c *Client) QuerySwitches() (string, error) {
	resp, err := c.roundTrip(reqSwitchQuery)
	if err != nil {
		return "", err
	}
	mask, err := DecodeSwitches(resp)
	if err != nil {
		return "", err
	}
	return FormatSwitches(mask), nil
}

// SetSwitches applies a switch string and returns the state read back.
func (c *Client) SetSwitches(s string) (string, error) {
	mask, err := ParseSwitches(s)
	if err != nil {
		return "", err
	}
	resp, err := c.roundTrip(EncodeSwitches(mask))
	if err != nil {
		return "", err
	}
	if err := checkAck(resp); err != nil {
		return "", err
	}
	return c.QuerySwitches()
}

// QueryPhases returns the current phase string.
func (c *Client) QueryPhases() (string, error) {
	resp, err := c.roundTrip(reqPhaseQuery)
	if err != nil {
		return "", err
	}
	p, err := DecodePhases(resp)
	if err != nil {
		return "", err
	}
	return FormatPhases(p)
}

// SetPhases applies a phase string and returns the state read back.
func (c *Client) SetPhases(s string) (string, error) {
	p, err := ParsePhases(s)
	if err != nil {
		return "", err
	}
	resp, err := c.roundTrip(EncodePhases(p))
	if err != nil {
		return "", err
	}
	if err := checkAck(resp); err != nil {
		return "", err
	}
	return c.QueryPhases()
}
