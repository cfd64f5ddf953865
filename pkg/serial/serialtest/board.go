// Package serialtest provides an in-memory load bank controller for tests.
package serialtest

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/aretw0/loadbank/pkg/serial"
)

// Board simulates the controller side of the frame protocol.
// Safe for concurrent use; the zero value is not usable, call NewBoard.
type Board struct {
	mu       sync.Mutex
	zcs      bool
	switches uint32
	phases   serial.Phases
	requests []string

	// ZCSTimeout makes every switch command fail with "ERR ZCS TMOUT".
	ZCSTimeout bool
	// Reply, when set, overrides the response to every request.
	Reply func(req []byte) []byte
}

// NewBoard returns a board with ZCS off, every switch open and every unit on phase 1.
func NewBoard() *Board {
	return &Board{
		phases: serial.Phases{1<<serial.NumSwitches - 1, 0, 0},
	}
}

// Pipe connects a new client end to the board and serves it in the background.
// Closing the returned conn stops the board goroutine.
func (b *Board) Pipe() net.Conn {
	client, device := net.Pipe()
	go func() {
		_ = b.Serve(device)
		device.Close()
	}()
	return client
}

// Serve answers frames from rw until it is closed.
func (b *Board) Serve(rw io.ReadWriter) error {
	for {
		req, err := serial.ReadFrame(rw)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
		if err := serial.WriteFrame(rw, b.Handle(req)); err != nil {
			return err
		}
	}
}

// Handle computes the response to one request payload.
func (b *Board) Handle(req []byte) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, string(req))
	if b.Reply != nil {
		return b.Reply(req)
	}

	body := bytes.TrimSuffix(req, []byte("\n"))
	switch {
	case string(body) == "ZCS?":
		if b.zcs {
			return []byte("ZCS ON")
		}
		return []byte("ZCS OFF")
	case string(body) == "ZCS ON":
		b.zcs = true
		return []byte("OK")
	case string(body) == "ZCS OFF":
		b.zcs = false
		return []byte("OK")
	case string(body) == "SW?":
		return serial.EncodeSwitches(b.switches)[:7]
	case string(body) == "PHASE?":
		return serial.EncodePhases(b.phases)[:18]
	case bytes.HasPrefix(body, []byte("SW ")) && len(body) == 7:
		if b.ZCSTimeout {
			return []byte("ERR ZCS TMOUT")
		}
		mask, err := serial.DecodeSwitches(body)
		if err != nil {
			return []byte("ERR BAD REQUEST")
		}
		b.switches = mask
		return []byte("OK")
	case bytes.HasPrefix(body, []byte("PHASE ")) && len(body) == 18:
		p, err := serial.DecodePhases(body)
		if err != nil {
			return []byte("ERR BAD REQUEST")
		}
		if _, err := serial.FormatPhases(p); err != nil {
			return []byte("ERR BAD REQUEST")
		}
		b.phases = p
		return []byte("OK")
	default:
		return []byte("ERR BAD REQUEST")
	}
}

// Requests returns every request payload received so far.
func (b *Board) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// State returns the current ZCS flag, switch mask and phase masks.
func (b *Board) State() (bool, uint32, serial.Phases) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.zcs, b.switches, b.phases
}

// SetState overrides the board state.
func (b *Board) SetState(zcs bool, switches uint32, phases serial.Phases) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.zcs, b.switches, b.phases = zcs, switches, phases
}
