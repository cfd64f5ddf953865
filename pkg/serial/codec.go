package serial

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/loadbank/pkg/domain"
)

// NumSwitches is the number of load units on the bank.
const NumSwitches = 18

// MaxPayload is the largest payload a one-byte length prefix can describe.
const MaxPayload = 255

const allUnits = uint32(1)<<NumSwitches - 1

var (
	// ErrZCSTimeout: the controller saw no zero crossing in time to switch.
	ErrZCSTimeout = errors.New("no zero-crossing detected")
	// ErrRejected: the controller answered a command with something other than OK.
	ErrRejected = errors.New("command rejected by controller")
	// ErrMalformed: a response could not be decoded.
	ErrMalformed = errors.New("malformed controller response")
	// ErrUnsupported: serial access is not available on this platform.
	ErrUnsupported = errors.New("serial port access is not supported on this platform")
)

// Request payloads.
var (
	reqZCSQuery    = []byte("ZCS?\n")
	reqZCSOn       = []byte("ZCS ON\n")
	reqZCSOff      = []byte("ZCS OFF\n")
	reqSwitchQuery = []byte("SW?\n")
	reqPhaseQuery  = []byte("PHASE?\n")
)

// Response prefixes. prefixSwitch and prefixPhase also start the set requests.
var (
	respOK         = []byte("OK")
	respZCSOn      = []byte("ZCS ON")
	respZCSTimeout = []byte("ERR ZCS TMOUT")
	prefixSwitch   = []byte("SW ")
	prefixPhase    = []byte("PHASE ")
)

// WriteFrame writes payload with its length prefix in a single write.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("frame payload too large: %d bytes", len(payload))
	}
	buf := make([]byte, 0, 1+len(payload))
	buf = append(buf, byte(len(payload)))
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length-prefixed frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var n [1]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, err
	}
	payload := make([]byte, n[0])
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("short frame: %w", err)
	}
	return payload, nil
}

// ParseSwitches converts a switch string ("0"/"1" per unit) into a mask.
func ParseSwitches(s string) (uint32, error) {
	if len(s) != NumSwitches {
		return 0, fmt.Errorf("%w: switch string must be %d characters, got %d", domain.ErrInvalidValue, NumSwitches, len(s))
	}
	var mask uint32
	for i := 0; i < NumSwitches; i++ {
		switch s[i] {
		case '1':
			mask |= 1 << i
		case '0':
		default:
			return 0, fmt.Errorf("%w: switch string may only contain '0' or '1', got %q at %d", domain.ErrInvalidValue, s[i], i)
		}
	}
	return mask, nil
}

// FormatSwitches converts a mask into a switch string. Bits above NumSwitches are ignored.
func FormatSwitches(mask uint32) string {
	b := make([]byte, NumSwitches)
	for i := range b {
		b[i] = '0'
		if mask&(1<<i) != 0 {
			b[i] = '1'
		}
	}
	return string(b)
}

// Phases holds one mask per phase; each unit belongs to exactly one.
type Phases [3]uint32

// ParsePhases converts a phase string ("1", "2" or "3" per unit) into masks.
func ParsePhases(s string) (Phases, error) {
	var p Phases
	if len(s) != NumSwitches {
		return p, fmt.Errorf("%w: phase string must be %d characters, got %d", domain.ErrInvalidValue, NumSwitches, len(s))
	}
	for i := 0; i < NumSwitches; i++ {
		switch s[i] {
		case '1', '2', '3':
			p[s[i]-'1'] |= 1 << i
		default:
			return Phases{}, fmt.Errorf("%w: phase string may only contain '1', '2' or '3', got %q at %d", domain.ErrInvalidValue, s[i], i)
		}
	}
	return p, nil
}

// FormatPhases converts masks into a phase string. The lowest phase wins when a unit
// appears in several masks; a unit in none is malformed.
func FormatPhases(p Phases) (string, error) {
	b := make([]byte, NumSwitches)
	for i := range b {
		bit := uint32(1) << i
		switch {
		case p[0]&bit != 0:
			b[i] = '1'
		case p[1]&bit != 0:
			b[i] = '2'
		case p[2]&bit != 0:
			b[i] = '3'
		default:
			return "", fmt.Errorf("%w: unit %d has no phase", ErrMalformed, i)
		}
	}
	return string(b), nil
}

// EncodeSwitches builds the "SW <mask>\n" request.
func EncodeSwitches(mask uint32) []byte {
	buf := append([]byte(nil), prefixSwitch...)
	buf = binary.BigEndian.AppendUint32(buf, mask)
	return append(buf, '\n')
}

// EncodePhases builds the "PHASE <m1><m2><m3>\n" request.
func EncodePhases(p Phases) []byte {
	buf := append([]byte(nil), prefixPhase...)
	for _, m := range p {
		buf = binary.BigEndian.AppendUint32(buf, m)
	}
	return append(buf, '\n')
}

// DecodeSwitches extracts the mask from a "SW <mask>" response.
func DecodeSwitches(payload []byte) (uint32, error) {
	if !bytes.HasPrefix(payload, prefixSwitch) || len(payload) < len(prefixSwitch)+4 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, payload)
	}
	return binary.BigEndian.Uint32(payload[len(prefixSwitch):]) & allUnits, nil
}

// DecodePhases extracts the masks from a "PHASE <m1><m2><m3>" response.
func DecodePhases(payload []byte) (Phases, error) {
	var p Phases
	if !bytes.HasPrefix(payload, prefixPhase) || len(payload) < len(prefixPhase)+12 {
		return p, fmt.Errorf("%w: %q", ErrMalformed, payload)
	}
	body := payload[len(prefixPhase):]
	for i := range p {
		p[i] = binary.BigEndian.Uint32(body[4*i:]) & allUnits
	}
	return p, nil
}

// checkAck maps a set-command response onto an error.
func checkAck(payload []byte) error {
	switch {
	case bytes.HasPrefix(payload, respOK):
		return nil
	case bytes.HasPrefix(payload, respZCSTimeout):
		return ErrZCSTimeout
	default:
		return fmt.Errorf("%w: %q", ErrRejected, bytes.TrimSpace(payload))
	}
}
