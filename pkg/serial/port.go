package serial

import "os"

// DefaultDevice is the FTDI adapter wired to the controller board.
const DefaultDevice = "/dev/ttyUSB0"

// DefaultBaud is the controller's fixed line rate.
const DefaultBaud = 57600

// Port is an open serial device.
type Port struct {
	f *os.File
}

func (p *Port) Read(b []byte) (int, error)  { return p.f.Read(b) }
func (p *Port) Write(b []byte) (int, error) { return p.f.Write(b) }

// Close releases the device.
func (p *Port) Close() error { return p.f.Close() }
