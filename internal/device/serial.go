package device

import (
	"time"

	"go.bug.st/serial"
)

// portMode describes how a serial channel is opened. AT runs without flow
// control; Odin wants the modem lines raised at open and dropped afterwards.
type portMode struct {
	baud      int
	odinLines bool
}

// openPort opens a port with 8-N-1 framing and a short read timeout so the
// read loops can poll against their own deadline.
func openPort(name string, pm portMode, readTimeout time.Duration) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: pm.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if pm.odinLines {
		mode.InitialStatusBits = &serial.ModemOutputBits{RTS: true, DTR: true}
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// readUntil accumulates whatever the device sends until the deadline. A
// quiet device is not an error here; callers decide what empty means.
func readUntil(port serial.Port, deadline time.Time) ([]byte, error) {
	var out []byte
	buf := make([]byte, 512)
	for time.Now().Before(deadline) {
		n, err := port.Read(buf)
		if err != nil {
			return out, err
		}
		if n > 0 {
			out = append(out, buf[:n]...)
		}
	}
	return out, nil
}
