package device

import (
	"context"
	"strings"
	"time"

	"samfw/pkg/helpers"
	"samfw/pkg/model"

	"go.bug.st/serial"
)

// Odin protocol literals, written as exactly four raw ASCII bytes
const (
	odinCommand  = "ODIN"
	lokeResponse = "LOKE"
	dvifCommand  = "DVIF"
)

// settleDelay is how long a device in download mode needs before its
// response bytes are waiting.
const settleDelay = 400 * time.Millisecond

// IsOdinMode probes a port with the ODIN command and reports whether a LOKE
// answer came back. A silent device returns false without an error; only
// transport failures are errors.
func (s *Service) IsOdinMode(ctx context.Context, portName string, timeout time.Duration) (bool, error) {
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	port, err := openPort(portName, portMode{baud: BaudOdin, odinLines: true}, 100*time.Millisecond)
	if err != nil {
		return false, helpers.ErrOdinTransport.WithDetails(map[string]any{"port": portName, "error": err.Error()})
	}
	defer port.Close()

	port.ResetInputBuffer()

	if _, err := port.Write([]byte(odinCommand)); err != nil {
		return false, helpers.ErrOdinTransport.WithDetails(map[string]any{"port": portName, "error": "write: " + err.Error()})
	}

	time.Sleep(settleDelay)

	raw, err := readUntil(port, time.Now().Add(timeout))
	if err != nil {
		return false, helpers.ErrOdinTransport.WithDetails(map[string]any{"port": portName, "error": "read: " + err.Error()})
	}
	return strings.Contains(string(raw), lokeResponse), nil
}

// ParseDVIF parses a DVIF response of the form
//
//	@key=value;key=value;...#
//
// into device info. Keys are case-insensitive; the raw blob is preserved.
func ParseDVIF(response string) (*model.OdinDeviceInfo, error) {
	cleaned := strings.NewReplacer("@", "", "#", "").Replace(response)
	if strings.TrimSpace(cleaned) == "" {
		return nil, helpers.ErrOdinEmptyResponse
	}

	fields := map[string]string{}
	for _, pair := range strings.Split(cleaned, ";") {
		pair = strings.TrimSpace(pair)
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			fields[key] = value
		}
	}

	return &model.OdinDeviceInfo{
		Capa:    fields["capa"],
		Product: fields["product"],
		Model:   fields["model"],
		FWVer:   fields["fwver"],
		Vendor:  fields["vendor"],
		Sales:   fields["sales"],
		Ver:     fields["ver"],
		DID:     fields["did"],
		UN:      fields["un"],
		TMUTemp: fields["tmu_temp"],
		Prov:    fields["prov"],
		Raw:     response,
	}, nil
}

// ReadOdinInfo opens a port, drops the modem lines and queries device info
// with DVIF.
func (s *Service) ReadOdinInfo(ctx context.Context, portName string) (*model.OdinDeviceInfo, error) {
	resolved, err := s.resolvePort(portName)
	if err != nil {
		return nil, err
	}

	port, err := openPort(resolved, portMode{baud: BaudOdin, odinLines: true}, 100*time.Millisecond)
	if err != nil {
		return nil, helpers.ErrOdinTransport.WithDetails(map[string]any{"port": resolved, "error": err.Error()})
	}
	defer port.Close()

	// Dropping DTR/RTS before the query; doing it at open time resets some
	// devices.
	port.SetDTR(false)
	port.SetRTS(false)

	return s.readOdinInfoPort(port, resolved)
}

// ReadOdinInfoPort queries device info over an already-open port, keeping
// the session alive across ODIN and DVIF exchanges. Some devices drop
// state when a new session begins.
func (s *Service) ReadOdinInfoPort(ctx context.Context, port serial.Port) (*model.OdinDeviceInfo, error) {
	return s.readOdinInfoPort(port, "")
}

func (s *Service) readOdinInfoPort(port serial.Port, portName string) (*model.OdinDeviceInfo, error) {
	port.ResetInputBuffer()

	if _, err := port.Write([]byte(dvifCommand)); err != nil {
		return nil, helpers.ErrOdinTransport.WithDetails(map[string]any{"port": portName, "error": "write: " + err.Error()})
	}

	time.Sleep(settleDelay)

	raw, err := readUntil(port, time.Now().Add(2*time.Second))
	if err != nil {
		return nil, helpers.ErrOdinTransport.WithDetails(map[string]any{"port": portName, "error": "read: " + err.Error()})
	}
	if len(raw) == 0 {
		return nil, helpers.ErrOdinEmptyResponse.WithDetails(map[string]any{"port": portName})
	}

	return ParseDVIF(string(raw))
}
