package device

import (
	"context"
	"strings"
	"time"

	"samfw/pkg/helpers"
	"samfw/pkg/model"
)

const crlf = "\r\n"

// ATOptions controls a single AT exchange
type ATOptions struct {
	Port     string
	Baud     int
	Timeout  time.Duration
	ExpectOK bool
}

func (o *ATOptions) applyDefaults() {
	if o.Baud == 0 {
		o.Baud = BaudAT
	}
	if o.Timeout == 0 {
		o.Timeout = 2 * time.Second
	}
}

func (s *Service) resolvePort(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	dev, err := s.FirstDevice()
	if err != nil {
		return "", err
	}
	return dev.PortName, nil
}

// SendAT sends one AT command and returns the raw textual response. CRLF is
// appended when absent, buffers are cleared before the exchange and the
// response is read until the timeout elapses.
func (s *Service) SendAT(ctx context.Context, command string, opts ATOptions) (string, error) {
	opts.applyDefaults()

	portName, err := s.resolvePort(opts.Port)
	if err != nil {
		return "", err
	}

	cmd := command
	if !strings.HasSuffix(cmd, crlf) {
		cmd += crlf
	}

	port, err := openPort(portName, portMode{baud: opts.Baud}, 100*time.Millisecond)
	if err != nil {
		return "", helpers.ErrATTransport.WithDetails(map[string]any{"port": portName, "error": err.Error()})
	}
	defer port.Close()

	port.ResetInputBuffer()
	port.ResetOutputBuffer()

	if _, err := port.Write([]byte(cmd)); err != nil {
		return "", helpers.ErrATTransport.WithDetails(map[string]any{"port": portName, "error": "write: " + err.Error()})
	}

	raw, err := readUntil(port, time.Now().Add(opts.Timeout))
	if err != nil {
		return "", helpers.ErrATTransport.WithDetails(map[string]any{"port": portName, "error": "read: " + err.Error()})
	}

	response := strings.TrimSpace(string(raw))
	if response == "" {
		return "", helpers.ErrATNoResponse.WithDetails(map[string]any{"port": portName})
	}
	if opts.ExpectOK && !strings.Contains(response, "OK") {
		return "", helpers.ErrATBadResponse.WithDetails(map[string]any{"port": portName, "response": truncate(response, 200)})
	}
	return response, nil
}

// ParseDevconinfo parses an AT+DEVCONINFO response into device identity.
// The payload line looks like:
//
//	+DEVCONINFO: MN(SM-A146P);VER(A146PXXS6CXK3/...);PRD(EUX);IMEI(35...);...
func ParseDevconinfo(response string) (*model.ATDeviceInfo, error) {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "+DEVCONINFO:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "+DEVCONINFO:"))

		fields := map[string]string{}
		for _, pair := range strings.Split(data, ";") {
			pair = strings.TrimSpace(pair)
			open := strings.Index(pair, "(")
			end := strings.LastIndex(pair, ")")
			if open <= 0 || end < open {
				continue
			}
			key := strings.TrimSpace(pair[:open])
			value := strings.TrimSpace(pair[open+1 : end])
			fields[key] = value
		}

		info := &model.ATDeviceInfo{
			Model:           fields["MN"],
			FirmwareVersion: fields["VER"],
			SalesCode:       fields["PRD"],
			IMEI:            fields["IMEI"],
			SerialNumber:    fields["SN"],
			LockStatus:      fields["LOCK"],
			AID:             fields["AID"],
			CC:              fields["CC"],
		}
		if info.Model == "" || info.FirmwareVersion == "" || info.SalesCode == "" {
			return nil, helpers.ErrATParse.WithDetails(truncate(response, 200))
		}
		return info, nil
	}
	return nil, helpers.ErrATParse.WithDetails(truncate(response, 200))
}

// ReadDeviceInfoAT queries a device over the AT channel for its identity
func (s *Service) ReadDeviceInfoAT(ctx context.Context, portName string) (*model.ATDeviceInfo, error) {
	response, err := s.SendAT(ctx, "AT+DEVCONINFO", ATOptions{Port: portName, ExpectOK: true})
	if err != nil {
		return nil, err
	}
	return ParseDevconinfo(response)
}

// EnterDownloadMode sends AT+FUS? which reboots the device into download
// mode immediately. No response is expected.
func (s *Service) EnterDownloadMode(ctx context.Context, portName string) error {
	resolved, err := s.resolvePort(portName)
	if err != nil {
		return err
	}

	port, err := openPort(resolved, portMode{baud: BaudAT}, 100*time.Millisecond)
	if err != nil {
		return helpers.ErrATTransport.WithDetails(map[string]any{"port": resolved, "error": err.Error()})
	}
	defer port.Close()

	port.ResetInputBuffer()
	port.ResetOutputBuffer()

	if _, err := port.Write([]byte("AT+FUS?" + crlf)); err != nil {
		return helpers.ErrATTransport.WithDetails(map[string]any{"port": resolved, "error": "write: " + err.Error()})
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
