package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"samfw/pkg/helpers"
	"samfw/pkg/model"
)

// EnterOdinMode reboots a device into download mode and waits for it to
// answer an ODIN probe. Probe failures are expected while the device
// re-enumerates and are not fatal; only the deadline ends the wait. Returns
// true when a LOKE answer was seen, false on timeout.
func (s *Service) EnterOdinMode(ctx context.Context, portName string, sink model.Sink) (bool, error) {
	if sink == nil {
		sink = model.DiscardSink{}
	}

	resolved, err := s.resolvePort(portName)
	if err != nil {
		return false, err
	}

	sink.Status("Sending AT+FUS? command to enter download mode")
	if err := s.EnterDownloadMode(ctx, resolved); err != nil {
		return false, err
	}

	// Reboot grace: the device drops off the bus and needs several seconds
	// before the Odin interface enumerates.
	select {
	case <-ctx.Done():
		return false, helpers.ErrCancelled
	case <-time.After(time.Duration(s.cfg.Monitor.OdinRebootGrace) * time.Second):
	}

	sink.Status("Waiting for device to reboot")

	start := time.Now()
	deadline := start.Add(time.Duration(s.cfg.Monitor.OdinWaitTimeout) * time.Second)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false, helpers.ErrCancelled
		case <-time.After(time.Duration(s.cfg.Monitor.OdinCheckIntervalMS) * time.Millisecond):
		}

		ok, err := s.IsOdinMode(ctx, resolved, 2*time.Second)
		if err != nil {
			if errors.Is(err, helpers.ErrOdinTransport) {
				s.log.Debug("odin probe failed, device may still be rebooting", "port", resolved)
				continue
			}
			return false, err
		}
		if ok {
			sink.Status(fmt.Sprintf("Device entered Odin mode (%.1fs)", time.Since(start).Seconds()))
			return true, nil
		}
	}

	sink.Status(fmt.Sprintf("Timeout waiting for Odin mode after %.1fs", time.Since(start).Seconds()))
	return false, nil
}
