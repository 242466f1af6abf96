package device

import (
	"context"

	"samfw/pkg/logger"
	"samfw/pkg/model"
)

// Baud rates used on the serial channels. Legacy devices only speak AT at
// 19200; everything since speaks 115200 on both channels.
const (
	BaudATLegacy = 19200
	BaudAT       = 115200
	BaudOdin     = 115200
)

// Service owns all serial communication with a connected device: port
// enumeration, the AT command channel and the Odin download-mode channel.
// The monitor worker is the sole caller during an iteration.
type Service struct {
	cfg *model.Cfg
	log *logger.Log
}

// New creates a new device service
func New(ctx context.Context, cfg *model.Cfg, log *logger.Log) (*Service, error) {
	s := &Service{
		cfg: cfg,
		log: log,
	}

	s.log.Info("Started")

	return s, nil
}

// Close closes the device service
func (s *Service) Close(ctx context.Context) error {
	s.log.Info("Stopped")
	return nil
}
