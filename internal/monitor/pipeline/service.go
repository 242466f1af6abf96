package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"samfw/internal/monitor/db"
	"samfw/pkg/logger"
	"samfw/pkg/model"
	"samfw/pkg/trace"
)

// encrypted firmware container suffix
const enc4Suffix = ".enc4"

// Service runs the acquisition pipeline steps: download, decrypt, extract
// and the startup reconciliation. It owns the firmware and decrypted
// directories; the store is the authoritative index.
type Service struct {
	cfg    *model.Cfg
	log    *logger.Log
	tracer *trace.Tracer
	store  *db.Service
}

// New creates a new pipeline service
func New(ctx context.Context, cfg *model.Cfg, store *db.Service, tracer *trace.Tracer, log *logger.Log) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		log:    log,
		tracer: tracer,
		store:  store,
	}

	s.log.Info("Started")

	return s, nil
}

// Close closes the pipeline service
func (s *Service) Close(ctx context.Context) error {
	s.log.Info("Stopped")
	return nil
}

// EncryptedPath is where the encrypted artifact of a firmware lands
func (s *Service) EncryptedPath(filename string) string {
	return filepath.Join(s.cfg.Monitor.FirmwareDir(), filename)
}

// DecryptedPath is where the decrypted artifact of a firmware lands; the
// .enc4 suffix is stripped.
func (s *Service) DecryptedPath(filename string) string {
	return filepath.Join(s.cfg.Monitor.DecryptedPath(), strings.TrimSuffix(filename, enc4Suffix))
}
