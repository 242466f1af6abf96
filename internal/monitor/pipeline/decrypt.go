package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"samfw/pkg/fus"
	"samfw/pkg/fuscrypto"
	"samfw/pkg/helpers"
	"samfw/pkg/model"
)

// Decrypt streams the encrypted artifact of rec through AES-ECB into the
// decrypted directory and marks the record decrypted. The flag is only set
// after the whole stream completes; a cancelled run leaves a truncated
// output file that the next attempt overwrites.
func (s *Service) Decrypt(ctx context.Context, rec *model.FirmwareRecord, sink model.Sink, cancelled func() bool) (string, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline:decrypt")
	defer span.End()

	encPath := s.EncryptedPath(rec.Filename)
	decPath := s.DecryptedPath(rec.Filename)

	fi, err := os.Stat(encPath)
	if err != nil {
		return "", err
	}
	total := fi.Size()

	key, err := fus.V4Key(rec.LatestFWVersion, rec.LogicValueFactory)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(decPath), 0o755); err != nil {
		return "", err
	}

	in, err := os.Open(encPath)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(decPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	s.log.Info("Decrypting", "filename", rec.Filename, "size", total)

	err = fuscrypto.ECBDecryptStream(in, out, key, total, func(read int64) error {
		if cancelled != nil && cancelled() {
			return helpers.ErrCancelled.WithDetails("decrypt")
		}
		sink.Progress("decrypt", read, total, rec.Filename)
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := out.Close(); err != nil {
		return "", err
	}

	decrypted := true
	if err := s.store.UpdateFirmwareStatus(ctx, rec.VersionCode, model.FirmwareStatusUpdate{Decrypted: &decrypted}); err != nil {
		return "", err
	}

	return decPath, nil
}
