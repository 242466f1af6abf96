package pipeline

import (
	"context"
	"fmt"
	"os"

	"samfw/pkg/model"
)

// Reconcile walks every firmware row and checks that its encrypted file is
// still on disk. Rows whose file vanished are deleted, together with any
// orphan decrypted sibling. This is the only path that removes rows
// implicitly; running it twice is a fixed point.
func (s *Service) Reconcile(ctx context.Context, sink model.Sink) (model.CleanupStats, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline:reconcile")
	defer span.End()

	if sink == nil {
		sink = model.DiscardSink{}
	}

	stats := model.CleanupStats{}

	records, err := s.store.ListFirmware(ctx, 0)
	if err != nil {
		return stats, err
	}

	total := int64(len(records))
	for idx, rec := range records {
		stats.TotalRecords++

		encPath := s.EncryptedPath(rec.Filename)
		if fi, err := os.Stat(encPath); err != nil || fi.IsDir() {
			stats.MissingEncrypted++

			decPath := s.DecryptedPath(rec.Filename)
			if _, err := os.Stat(decPath); err == nil {
				if err := os.Remove(decPath); err == nil {
					stats.DecryptedDeleted++
				}
			}

			if err := s.store.DeleteFirmware(ctx, rec.VersionCode); err != nil {
				return stats, err
			}
			stats.RecordsDeleted++
			s.log.Info("Removed stale firmware row", "version_code", rec.VersionCode)
		}

		sink.Progress("cleanup", int64(idx+1), total,
			fmt.Sprintf("missing=%d deleted=%d decrypted_deleted=%d",
				stats.MissingEncrypted, stats.RecordsDeleted, stats.DecryptedDeleted))
	}

	return stats, nil
}
