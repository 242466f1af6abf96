package pipeline

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"samfw/pkg/fuscrypto"
	"samfw/pkg/helpers"
	"samfw/pkg/model"
)

// homeCSCPrefix marks the CSC variant that wipes user data when flashed
const homeCSCPrefix = "HOME_CSC_"

// Extract unpacks a decrypted firmware archive into a sibling directory
// named after its stem, records MD5 checksums of the top-level component
// files and marks the firmware extracted. When cleanup is configured the
// encrypted and decrypted sources are removed after a fully successful
// pass.
func (s *Service) Extract(ctx context.Context, decPath, versionCode string, sink model.Sink, cancelled func() bool) (string, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline:extract")
	defer span.End()

	reader, err := zip.OpenReader(decPath)
	if err != nil {
		return "", helpers.ErrBadZip.WithDetails(map[string]any{"path": decPath, "error": err.Error()})
	}
	defer reader.Close()

	stem := strings.TrimSuffix(filepath.Base(decPath), filepath.Ext(decPath))
	unzipDir := filepath.Join(filepath.Dir(decPath), stem)
	if err := os.MkdirAll(unzipDir, 0o755); err != nil {
		return "", err
	}

	members := reader.File
	if s.cfg.Monitor.SkipHomeCSC {
		var kept []*zip.File
		for _, member := range members {
			if strings.HasPrefix(member.Name, homeCSCPrefix) {
				continue
			}
			kept = append(kept, member)
		}
		if skipped := len(members) - len(kept); skipped > 0 {
			s.log.Info("Skipping HOME_CSC members", "count", skipped)
		}
		members = kept
	}

	total := int64(len(members))
	for idx, member := range members {
		if cancelled != nil && cancelled() {
			return "", helpers.ErrCancelled.WithDetails("extract")
		}
		if err := extractMember(member, unzipDir); err != nil {
			return "", err
		}
		sink.Progress("extract", int64(idx+1), total, member.Name)
	}

	entries, err := os.ReadDir(unzipDir)
	if err != nil {
		return "", err
	}
	var components []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			components = append(components, entry.Name())
		}
	}

	for idx, name := range components {
		if cancelled != nil && cancelled() {
			return "", helpers.ErrCancelled.WithDetails("checksum")
		}
		path := filepath.Join(unzipDir, name)
		md5sum, err := fuscrypto.MD5File(path)
		if err != nil {
			return "", err
		}
		fi, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		if err := s.store.UpsertComponent(ctx, &model.ComponentRecord{
			VersionCode: versionCode,
			Filename:    name,
			SizeBytes:   fi.Size(),
			MD5Sum:      md5sum,
		}); err != nil {
			return "", err
		}
		sink.Progress("checksum", int64(idx+1), int64(len(components)), name)
	}

	extracted := true
	if err := s.store.UpdateFirmwareStatus(ctx, versionCode, model.FirmwareStatusUpdate{Extracted: &extracted}); err != nil {
		return "", err
	}

	if s.cfg.Monitor.CleanupAfterExtract {
		s.cleanupSources(ctx, decPath, versionCode)
	}

	return unzipDir, nil
}

// extractMember writes one archive member below dir, refusing paths that
// escape it.
func extractMember(member *zip.File, dir string) error {
	target := filepath.Join(dir, filepath.Clean(member.Name))
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return helpers.ErrBadZip.WithDetails("member path escapes archive root: " + member.Name)
	}

	if member.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	in, err := member.Open()
	if err != nil {
		return helpers.ErrBadZip.WithDetails(err.Error())
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// cleanupSources removes the encrypted and decrypted artifacts once their
// contents are extracted and checksummed. Failures are logged, not fatal:
// the store flags already reflect a completed extraction.
func (s *Service) cleanupSources(ctx context.Context, decPath, versionCode string) {
	rec, err := s.store.FindFirmware(ctx, versionCode)
	if err == nil && rec != nil {
		encPath := s.EncryptedPath(rec.Filename)
		if err := os.Remove(encPath); err != nil && !os.IsNotExist(err) {
			s.log.Info("Could not remove encrypted source", "path", encPath, "error", err)
		}
	}
	if err := os.Remove(decPath); err != nil && !os.IsNotExist(err) {
		s.log.Info("Could not remove decrypted source", "path", decPath, "error", err)
	}
}
