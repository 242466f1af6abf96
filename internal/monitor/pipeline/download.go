package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"samfw/pkg/fus"
	"samfw/pkg/helpers"
	"samfw/pkg/model"
)

const downloadChunkSize = 1024 * 1024

// Download streams the encrypted firmware described by info into the
// firmware directory. A .part file makes the transfer resumable; the final
// rename is atomic so the target path never holds a partial file. A
// cancelled transfer keeps its .part file for the next run.
func (s *Service) Download(ctx context.Context, client *fus.Client, info *model.InformInfo, resume bool, sink model.Sink, cancelled func() bool) error {
	ctx, span := s.tracer.Start(ctx, "pipeline:download")
	defer span.End()

	encPath := s.EncryptedPath(info.Filename)
	partPath := encPath + ".part"

	if err := os.MkdirAll(filepath.Dir(encPath), 0o755); err != nil {
		return err
	}

	var start int64
	if resume {
		if fi, err := os.Stat(partPath); err == nil {
			start = fi.Size()
		}
	}

	resp, err := client.Stream(ctx, info.Path+info.Filename, start)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	flags := os.O_WRONLY | os.O_CREATE
	if start > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(partPath, flags, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	s.log.Info("Downloading", "filename", info.Filename, "size", info.SizeBytes, "start", start)

	written := start
	buf := make([]byte, downloadChunkSize)
	for {
		if cancelled != nil && cancelled() {
			return helpers.ErrCancelled.WithDetails("download")
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return err
			}
			written += int64(n)
			sink.Progress("download", written, info.SizeBytes, info.Filename)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	if written != info.SizeBytes {
		return helpers.ErrSizeMismatch.WithDetails(fmt.Sprintf("got %d, expected %d", written, info.SizeBytes))
	}

	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(partPath, encPath)
}
