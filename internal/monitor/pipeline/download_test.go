package pipeline

import (
	"bytes"
	"context"
	"os"
	"testing"

	"samfw/pkg/helpers"
	"samfw/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInform(size int64) *model.InformInfo {
	return &model.InformInfo{
		LatestFWVersion:   testVersion,
		LogicValueFactory: "ABCDEF0123456789",
		Filename:          "SM-A146P_fac.zip.enc4",
		Path:              "/neofus/910/",
		SizeBytes:         size,
	}
}

func TestDownload(t *testing.T) {
	env := newTestEnv(t)
	payload := bytes.Repeat([]byte{0x5A}, 3*1024*1024+17)
	client, _ := newFUSServer(t, payload)

	sink := &model.RecordingSink{}
	info := testInform(int64(len(payload)))

	err := env.pipeline.Download(context.Background(), client, info, true, sink, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(env.pipeline.EncryptedPath(info.Filename))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// no .part file left behind
	_, err = os.Stat(env.pipeline.EncryptedPath(info.Filename) + ".part")
	assert.True(t, os.IsNotExist(err))

	// progress reached the full size
	require.NotEmpty(t, sink.Progresses)
	last := sink.Progresses[len(sink.Progresses)-1]
	assert.Equal(t, "download", last.Stage)
	assert.Equal(t, info.SizeBytes, last.Done)
}

func TestDownloadResume(t *testing.T) {
	env := newTestEnv(t)
	payload := bytes.Repeat([]byte{0xA5}, 2*1024*1024)
	client, _ := newFUSServer(t, payload)

	info := testInform(int64(len(payload)))
	encPath := env.pipeline.EncryptedPath(info.Filename)

	// a prior interrupted run left half the file
	half := int64(len(payload) / 2)
	require.NoError(t, os.MkdirAll(env.cfg.Monitor.FirmwareDir(), 0o755))
	require.NoError(t, os.WriteFile(encPath+".part", payload[:half], 0o644))

	err := env.pipeline.Download(context.Background(), client, info, true, model.DiscardSink{}, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(encPath)
	require.NoError(t, err)
	assert.Equal(t, payload, got, "resumed download is byte-for-byte identical")
}

func TestDownloadSizeMismatch(t *testing.T) {
	env := newTestEnv(t)
	payload := bytes.Repeat([]byte{0x11}, 1024)
	client, _ := newFUSServer(t, payload)

	// expect one byte more than the server will send
	info := testInform(int64(len(payload)) + 1)

	err := env.pipeline.Download(context.Background(), client, info, false, model.DiscardSink{}, nil)
	assert.ErrorIs(t, err, helpers.ErrSizeMismatch)

	// the target path was never created
	_, statErr := os.Stat(env.pipeline.EncryptedPath(info.Filename))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadCancelled(t *testing.T) {
	env := newTestEnv(t)
	payload := bytes.Repeat([]byte{0x22}, 4*1024*1024)
	client, _ := newFUSServer(t, payload)

	info := testInform(int64(len(payload)))

	err := env.pipeline.Download(context.Background(), client, info, true, model.DiscardSink{}, func() bool { return true })
	assert.ErrorIs(t, err, helpers.ErrCancelled)

	// the .part file survives for the next attempt
	_, statErr := os.Stat(env.pipeline.EncryptedPath(info.Filename) + ".part")
	assert.NoError(t, statErr)
}
