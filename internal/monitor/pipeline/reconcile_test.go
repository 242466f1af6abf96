package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"samfw/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// row 1: encrypted file on disk
	kept := &model.FirmwareRecord{
		VersionCode:       "KEPT1XXU1AAAA1/KEPT1OXM1AAAA1/KEPT1XXU1AAAA1/KEPT1XXU1AAAA1",
		Filename:          "kept_fac.zip.enc4",
		Path:              "/neofus/910/",
		SizeBytes:         10,
		LogicValueFactory: "ABCDEF0123456789",
		LatestFWVersion:   testVersion,
		Downloaded:        true,
	}
	require.NoError(t, env.store.UpsertFirmware(ctx, kept))
	require.NoError(t, os.MkdirAll(env.cfg.Monitor.FirmwareDir(), 0o755))
	require.NoError(t, os.WriteFile(env.pipeline.EncryptedPath(kept.Filename), []byte("0123456789"), 0o644))

	// row 2: encrypted file gone, decrypted sibling still there
	stale := &model.FirmwareRecord{
		VersionCode:       "GONE1XXU1AAAA1/GONE1OXM1AAAA1/GONE1XXU1AAAA1/GONE1XXU1AAAA1",
		Filename:          "gone_fac.zip.enc4",
		Path:              "/neofus/910/",
		SizeBytes:         10,
		LogicValueFactory: "ABCDEF0123456789",
		LatestFWVersion:   testVersion,
		Downloaded:        true,
		Decrypted:         true,
	}
	require.NoError(t, env.store.UpsertFirmware(ctx, stale))
	decPath := env.pipeline.DecryptedPath(stale.Filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(decPath), 0o755))
	require.NoError(t, os.WriteFile(decPath, []byte("orphan"), 0o644))

	stats, err := env.pipeline.Reconcile(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, model.CleanupStats{
		TotalRecords:     2,
		MissingEncrypted: 1,
		RecordsDeleted:   1,
		DecryptedDeleted: 1,
	}, stats)

	// the healthy row is untouched
	rec, err := env.store.FindFirmware(ctx, kept.VersionCode)
	require.NoError(t, err)
	assert.NotNil(t, rec)

	// the stale row and its orphan are gone
	rec, err = env.store.FindFirmware(ctx, stale.VersionCode)
	require.NoError(t, err)
	assert.Nil(t, rec)
	_, err = os.Stat(decPath)
	assert.True(t, os.IsNotExist(err))
}

func TestReconcileIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale := &model.FirmwareRecord{
		VersionCode:       "GONE1XXU1AAAA1/GONE1OXM1AAAA1/GONE1XXU1AAAA1/GONE1XXU1AAAA1",
		Filename:          "gone_fac.zip.enc4",
		Path:              "/neofus/910/",
		SizeBytes:         10,
		LogicValueFactory: "ABCDEF0123456789",
		LatestFWVersion:   testVersion,
		Downloaded:        true,
	}
	require.NoError(t, env.store.UpsertFirmware(ctx, stale))

	first, err := env.pipeline.Reconcile(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RecordsDeleted)

	second, err := env.pipeline.Reconcile(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, model.CleanupStats{}, second, "running reconcile twice is a fixed point")
}

func TestReconcileEmptyStore(t *testing.T) {
	env := newTestEnv(t)

	stats, err := env.pipeline.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, model.CleanupStats{}, stats)
}
