package db

import (
	"context"
	"testing"

	"samfw/pkg/helpers"
	"samfw/pkg/logger"
	"samfw/pkg/model"
	"samfw/pkg/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVersion = "A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3"

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()

	cfg := &model.Cfg{
		Monitor: model.Monitor{DataDir: t.TempDir()},
	}

	log := logger.NewSimple("test-db")
	tracer, err := trace.NewForTesting(ctx, "db", log)
	require.NoError(t, err)

	s, err := New(ctx, cfg, tracer, log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(ctx) })
	return s
}

func testRecord() *model.FirmwareRecord {
	return &model.FirmwareRecord{
		VersionCode:       testVersion,
		Filename:          "SM-A146P_1_20240101_XXXXXX_fac.zip.enc4",
		Path:              "/neofus/910/",
		SizeBytes:         3221225472,
		LogicValueFactory: "ABCDEF0123456789",
		LatestFWVersion:   testVersion,
		Downloaded:        true,
	}
}

func TestUpsertAndFindFirmware(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFirmware(ctx, testRecord()))

	rec, err := s.FindFirmware(ctx, testVersion)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Downloaded)
	assert.False(t, rec.Decrypted)
	assert.False(t, rec.Extracted)
	assert.NotEmpty(t, rec.CreatedAt)
	assert.Equal(t, int64(3221225472), rec.SizeBytes)

	// Upsert by version code updates in place
	updated := testRecord()
	updated.SizeBytes = 1024
	require.NoError(t, s.UpsertFirmware(ctx, updated))

	rec, err = s.FindFirmware(ctx, testVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), rec.SizeBytes)

	records, err := s.ListFirmware(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFindFirmwareAbsent(t *testing.T) {
	s := newTestService(t)

	rec, err := s.FindFirmware(context.Background(), "A/B/C/D")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFirmwareVersionCodeCheck(t *testing.T) {
	s := newTestService(t)

	rec := testRecord()
	rec.VersionCode = "NOSLASHES"
	err := s.UpsertFirmware(context.Background(), rec)
	assert.ErrorIs(t, err, helpers.ErrConstraintViolation)
}

func TestUpdateFirmwareStatus(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFirmware(ctx, testRecord()))

	decrypted := true
	require.NoError(t, s.UpdateFirmwareStatus(ctx, testVersion, model.FirmwareStatusUpdate{Decrypted: &decrypted}))

	rec, err := s.FindFirmware(ctx, testVersion)
	require.NoError(t, err)
	assert.True(t, rec.Downloaded)
	assert.True(t, rec.Decrypted)
	assert.False(t, rec.Extracted)
	assert.GreaterOrEqual(t, rec.UpdatedAt, rec.CreatedAt)

	// empty updates are programmer errors
	err = s.UpdateFirmwareStatus(ctx, testVersion, model.FirmwareStatusUpdate{})
	assert.ErrorIs(t, err, helpers.ErrConstraintViolation)

	// unknown version codes are reported
	extracted := true
	err = s.UpdateFirmwareStatus(ctx, "A/B/C/MISSING", model.FirmwareStatusUpdate{Extracted: &extracted})
	assert.ErrorIs(t, err, helpers.ErrNotFound)
}

func TestDeleteFirmware(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFirmware(ctx, testRecord()))
	require.NoError(t, s.DeleteFirmware(ctx, testVersion))

	rec, err := s.FindFirmware(ctx, testVersion)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestComponents(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"BL_A146P.tar.md5", "AP_A146P.tar.md5"} {
		require.NoError(t, s.UpsertComponent(ctx, &model.ComponentRecord{
			VersionCode: testVersion,
			Filename:    name,
			SizeBytes:   42,
			MD5Sum:      "d41d8cd98f00b204e9800998ecf8427e",
		}))
	}

	// conflicting upsert replaces in place
	require.NoError(t, s.UpsertComponent(ctx, &model.ComponentRecord{
		VersionCode: testVersion,
		Filename:    "AP_A146P.tar.md5",
		SizeBytes:   99,
		MD5Sum:      "9e107d9d372bb6826bd81d3542a419d6",
	}))

	components, err := s.ListComponents(ctx, testVersion)
	require.NoError(t, err)
	require.Len(t, components, 2)
	assert.Equal(t, "AP_A146P.tar.md5", components[0].Filename)
	assert.Equal(t, int64(99), components[0].SizeBytes)
}

func TestUpsertIMEIEvent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	ev := &model.IMEIEvent{
		SessionID:   "session-1",
		IMEI:        "490154203237518",
		Model:       "SM-A146P",
		CSC:         "EUX",
		VersionCode: testVersion,
		StatusFUS:   model.StatusFUSUnknown,
	}

	id1, err := s.UpsertIMEIEvent(ctx, ev)
	require.NoError(t, err)
	assert.Positive(t, id1)

	// same (session, imei) updates the row instead of inserting
	ev.FOTAVersion = testVersion
	ev.StatusFUS = model.StatusFUSOK
	id2, err := s.UpsertIMEIEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	events, err := s.ListEventsByIMEI(ctx, ev.IMEI, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.StatusFUSOK, events[0].StatusFUS)
	assert.Equal(t, testVersion, events[0].FOTAVersion)
	assert.GreaterOrEqual(t, events[0].UpdatedAt, events[0].CreatedAt)

	// a second session gets its own row
	ev.SessionID = "session-2"
	id3, err := s.UpsertIMEIEvent(ctx, ev)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestIMEIEventCSCCheck(t *testing.T) {
	s := newTestService(t)

	_, err := s.UpsertIMEIEvent(context.Background(), &model.IMEIEvent{
		SessionID:   "session-1",
		IMEI:        "490154203237518",
		Model:       "SM-A146P",
		CSC:         "EU",
		VersionCode: testVersion,
	})
	assert.ErrorIs(t, err, helpers.ErrConstraintViolation)
}

func TestIMEIEventBadStatusRejected(t *testing.T) {
	s := newTestService(t)

	_, err := s.UpsertIMEIEvent(context.Background(), &model.IMEIEvent{
		SessionID:   "session-1",
		IMEI:        "490154203237518",
		Model:       "SM-A146P",
		CSC:         "EUX",
		VersionCode: testVersion,
		StatusFUS:   "nonsense",
	})
	assert.ErrorIs(t, err, helpers.ErrConstraintViolation)
}

func TestSetUpgradeStatus(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	id, err := s.UpsertIMEIEvent(ctx, &model.IMEIEvent{
		SessionID:   "session-1",
		IMEI:        "490154203237518",
		Model:       "SM-A146P",
		CSC:         "EUX",
		VersionCode: testVersion,
	})
	require.NoError(t, err)

	require.NoError(t, s.SetUpgradeStatus(ctx, id, model.StatusUpgradeSkipped, ""))

	events, err := s.ListEventsByIMEI(ctx, "490154203237518", 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.StatusUpgradeSkipped, events[0].StatusUpgrade)
	assert.NotEmpty(t, events[0].UpgradeAt)
}

func TestListEventsByModelCSC(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, imei := range []string{"490154203237518", "352976245060954"} {
		_, err := s.UpsertIMEIEvent(ctx, &model.IMEIEvent{
			SessionID:   "session-1",
			IMEI:        imei,
			Model:       "SM-A146P",
			CSC:         "EUX",
			VersionCode: testVersion,
		})
		require.NoError(t, err)
	}

	events, err := s.ListEventsByModelCSC(ctx, "SM-A146P", "EUX", "", "")
	require.NoError(t, err)
	assert.Len(t, events, 2)

	// out-of-window query returns nothing
	events, err = s.ListEventsByModelCSC(ctx, "SM-A146P", "EUX", "2999-01-01T00:00:00Z", "")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestIsHealthy(t *testing.T) {
	s := newTestService(t)
	assert.True(t, s.IsHealthy(context.Background()))
}

func TestRepairHealthyIsNoop(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFirmware(ctx, testRecord()))
	require.NoError(t, s.Repair(ctx))

	rec, err := s.FindFirmware(ctx, testVersion)
	require.NoError(t, err)
	assert.NotNil(t, rec, "repair on a healthy database keeps data intact")
}
