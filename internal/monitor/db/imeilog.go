package db

import (
	"context"
	"database/sql"

	"samfw/pkg/model"
)

const imeiLogColumns = `id, session_id, imei, model, csc, version_code,
       COALESCE(fota_version, ''), COALESCE(serial_number, ''), COALESCE(lock_status, ''),
       COALESCE(aid, ''), COALESCE(cc, ''),
       status_fus, status_upgrade, created_at, updated_at, COALESCE(upgrade_at, '')`

func scanIMEIEvent(row interface{ Scan(...any) error }) (*model.IMEIEvent, error) {
	var ev model.IMEIEvent
	err := row.Scan(
		&ev.ID, &ev.SessionID, &ev.IMEI, &ev.Model, &ev.CSC, &ev.VersionCode,
		&ev.FOTAVersion, &ev.SerialNumber, &ev.LockStatus, &ev.AID, &ev.CC,
		&ev.StatusFUS, &ev.StatusUpgrade, &ev.CreatedAt, &ev.UpdatedAt, &ev.UpgradeAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpsertIMEIEvent inserts or updates the audit row for (session_id, imei).
// A re-detection within the same session updates the mutable fields in
// place; created_at keeps its original value.
func (s *Service) UpsertIMEIEvent(ctx context.Context, ev *model.IMEIEvent) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "db:upsert_imei_event")
	defer span.End()

	if ev.StatusFUS == "" {
		ev.StatusFUS = model.StatusFUSUnknown
	}
	if ev.StatusUpgrade == "" {
		ev.StatusUpgrade = model.StatusUpgradeUnknown
	}

	const query = `
	INSERT INTO imei_log
	    (session_id, imei, model, csc, version_code, fota_version, serial_number, lock_status, aid, cc,
	     status_fus, status_upgrade, created_at, updated_at, upgrade_at)
	VALUES
	    (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id, imei) DO UPDATE SET
	    model=excluded.model,
	    csc=excluded.csc,
	    version_code=excluded.version_code,
	    fota_version=excluded.fota_version,
	    serial_number=excluded.serial_number,
	    lock_status=excluded.lock_status,
	    aid=excluded.aid,
	    cc=excluded.cc,
	    status_fus=excluded.status_fus,
	    status_upgrade=excluded.status_upgrade,
	    updated_at=excluded.updated_at,
	    upgrade_at=excluded.upgrade_at;`

	now := nowISO()

	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			ev.SessionID, ev.IMEI, ev.Model, ev.CSC, ev.VersionCode,
			nullable(ev.FOTAVersion), nullable(ev.SerialNumber), nullable(ev.LockStatus),
			nullable(ev.AID), nullable(ev.CC),
			ev.StatusFUS, ev.StatusUpgrade, now, now, nullable(ev.UpgradeAt),
		)
		if err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			"SELECT id FROM imei_log WHERE session_id=? AND imei=?;",
			ev.SessionID, ev.IMEI,
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SetUpgradeStatus updates the upgrade outcome of an audit row
func (s *Service) SetUpgradeStatus(ctx context.Context, id int64, statusUpgrade, upgradeAt string) error {
	ctx, span := s.tracer.Start(ctx, "db:set_upgrade_status")
	defer span.End()

	if upgradeAt == "" {
		upgradeAt = nowISO()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"UPDATE imei_log SET status_upgrade=?, upgrade_at=?, updated_at=? WHERE id=?;",
			statusUpgrade, upgradeAt, nowISO(), id,
		)
		return err
	})
}

// ListEventsByIMEI returns audit rows for one IMEI, newest first
func (s *Service) ListEventsByIMEI(ctx context.Context, imei string, limit, offset int) ([]model.IMEIEvent, error) {
	ctx, span := s.tracer.Start(ctx, "db:list_events_by_imei")
	defer span.End()

	if limit <= 0 {
		limit = 200
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+imeiLogColumns+" FROM imei_log WHERE imei=? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?;",
		imei, limit, offset,
	)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// ListEventsByModelCSC returns audit rows for a model and csc, optionally
// windowed by created_at (ISO-8601 UTC bounds, either may be empty).
func (s *Service) ListEventsByModelCSC(ctx context.Context, modelName, csc, from, to string) ([]model.IMEIEvent, error) {
	ctx, span := s.tracer.Start(ctx, "db:list_events_by_model_csc")
	defer span.End()

	query := "SELECT " + imeiLogColumns + " FROM imei_log WHERE model=? AND csc=?"
	args := []any{modelName, csc}
	if from != "" {
		query += " AND created_at >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND created_at <= ?"
		args = append(args, to)
	}
	query += " ORDER BY created_at DESC, id DESC;"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]model.IMEIEvent, error) {
	var events []model.IMEIEvent
	for rows.Next() {
		ev, err := scanIMEIEvent(rows)
		if err != nil {
			return nil, mapSQLiteError(err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}
