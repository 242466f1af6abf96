package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"samfw/pkg/helpers"
	"samfw/pkg/model"
)

const firmwareColumns = `id, version_code, filename, path, size_bytes,
       logic_value_factory, latest_fw_version,
       downloaded, decrypted, extracted, created_at, updated_at`

func scanFirmware(row interface{ Scan(...any) error }) (*model.FirmwareRecord, error) {
	var rec model.FirmwareRecord
	var downloaded, decrypted, extracted int
	err := row.Scan(
		&rec.ID, &rec.VersionCode, &rec.Filename, &rec.Path, &rec.SizeBytes,
		&rec.LogicValueFactory, &rec.LatestFWVersion,
		&downloaded, &decrypted, &extracted, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Downloaded = downloaded == 1
	rec.Decrypted = decrypted == 1
	rec.Extracted = extracted == 1
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UpsertFirmware inserts or updates a firmware record by version code
func (s *Service) UpsertFirmware(ctx context.Context, rec *model.FirmwareRecord) error {
	ctx, span := s.tracer.Start(ctx, "db:upsert_firmware")
	defer span.End()

	const query = `
	INSERT INTO firmware (version_code, filename, path, size_bytes,
	                      logic_value_factory, latest_fw_version,
	                      downloaded, decrypted, extracted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(version_code) DO UPDATE SET
	    filename=excluded.filename,
	    path=excluded.path,
	    size_bytes=excluded.size_bytes,
	    logic_value_factory=excluded.logic_value_factory,
	    latest_fw_version=excluded.latest_fw_version,
	    downloaded=excluded.downloaded,
	    decrypted=excluded.decrypted,
	    extracted=excluded.extracted;`

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			rec.VersionCode, rec.Filename, rec.Path, rec.SizeBytes,
			rec.LogicValueFactory, rec.LatestFWVersion,
			boolToInt(rec.Downloaded), boolToInt(rec.Decrypted), boolToInt(rec.Extracted),
		)
		return err
	})
}

// FindFirmware looks up a firmware record, returning nil when absent
func (s *Service) FindFirmware(ctx context.Context, versionCode string) (*model.FirmwareRecord, error) {
	ctx, span := s.tracer.Start(ctx, "db:find_firmware")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM firmware WHERE version_code=?;", firmwareColumns)
	rec, err := scanFirmware(s.db.QueryRowContext(ctx, query, versionCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	return rec, nil
}

// ListFirmware returns firmware records ordered by creation date, newest
// first. A limit of 0 means no limit.
func (s *Service) ListFirmware(ctx context.Context, limit int) ([]model.FirmwareRecord, error) {
	ctx, span := s.tracer.Start(ctx, "db:list_firmware")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM firmware ORDER BY created_at DESC, id DESC", firmwareColumns)
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var records []model.FirmwareRecord
	for rows.Next() {
		rec, err := scanFirmware(rows)
		if err != nil {
			return nil, mapSQLiteError(err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpdateFirmwareStatus applies a partial update of the status flags. An
// empty update is rejected.
func (s *Service) UpdateFirmwareStatus(ctx context.Context, versionCode string, update model.FirmwareStatusUpdate) error {
	ctx, span := s.tracer.Start(ctx, "db:update_firmware_status")
	defer span.End()

	if update.Empty() {
		return helpers.ErrConstraintViolation.WithDetails("empty status update")
	}

	var assignments []string
	var args []any
	for _, field := range []struct {
		column string
		value  *bool
	}{
		{"downloaded", update.Downloaded},
		{"decrypted", update.Decrypted},
		{"extracted", update.Extracted},
	} {
		if field.value != nil {
			assignments = append(assignments, field.column+"=?")
			args = append(args, boolToInt(*field.value))
		}
	}
	args = append(args, versionCode)

	query := fmt.Sprintf("UPDATE firmware SET %s WHERE version_code=?;", strings.Join(assignments, ", "))

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return helpers.ErrNotFound.WithDetails(versionCode)
		}
		return nil
	})
}

// DeleteFirmware removes a firmware row. Files on disk are the caller's
// concern.
func (s *Service) DeleteFirmware(ctx context.Context, versionCode string) error {
	ctx, span := s.tracer.Start(ctx, "db:delete_firmware")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM firmware WHERE version_code=?;", versionCode)
		return err
	})
}
