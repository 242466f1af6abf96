package db

import (
	"context"
	"database/sql"

	"samfw/pkg/model"
)

// UpsertComponent inserts or updates a component checksum record
func (s *Service) UpsertComponent(ctx context.Context, rec *model.ComponentRecord) error {
	ctx, span := s.tracer.Start(ctx, "db:upsert_component")
	defer span.End()

	const query = `
	INSERT INTO components (version_code, filename, size_bytes, md5sum)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(version_code, filename) DO UPDATE SET
	    size_bytes=excluded.size_bytes,
	    md5sum=excluded.md5sum;`

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, rec.VersionCode, rec.Filename, rec.SizeBytes, rec.MD5Sum)
		return err
	})
}

// ListComponents returns the component records of a firmware version
func (s *Service) ListComponents(ctx context.Context, versionCode string) ([]model.ComponentRecord, error) {
	ctx, span := s.tracer.Start(ctx, "db:list_components")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		"SELECT version_code, filename, size_bytes, md5sum FROM components WHERE version_code=? ORDER BY filename;",
		versionCode,
	)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var records []model.ComponentRecord
	for rows.Next() {
		var rec model.ComponentRecord
		if err := rows.Scan(&rec.VersionCode, &rec.Filename, &rec.SizeBytes, &rec.MD5Sum); err != nil {
			return nil, mapSQLiteError(err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteComponents removes all component rows of a firmware version
func (s *Service) DeleteComponents(ctx context.Context, versionCode string) error {
	ctx, span := s.tracer.Start(ctx, "db:delete_components")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM components WHERE version_code=?;", versionCode)
		return err
	})
}
