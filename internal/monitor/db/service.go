package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"samfw/pkg/helpers"
	"samfw/pkg/logger"
	"samfw/pkg/model"
	"samfw/pkg/trace"

	"github.com/mattn/go-sqlite3"
)

const isoUTC = "2006-01-02T15:04:05Z"

// Service is the repository store on a single SQLite file. One connection
// per worker; the pool is capped at a single open connection because the
// monitor worker is the only writer.
type Service struct {
	db     *sql.DB
	cfg    *model.Cfg
	log    *logger.Log
	tracer *trace.Tracer
}

// New opens the database, applies the pragmas and creates the schema
func New(ctx context.Context, cfg *model.Cfg, tracer *trace.Tracer, log *logger.Log) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		log:    log,
		tracer: tracer,
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Monitor.DBPath()), 0o755); err != nil {
		return nil, err
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}

	s.log.Info("Started")

	return s, nil
}

func (s *Service) connect(ctx context.Context) error {
	dsn := fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000",
		s.cfg.Monitor.DBPath(),
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *Service) initSchema(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "db:init_schema")
	defer span.End()

	for _, schema := range []string{firmwareSchema, componentsSchema, imeiLogSchema} {
		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			return mapSQLiteError(err)
		}
	}
	return nil
}

// Close closes the database
func (s *Service) Close(ctx context.Context) error {
	s.log.Info("Stopped")
	return s.db.Close()
}

// IsHealthy runs the sqlite integrity check
func (s *Service) IsHealthy(ctx context.Context) bool {
	row := s.db.QueryRowContext(ctx, "PRAGMA integrity_check(1);")
	var result string
	if err := row.Scan(&result); err != nil {
		return false
	}
	return result == "ok"
}

// Repair moves a corrupt database file aside and recreates the schema so
// the service stays available. The corrupt file is kept for post-mortem.
func (s *Service) Repair(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "db:repair")
	defer span.End()

	if s.IsHealthy(ctx) {
		return nil
	}

	s.log.Info("Database failed integrity check, recreating")

	if err := s.db.Close(); err != nil {
		return err
	}

	dbPath := s.cfg.Monitor.DBPath()
	aside := fmt.Sprintf("%s.corrupt-%s", dbPath, time.Now().UTC().Format("20060102T150405Z"))
	if err := os.Rename(dbPath, aside); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := s.connect(ctx); err != nil {
		return err
	}
	if err := s.initSchema(ctx); err != nil {
		return err
	}

	if !s.IsHealthy(ctx) {
		return helpers.ErrIntegrityFailure
	}
	return nil
}

// inTx runs fn inside BEGIN/COMMIT with rollback on any error
func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLiteError(err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return mapSQLiteError(err)
	}
	if err := tx.Commit(); err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// mapSQLiteError converts driver constraint errors into the repository
// error taxonomy.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return helpers.ErrConstraintViolation.WithDetails(sqliteErr.Error())
		case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
			return helpers.ErrIntegrityFailure.WithDetails(sqliteErr.Error())
		}
	}
	return err
}

func nowISO() string {
	return time.Now().UTC().Format(isoUTC)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
