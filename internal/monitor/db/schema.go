package db

// firmwareSchema is the firmware repository table. The CHECK pins the
// version code to exactly four slash-separated parts.
const firmwareSchema = `
CREATE TABLE IF NOT EXISTS firmware (
  id                    INTEGER PRIMARY KEY,
  version_code          TEXT NOT NULL UNIQUE,
  filename              TEXT NOT NULL,
  path                  TEXT NOT NULL,
  size_bytes            INTEGER NOT NULL,
  logic_value_factory   TEXT NOT NULL,
  latest_fw_version     TEXT NOT NULL,
  downloaded            INTEGER NOT NULL DEFAULT 0 CHECK (downloaded IN (0, 1)),
  decrypted             INTEGER NOT NULL DEFAULT 0 CHECK (decrypted IN (0, 1)),
  extracted             INTEGER NOT NULL DEFAULT 0 CHECK (extracted IN (0, 1)),
  created_at            TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
  updated_at            TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),

  CHECK ((length(version_code) - length(replace(version_code, '/', ''))) = 3)
);

CREATE INDEX IF NOT EXISTS idx_firmware_version
ON firmware(version_code);

CREATE INDEX IF NOT EXISTS idx_firmware_filename
ON firmware(filename);

CREATE TRIGGER IF NOT EXISTS trg_firmware_updated_at
AFTER UPDATE ON firmware
FOR EACH ROW
BEGIN
  UPDATE firmware SET updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now') WHERE id = OLD.id;
END;
`

// componentsSchema holds per-component checksums of extracted firmware
const componentsSchema = `
CREATE TABLE IF NOT EXISTS components (
  version_code  TEXT NOT NULL,
  filename      TEXT NOT NULL,
  size_bytes    INTEGER NOT NULL,
  md5sum        TEXT NOT NULL,
  PRIMARY KEY (version_code, filename)
);

CREATE INDEX IF NOT EXISTS idx_components_version
ON components(version_code);
`

// imeiLogSchema is the per-session device audit log
const imeiLogSchema = `
CREATE TABLE IF NOT EXISTS imei_log (
  id               INTEGER PRIMARY KEY,
  session_id       TEXT NOT NULL,
  imei             TEXT NOT NULL,
  model            TEXT NOT NULL,
  csc              TEXT NOT NULL,
  version_code     TEXT NOT NULL,
  fota_version     TEXT,
  serial_number    TEXT,
  lock_status      TEXT,
  aid              TEXT,
  cc               TEXT,
  status_fus       TEXT NOT NULL DEFAULT 'unknown'
                      CHECK (status_fus IN ('ok','error','denied','unauthorized','throttled','unknown')),
  status_upgrade   TEXT NOT NULL DEFAULT 'unknown'
                      CHECK (status_upgrade IN ('queued','in_progress','ok','failed','skipped','unknown')),
  created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
  updated_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
  upgrade_at       TEXT,

  -- CSC codes of 3 to 5 characters, e.g. EUX
  CHECK (length(csc) BETWEEN 3 AND 5),

  UNIQUE(session_id, imei)
);

CREATE INDEX IF NOT EXISTS idx_imei_log__session_imei
ON imei_log (session_id, imei);

CREATE INDEX IF NOT EXISTS idx_imei_log__imei_created
ON imei_log (imei, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_imei_log__model_csc_created
ON imei_log (model, csc, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_imei_log__created_at
ON imei_log (created_at);
`
