package model

// InformInfo is the firmware metadata returned by a DownloadBinaryInform
// exchange.
type InformInfo struct {
	LatestFWVersion   string `json:"latest_fw_version"`
	LogicValueFactory string `json:"logic_value_factory"`
	Filename          string `json:"filename"`
	Path              string `json:"path"`
	SizeBytes         int64  `json:"size_bytes"`
}

// FirmwareRecord is a row in the firmware table. The three status flags are
// monotonic within a pipeline run: downloaded, then decrypted, then
// extracted.
type FirmwareRecord struct {
	ID                int64  `json:"id"`
	VersionCode       string `json:"version_code"`
	Filename          string `json:"filename"`
	Path              string `json:"path"`
	SizeBytes         int64  `json:"size_bytes"`
	LogicValueFactory string `json:"logic_value_factory"`
	LatestFWVersion   string `json:"latest_fw_version"`
	Downloaded        bool   `json:"downloaded"`
	Decrypted         bool   `json:"decrypted"`
	Extracted         bool   `json:"extracted"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// ComponentRecord is one extracted firmware component file, keyed by
// (version_code, filename).
type ComponentRecord struct {
	VersionCode string `json:"version_code"`
	Filename    string `json:"filename"`
	SizeBytes   int64  `json:"size_bytes"`
	MD5Sum      string `json:"md5sum"`
}

// FirmwareStatusUpdate is a partial update of the firmware status flags.
// Nil fields are left untouched; at least one field must be set.
type FirmwareStatusUpdate struct {
	Downloaded *bool
	Decrypted  *bool
	Extracted  *bool
}

// Empty reports whether no flag is set
func (u FirmwareStatusUpdate) Empty() bool {
	return u.Downloaded == nil && u.Decrypted == nil && u.Extracted == nil
}

// FUS exchange states recorded in the audit log
const (
	StatusFUSOK           = "ok"
	StatusFUSError        = "error"
	StatusFUSDenied       = "denied"
	StatusFUSUnauthorized = "unauthorized"
	StatusFUSThrottled    = "throttled"
	StatusFUSUnknown      = "unknown"
)

// Upgrade states recorded in the audit log
const (
	StatusUpgradeQueued     = "queued"
	StatusUpgradeInProgress = "in_progress"
	StatusUpgradeOK         = "ok"
	StatusUpgradeFailed     = "failed"
	StatusUpgradeSkipped    = "skipped"
	StatusUpgradeUnknown    = "unknown"
)

// IMEIEvent is a row in the imei_log audit table, unique per
// (session_id, imei).
type IMEIEvent struct {
	ID            int64  `json:"id"`
	SessionID     string `json:"session_id"`
	IMEI          string `json:"imei"`
	Model         string `json:"model"`
	CSC           string `json:"csc"`
	VersionCode   string `json:"version_code"`
	FOTAVersion   string `json:"fota_version,omitempty"`
	SerialNumber  string `json:"serial_number,omitempty"`
	LockStatus    string `json:"lock_status,omitempty"`
	AID           string `json:"aid,omitempty"`
	CC            string `json:"cc,omitempty"`
	StatusFUS     string `json:"status_fus"`
	StatusUpgrade string `json:"status_upgrade"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	UpgradeAt     string `json:"upgrade_at,omitempty"`
}

// CleanupStats summarizes one reconciliation pass over the firmware table.
type CleanupStats struct {
	TotalRecords     int `json:"total_records"`
	MissingEncrypted int `json:"missing_encrypted"`
	RecordsDeleted   int `json:"records_deleted"`
	DecryptedDeleted int `json:"decrypted_deleted"`
}
