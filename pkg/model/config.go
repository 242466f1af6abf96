package model

import (
	"path/filepath"
)

// Log holds the log configuration
type Log struct {
	Level      string `yaml:"level"`
	FolderPath string `yaml:"folder_path"`
}

// OTEL holds the opentelemetry configuration
type OTEL struct {
	Addr    string `yaml:"addr"`
	Timeout int64  `yaml:"timeout" default:"10"`
}

// Common holds the common configuration
type Common struct {
	Production bool `yaml:"production"`
	Log        Log  `yaml:"log"`
	Tracing    OTEL `yaml:"tracing" validate:"omitempty"`
}

// APIServer holds the api server configuration
type APIServer struct {
	Addr string `yaml:"addr"`
}

// Monitor holds the device monitor configuration. The interval and timeout
// values are seconds unless the field name says otherwise.
type Monitor struct {
	DataDir             string    `yaml:"data_dir" default:"./data" validate:"required"`
	DecryptedDir        string    `yaml:"decrypted_dir"`
	CSCFilter           []string  `yaml:"csc_filter"`
	AutoFusMode         bool      `yaml:"auto_fusmode"`
	SkipHomeCSC         bool      `yaml:"skip_home_csc"`
	CleanupAfterExtract bool      `yaml:"cleanup_after_extract"`
	Resume              bool      `yaml:"resume" default:"true"`
	PollInterval        int64     `yaml:"poll_interval" default:"1"`
	OdinWaitTimeout     int64     `yaml:"odin_wait_timeout" default:"30"`
	OdinCheckIntervalMS int64     `yaml:"odin_check_interval_ms" default:"500"`
	OdinRebootGrace     int64     `yaml:"odin_reboot_grace" default:"10"`
	APIServer           APIServer `yaml:"api_server"`
}

// DBPath is the location of the sqlite database file
func (m *Monitor) DBPath() string {
	return filepath.Join(m.DataDir, "firmware.db")
}

// FirmwareDir is where encrypted firmware artifacts are stored
func (m *Monitor) FirmwareDir() string {
	return filepath.Join(m.DataDir, "downloads")
}

// DecryptedPath is where decrypted firmware artifacts are stored
func (m *Monitor) DecryptedPath() string {
	if m.DecryptedDir != "" {
		return m.DecryptedDir
	}
	return filepath.Join(m.DataDir, "decrypted")
}

// FUS holds the firmware update service endpoints
type FUS struct {
	BaseURL        string `yaml:"base_url" default:"https://neofussvr.sslcs.cdngc.net" validate:"required,url"`
	CloudURL       string `yaml:"cloud_url" default:"http://cloud-neofussvr.samsungmobile.com" validate:"required,url"`
	RequestTimeout int64  `yaml:"request_timeout" default:"60"`
}

// FOTA holds the fota version endpoint configuration
type FOTA struct {
	BaseURL      string `yaml:"base_url" default:"https://fota-cloud-dn.ospserver.net" validate:"required,url"`
	CacheSeconds int64  `yaml:"cache_seconds" default:"600"`
}

// Cfg is the main configuration structure for this application
type Cfg struct {
	Common  Common  `yaml:"common"`
	Monitor Monitor `yaml:"monitor" validate:"required"`
	FUS     FUS     `yaml:"fus" validate:"required"`
	FOTA    FOTA    `yaml:"fota" validate:"required"`
}
