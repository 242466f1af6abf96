package model

// DetectedDevice is a serial port that looks like a Samsung modem interface.
// Produced on each enumeration, never stored.
type DetectedDevice struct {
	PortName     string `json:"port_name"`
	Description  string `json:"description"`
	Manufacturer string `json:"manufacturer"`
	Product      string `json:"product"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
}

// ATDeviceInfo is the device identity parsed from an AT+DEVCONINFO response.
// FirmwareVersion carries the full four part build string
// (PDA/CSC/MODEM/BOOTLOADER) as reported by the device.
type ATDeviceInfo struct {
	Model           string `json:"model"`
	FirmwareVersion string `json:"firmware_version"`
	SalesCode       string `json:"sales_code"`
	IMEI            string `json:"imei"`
	SerialNumber    string `json:"serial_number,omitempty"`
	LockStatus      string `json:"lock_status,omitempty"`
	AID             string `json:"aid,omitempty"`
	CC              string `json:"cc,omitempty"`
}

// OdinDeviceInfo is the device identity parsed from a DVIF response in
// download mode. All fields are optional; Raw preserves the original blob.
type OdinDeviceInfo struct {
	Capa    string `json:"capa,omitempty"`
	Product string `json:"product,omitempty"`
	Model   string `json:"model,omitempty"`
	FWVer   string `json:"fwver,omitempty"`
	Vendor  string `json:"vendor,omitempty"`
	Sales   string `json:"sales,omitempty"`
	Ver     string `json:"ver,omitempty"`
	DID     string `json:"did,omitempty"`
	UN      string `json:"un,omitempty"`
	TMUTemp string `json:"tmu_temp,omitempty"`
	Prov    string `json:"prov,omitempty"`
	Raw     string `json:"raw"`
}
