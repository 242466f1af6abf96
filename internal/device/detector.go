package device

import (
	"regexp"
	"strings"

	"samfw/pkg/helpers"
	"samfw/pkg/model"

	"go.bug.st/serial/enumerator"
)

// Devices in download or modem mode enumerate with this product string
const modemSignature = "samsung mobile usb modem"

var (
	vidPattern = regexp.MustCompile(`(?i)VID[_:]([0-9A-F]{4})`)
	pidPattern = regexp.MustCompile(`(?i)PID[_:]([0-9A-F]{4})`)
)

// ExtractVIDPID pulls the USB vendor and product ids out of a hardware
// identifier string such as `USB\VID_04E8&PID_685D`. The id must follow
// "VID" or "PID" directly after an underscore or colon, so the combined
// "VID:PID=04E8:685D" form is not matched.
func ExtractVIDPID(hwid string) (string, string) {
	var vid, pid string
	if m := vidPattern.FindStringSubmatch(hwid); m != nil {
		vid = strings.ToUpper(m[1])
	}
	if m := pidPattern.FindStringSubmatch(hwid); m != nil {
		pid = strings.ToUpper(m[1])
	}
	return vid, pid
}

// Enumerate lists serial ports that look like a Samsung modem interface
func (s *Service) Enumerate() ([]model.DetectedDevice, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, helpers.ErrATTransport.WithDetails(err.Error())
	}

	var devices []model.DetectedDevice
	for _, port := range ports {
		product := port.Product
		if !strings.Contains(strings.ToLower(product), modemSignature) {
			continue
		}
		devices = append(devices, model.DetectedDevice{
			PortName:    port.Name,
			Description: product,
			Product:     product,
			VID:         strings.ToUpper(port.VID),
			PID:         strings.ToUpper(port.PID),
		})
	}
	return devices, nil
}

// FirstDevice returns the first detected device
func (s *Service) FirstDevice() (model.DetectedDevice, error) {
	devices, err := s.Enumerate()
	if err != nil {
		return model.DetectedDevice{}, err
	}
	if len(devices) == 0 {
		return model.DetectedDevice{}, helpers.ErrDeviceNotFound
	}
	return devices[0], nil
}
