package fus

import (
	"fmt"
	"strings"
)

// NormalizeVercode normalizes a 3- or 4-part version code to exactly four
// parts. A missing fourth part duplicates the first; an empty third part is
// replaced by the first.
func NormalizeVercode(vercode string) string {
	parts := strings.Split(vercode, "/")
	if len(parts) == 3 {
		parts = append(parts, parts[0])
	}
	if len(parts) > 2 && parts[2] == "" {
		parts[2] = parts[0]
	}
	return strings.Join(parts, "/")
}

// FirmwareInfo is the decoded build metadata of a PDA version segment
type FirmwareInfo struct {
	BootloaderType string
	MajorVersion   int
	Year           int
	Month          int
	MinorVersion   int
}

// Date returns the build date as "YYYY.MM"
func (f FirmwareInfo) Date() string {
	return fmt.Sprintf("%d.%02d", f.Year, f.Month)
}

// Iteration returns the build iteration as "major.minor"
func (f FirmwareInfo) Iteration() string {
	return fmt.Sprintf("%d.%d", f.MajorVersion, f.MinorVersion)
}

const alnum = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ReadFirmwareInfo decodes bootloader type, build date and iteration from a
// firmware version string. The last six characters of the PDA segment carry
// the encoding; devices before 2018 use the A=2001 year scheme, later ones
// R=2018.
func ReadFirmwareInfo(firmware string) FirmwareInfo {
	info := FirmwareInfo{Year: 2020}

	pda := firmware
	if idx := strings.Index(firmware, "/"); idx >= 0 {
		pda = firmware[:idx]
	}
	if len(pda) > 6 {
		pda = pda[len(pda)-6:]
	}
	if len(pda) < 6 {
		return info
	}

	newScheme := pda[3] >= 'R'

	if pda[0] == 'U' || pda[0] == 'S' {
		info.BootloaderType = pda[0:2]
		if pda[2] >= 'A' && pda[2] <= 'Z' {
			info.MajorVersion = int(pda[2] - 'A')
		}
		if newScheme {
			info.Year = int(pda[3]-'R') + 2018
		} else {
			info.Year = int(pda[3]-'A') + 2001
		}
		if pda[4] >= 'A' && pda[4] <= 'L' {
			info.Month = int(pda[4]-'A') + 1
		} else {
			info.Month = 1
		}
		if idx := strings.IndexByte(alnum, pda[5]); idx >= 0 {
			info.MinorVersion = idx
		}
	} else {
		if newScheme {
			info.Year = int(pda[3]-'R') + 2018
		} else {
			info.Year = int(pda[3]-'A') + 2001
		}
		if pda[4] >= 'A' && pda[4] <= 'L' {
			info.Month = int(pda[4]-'A') + 1
		} else {
			info.Month = 1
		}
		if idx := strings.IndexByte(alnum, pda[5]); idx >= 0 {
			info.MinorVersion = idx
		}
	}

	if info.Year < 2000 || info.Year > 2030 {
		info.Year = 2020
	}
	return info
}
