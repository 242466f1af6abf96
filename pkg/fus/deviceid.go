package fus

import (
	"fmt"
	"math/rand"
)

// LuhnChecksum computes the Luhn check digit for an IMEI core (the first 14
// digits).
func LuhnChecksum(imeiWithoutCD string) (int, error) {
	tmp := imeiWithoutCD + "0"
	parity := len(tmp) % 2
	sum := 0
	for idx, ch := range tmp {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("non-digit in imei: %q", ch)
		}
		d := int(ch - '0')
		if idx%2 == parity {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return (10 - (sum % 10)) % 10, nil
}

// ValidateIMEI reports whether imei is a well formed 15-digit identifier
// with a correct Luhn check digit.
func ValidateIMEI(imei string) bool {
	if len(imei) != 15 {
		return false
	}
	for _, ch := range imei {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	check, err := LuhnChecksum(imei[:14])
	if err != nil {
		return false
	}
	return check == int(imei[14]-'0')
}

// AutofillIMEI completes a TAC prefix to a full 15-digit IMEI by filling the
// serial digits randomly and appending the Luhn check digit.
func AutofillIMEI(tac string) (string, error) {
	if len(tac) < 8 {
		return "", fmt.Errorf("tac too short: %d", len(tac))
	}
	for _, ch := range tac {
		if ch < '0' || ch > '9' {
			return "", fmt.Errorf("non-digit in tac: %q", ch)
		}
	}
	if len(tac) >= 15 {
		return tac[:15], nil
	}
	core := tac
	for len(core) < 14 {
		core += fmt.Sprintf("%d", rand.Intn(10))
	}
	check, err := LuhnChecksum(core)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", core, check), nil
}

// ValidateSerial reports whether serial is a plausible device serial number
func ValidateSerial(serial string) bool {
	if len(serial) < 1 || len(serial) > 35 {
		return false
	}
	for _, ch := range serial {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		default:
			return false
		}
	}
	return true
}

// V2Key derives the legacy ENC2 decryption key, MD5("region:model:version").
// Kept for older firmware archives; the main pipeline uses the logic-value
// based ENC4 key.
func V2Key(version, modelName, region string) []byte {
	return md5digest(fmt.Sprintf("%s:%s:%s", region, modelName, version))
}
