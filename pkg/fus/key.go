package fus

import (
	"samfw/pkg/fuscrypto"
	"samfw/pkg/helpers"
)

func md5digest(s string) []byte {
	return fuscrypto.MD5Digest([]byte(s))
}

// V4Key derives the ENC4 decryption key from the inform metadata:
// MD5(LogicCheck(latestFWVersion, logicValueFactory)).
func V4Key(latestFWVersion, logicValueFactory string) ([]byte, error) {
	logic, err := fuscrypto.LogicCheck(latestFWVersion, logicValueFactory)
	if err != nil {
		return nil, helpers.ErrDecryptionKeyUnobtainable.WithDetails(err.Error())
	}
	return md5digest(logic), nil
}
