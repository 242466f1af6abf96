package fus

import (
	"strings"

	"samfw/pkg/fuscrypto"

	"github.com/beevik/etree"
)

// Client identity sent on every inform request
const (
	clientProduct = "Smart Switch"
	clientVersion = "4.3.23123_1"
)

func newEnvelope() (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	root := doc.CreateElement("FUSroot")
	hdr := root.CreateElement("FUSHdr")
	hdr.CreateElement("ProtoVer").SetText("1.0")
	body := root.CreateElement("FUSBody")
	put := body.CreateElement("Put")
	return doc, put
}

func putData(put *etree.Element, tag, value string) {
	put.CreateElement(tag).CreateElement("Data").SetText(value)
}

// BuildBinaryInform builds a DownloadBinaryInform request payload
func BuildBinaryInform(fwVersion, model, region, deviceID, nonce string) ([]byte, error) {
	logic, err := fuscrypto.LogicCheck(fwVersion, nonce)
	if err != nil {
		return nil, err
	}

	doc, put := newEnvelope()
	putData(put, "ACCESS_MODE", "2")
	putData(put, "BINARY_NATURE", "1")
	putData(put, "CLIENT_PRODUCT", clientProduct)
	putData(put, "CLIENT_VERSION", clientVersion)
	putData(put, "DEVICE_IMEI_PUSH", deviceID)
	putData(put, "DEVICE_FW_VERSION", fwVersion)
	putData(put, "DEVICE_LOCAL_CODE", region)
	putData(put, "DEVICE_MODEL_NAME", model)
	putData(put, "LOGIC_CHECK", logic)

	return doc.WriteToBytes()
}

// BuildBinaryInit builds a DownloadBinaryInitForMass request payload. The
// logic check input is the last 16 characters of the filename before its
// first dot.
func BuildBinaryInit(filename, nonce string) ([]byte, error) {
	stem := filename
	if idx := strings.Index(filename, "."); idx >= 0 {
		stem = filename[:idx]
	}
	if len(stem) > 16 {
		stem = stem[len(stem)-16:]
	}
	logic, err := fuscrypto.LogicCheck(stem, nonce)
	if err != nil {
		return nil, err
	}

	doc, put := newEnvelope()
	putData(put, "BINARY_FILE_NAME", filename)
	putData(put, "LOGIC_CHECK", logic)

	return doc.WriteToBytes()
}
