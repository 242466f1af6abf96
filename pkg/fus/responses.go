package fus

import (
	"strconv"

	"samfw/pkg/helpers"
	"samfw/pkg/model"

	"github.com/beevik/etree"
)

func findText(doc *etree.Document, path string) string {
	el := doc.FindElement(path)
	if el == nil {
		return ""
	}
	return el.Text()
}

// ParseInform extracts firmware metadata from a DownloadBinaryInform
// response. The body status must be 200 and every metadata field must be
// present and non-empty.
func ParseInform(doc *etree.Document) (*model.InformInfo, error) {
	statusText := findText(doc, "./FUSroot/FUSBody/Results/Status")
	status, err := strconv.Atoi(statusText)
	if err != nil {
		return nil, helpers.ErrFUSMissingField.WithDetails("Status")
	}
	if status != 200 {
		return nil, helpers.ErrFUSBadStatus.WithDetails(map[string]any{"code": status})
	}

	fields := map[string]string{
		"LATEST_FW_VERSION":   findText(doc, "./FUSroot/FUSBody/Results/LATEST_FW_VERSION/Data"),
		"LOGIC_VALUE_FACTORY": findText(doc, "./FUSroot/FUSBody/Put/LOGIC_VALUE_FACTORY/Data"),
		"BINARY_NAME":         findText(doc, "./FUSroot/FUSBody/Put/BINARY_NAME/Data"),
		"BINARY_BYTE_SIZE":    findText(doc, "./FUSroot/FUSBody/Put/BINARY_BYTE_SIZE/Data"),
		"MODEL_PATH":          findText(doc, "./FUSroot/FUSBody/Put/MODEL_PATH/Data"),
	}
	for name, value := range fields {
		if value == "" {
			return nil, helpers.ErrFUSMissingField.WithDetails(name)
		}
	}

	size, err := strconv.ParseInt(fields["BINARY_BYTE_SIZE"], 10, 64)
	if err != nil {
		return nil, helpers.ErrFUSMissingField.WithDetails("BINARY_BYTE_SIZE")
	}

	return &model.InformInfo{
		LatestFWVersion:   fields["LATEST_FW_VERSION"],
		LogicValueFactory: fields["LOGIC_VALUE_FACTORY"],
		Filename:          fields["BINARY_NAME"],
		Path:              fields["MODEL_PATH"],
		SizeBytes:         size,
	}, nil
}

// BadStatusCode extracts the body status code from a bad-status error,
// returning 0 when err is of a different kind.
func BadStatusCode(err error) int {
	var pbErr *helpers.Error
	if e, ok := err.(*helpers.Error); ok {
		pbErr = e
	} else {
		return 0
	}
	if pbErr.Title != helpers.ErrFUSBadStatus.Title {
		return 0
	}
	if details, ok := pbErr.Err.(map[string]any); ok {
		if code, ok := details["code"].(int); ok {
			return code
		}
	}
	return 0
}
