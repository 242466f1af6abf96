package helpers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrDeviceNotFound is returned when no Samsung modem port is present
	ErrDeviceNotFound = NewError("DEVICE_NOT_FOUND")
	// ErrATTransport is returned on serial failures on the AT channel
	ErrATTransport = NewError("AT_TRANSPORT_ERROR")
	// ErrATNoResponse is returned when an AT command yields no bytes
	ErrATNoResponse = NewError("AT_NO_RESPONSE")
	// ErrATBadResponse is returned when an expected OK is missing
	ErrATBadResponse = NewError("AT_BAD_RESPONSE")
	// ErrATParse is returned when a DEVCONINFO response cannot be parsed
	ErrATParse = NewError("AT_PARSE_ERROR")
	// ErrOdinTransport is returned on serial failures on the Odin channel
	ErrOdinTransport = NewError("ODIN_TRANSPORT_ERROR")
	// ErrOdinEmptyResponse is returned when DVIF yields no bytes
	ErrOdinEmptyResponse = NewError("ODIN_EMPTY_RESPONSE")

	// ErrModelOrRegionNotFound is returned on a FOTA 403
	ErrModelOrRegionNotFound = NewError("MODEL_OR_REGION_NOT_FOUND")
	// ErrNoFirmware is returned when FOTA advertises no latest version
	ErrNoFirmware = NewError("NO_FIRMWARE")
	// ErrFOTAParsing is returned when the version descriptor is malformed
	ErrFOTAParsing = NewError("FOTA_PARSING_ERROR")

	// ErrFUSHTTP is returned on a non-2xx FUS control response
	ErrFUSHTTP = NewError("FUS_HTTP_ERROR")
	// ErrFUSBadStatus is returned when an inform/init body carries a non-200 status
	ErrFUSBadStatus = NewError("FUS_BAD_STATUS")
	// ErrFUSMissingField is returned when a required response field is absent
	ErrFUSMissingField = NewError("FUS_MISSING_FIELD")
	// ErrDecryptionKeyUnobtainable is returned when no ENC4 key can be derived
	ErrDecryptionKeyUnobtainable = NewError("DECRYPTION_KEY_UNOBTAINABLE")

	// ErrSizeMismatch is returned when a finished download has the wrong size
	ErrSizeMismatch = NewError("DOWNLOAD_SIZE_MISMATCH")
	// ErrDownloadHTTP is returned on a non-OK streaming response
	ErrDownloadHTTP = NewError("DOWNLOAD_HTTP_ERROR")
	// ErrCancelled is returned when a pipeline step is stopped cooperatively
	ErrCancelled = NewError("CANCELLED")
	// ErrInvalidBlockSize is returned when ciphertext is not block aligned
	ErrInvalidBlockSize = NewError("INVALID_BLOCK_SIZE")
	// ErrBadZip is returned when a decrypted archive cannot be read
	ErrBadZip = NewError("BAD_ZIP")

	// ErrConstraintViolation is returned when the store rejects a write
	ErrConstraintViolation = NewError("CONSTRAINT_VIOLATION")
	// ErrIntegrityFailure is returned when the database fails its integrity check
	ErrIntegrityFailure = NewError("INTEGRITY_FAILURE")
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = NewError("NOT_FOUND")
)

// Error is a struct that represents an error
type Error struct {
	Title string `json:"title"`
	Err   any    `json:"details"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("Error: [%s] %+v", e.Title, e.Err)
	}
	return fmt.Sprintf("Error: [%s]", e.Title)
}

// Is matches errors by title so detail-carrying instances compare equal to
// their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Title == t.Title
}

// ErrorResponse is a struct that represents an error response in JSON from REST API
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// NewError creates a new Error with a title
func NewError(title string) *Error {
	return &Error{Title: title}
}

// NewErrorDetails creates a new Error with a title and details
func NewErrorDetails(title string, err any) *Error {
	return &Error{Title: title, Err: err}
}

// WithDetails derives a detail-carrying instance of a sentinel error
func (e *Error) WithDetails(err any) *Error {
	return &Error{Title: e.Title, Err: err}
}

// NewErrorFromError creates a new Error from an error
func NewErrorFromError(err error) *Error {
	if err == nil {
		return nil
	}

	var pbErr *Error
	if errors.As(err, &pbErr) {
		return pbErr
	}

	if jsonTypeError, ok := err.(*json.UnmarshalTypeError); ok {
		return &Error{Title: "json_type_error", Err: jsonTypeError.Error()}
	}
	if validatorErr, ok := err.(validator.ValidationErrors); ok {
		return &Error{Title: "validation_error", Err: formatValidationErrors(validatorErr)}
	}

	return &Error{Title: "internal_error", Err: err.Error()}
}

func formatValidationErrors(err validator.ValidationErrors) []map[string]any {
	v := make([]map[string]any, 0, len(err))
	for _, fieldErr := range err {
		v = append(v, map[string]any{
			"field":            fieldErr.Field(),
			"namespace":        fieldErr.StructNamespace(),
			"type":             fieldErr.Kind().String(),
			"validation":       fieldErr.Tag(),
			"validation_param": fieldErr.Param(),
		})
	}
	return v
}
