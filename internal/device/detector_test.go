package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVIDPID(t *testing.T) {
	tts := []struct {
		name    string
		have    string
		wantVID string
		wantPID string
	}{
		{
			name:    "colon style",
			have:    "USB VID:04E8 PID:685D SER=R58M123ABC",
			wantVID: "04E8",
			wantPID: "685D",
		},
		{
			name:    "underscore style",
			have:    `USB\VID_04E8&PID_685D\R58M123ABC`,
			wantVID: "04E8",
			wantPID: "685D",
		},
		{
			name:    "lowercase hex",
			have:    "usb vid:04e8 pid:685d",
			wantVID: "04E8",
			wantPID: "685D",
		},
		{
			name: "no identifiers",
			have: "some serial adapter",
		},
	}
	for _, tt := range tts {
		t.Run(tt.name, func(t *testing.T) {
			vid, pid := ExtractVIDPID(tt.have)
			assert.Equal(t, tt.wantVID, vid)
			assert.Equal(t, tt.wantPID, pid)
		})
	}
}
