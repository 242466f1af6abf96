package device

import (
	"testing"

	"samfw/pkg/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devconinfoResponse = "AT+DEVCONINFO\r\n" +
	"+DEVCONINFO: MN(SM-A146P);BASE(A146PXXS6CXK3);VER(A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3);" +
	"HIDVER(A146PXXS6CXK3);MNC(20);MCC(208);PRD(EUX);SN(R58M123ABC);IMEI(490154203237518);UN(CE061712);" +
	"AID(a1b2c3);CC(FR);LOCK(NONE);\r\n" +
	"\r\nOK\r\n"

func TestParseDevconinfo(t *testing.T) {
	info, err := ParseDevconinfo(devconinfoResponse)
	require.NoError(t, err)

	assert.Equal(t, "SM-A146P", info.Model)
	assert.Equal(t, "A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3", info.FirmwareVersion)
	assert.Equal(t, "EUX", info.SalesCode)
	assert.Equal(t, "490154203237518", info.IMEI)
	assert.Equal(t, "R58M123ABC", info.SerialNumber)
	assert.Equal(t, "NONE", info.LockStatus)
	assert.Equal(t, "a1b2c3", info.AID)
	assert.Equal(t, "FR", info.CC)
}

func TestParseDevconinfoUnknownKeysIgnored(t *testing.T) {
	info, err := ParseDevconinfo("+DEVCONINFO: MN(SM-X);VER(V/V/V/V);PRD(XAA);WEIRD(zzz)\nOK")
	require.NoError(t, err)
	assert.Equal(t, "SM-X", info.Model)
	assert.Equal(t, "XAA", info.SalesCode)
}

func TestParseDevconinfoMissingRequiredFields(t *testing.T) {
	tts := []struct {
		name string
		have string
	}{
		{name: "no devconinfo line", have: "OK"},
		{name: "missing model", have: "+DEVCONINFO: VER(V/V/V/V);PRD(XAA)\nOK"},
		{name: "missing version", have: "+DEVCONINFO: MN(SM-X);PRD(XAA)\nOK"},
		{name: "missing sales code", have: "+DEVCONINFO: MN(SM-X);VER(V/V/V/V)\nOK"},
	}
	for _, tt := range tts {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDevconinfo(tt.have)
			assert.ErrorIs(t, err, helpers.ErrATParse)
		})
	}
}
