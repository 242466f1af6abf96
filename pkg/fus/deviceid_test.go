package fus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuhnChecksum(t *testing.T) {
	// 49015420323751 has check digit 8
	check, err := LuhnChecksum("49015420323751")
	require.NoError(t, err)
	assert.Equal(t, 8, check)

	_, err = LuhnChecksum("4901542032375X")
	assert.Error(t, err)
}

func TestValidateIMEI(t *testing.T) {
	assert.True(t, ValidateIMEI("490154203237518"))
	assert.False(t, ValidateIMEI("490154203237519"), "wrong check digit")
	assert.False(t, ValidateIMEI("49015420323751"), "too short")
	assert.False(t, ValidateIMEI("49015420323751AB"), "too long")
	assert.False(t, ValidateIMEI("49015420323751A"), "non digit")
	assert.False(t, ValidateIMEI(""))
}

func TestAutofillIMEI(t *testing.T) {
	imei, err := AutofillIMEI("49015420")
	require.NoError(t, err)
	assert.Len(t, imei, 15)
	assert.True(t, ValidateIMEI(imei))
	assert.Equal(t, "49015420", imei[:8])

	_, err = AutofillIMEI("1234567")
	assert.Error(t, err, "tac too short")

	_, err = AutofillIMEI("4901542X")
	assert.Error(t, err, "non digit")

	full, err := AutofillIMEI("490154203237518999")
	require.NoError(t, err)
	assert.Equal(t, "490154203237518", full)
}

func TestValidateSerial(t *testing.T) {
	assert.True(t, ValidateSerial("R58M123ABC"))
	assert.False(t, ValidateSerial(""))
	assert.False(t, ValidateSerial("with space"))
	assert.False(t, ValidateSerial(string(make([]byte, 36))))
}

func TestV4Key(t *testing.T) {
	key, err := V4Key("A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3", "ABCDEF0123456789")
	require.NoError(t, err)
	assert.Len(t, key, 16)

	// deterministic
	again, err := V4Key("A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3", "ABCDEF0123456789")
	require.NoError(t, err)
	assert.Equal(t, key, again)

	_, err = V4Key("short", "ABCDEF0123456789")
	assert.Error(t, err)
}

func TestV2Key(t *testing.T) {
	key := V2Key("G900FXXU1ANE2", "SM-G900F", "XEF")
	assert.Len(t, key, 16)
}
