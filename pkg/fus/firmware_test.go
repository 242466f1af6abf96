package fus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVercode(t *testing.T) {
	tts := []struct {
		name string
		have string
		want string
	}{
		{
			name: "four parts unchanged",
			have: "A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3",
			want: "A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3",
		},
		{
			name: "three parts duplicates first",
			have: "G900FXXU1ANE2/G900FOXA1ANE2/G900FXXU1ANE2",
			want: "G900FXXU1ANE2/G900FOXA1ANE2/G900FXXU1ANE2/G900FXXU1ANE2",
		},
		{
			name: "empty third replaced by first",
			have: "PDA1XXU1AAAA1/CSC1OXM1AAAA1//PDA1XXU1AAAA1",
			want: "PDA1XXU1AAAA1/CSC1OXM1AAAA1/PDA1XXU1AAAA1/PDA1XXU1AAAA1",
		},
	}
	for _, tt := range tts {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVercode(tt.have)
			assert.Equal(t, tt.want, got)

			// normalization is idempotent
			assert.Equal(t, got, NormalizeVercode(got))
		})
	}
}

func TestReadFirmwareInfo(t *testing.T) {
	// A146PXXS6CXK3: pda tail "S6CXK3" = bootloader S6, major C, year X, month K, minor 3
	info := ReadFirmwareInfo("A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3")
	assert.Equal(t, "S6", info.BootloaderType)
	assert.Equal(t, 2, info.MajorVersion)  // C
	assert.Equal(t, 2024, info.Year)       // X with R=2018 scheme
	assert.Equal(t, 11, info.Month)        // K
	assert.Equal(t, 3, info.MinorVersion)  // 3
	assert.Equal(t, "2024.11", info.Date())
	assert.Equal(t, "2.3", info.Iteration())
}

func TestReadFirmwareInfoShortInput(t *testing.T) {
	info := ReadFirmwareInfo("X")
	assert.Equal(t, 2020, info.Year)
}
