package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSerial(t *testing.T) {
	tests := []struct {
		ref    string
		serial int
		ok     bool
	}{
		{"#12", 12, true},
		{"KIT-7", 7, true},
		{"#0", 0, false},
		{"#abc", 0, false},
		{"0f3c2a6e9b7d4c1e8f5a2b3c4d5e6f70", 0, false},
		{"0f3c2a6e-9b7d-4c1e-8f5a-2b3c4d5e6f70", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			serial, ok := parseSerial(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.serial, serial)
		})
	}
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "(not set)", maskToken(""))
	assert.Equal(t, "****", maskToken("short"))
	assert.Equal(t, "secr****1234", maskToken("secret_abcdef1234"))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "kits", "kit", "text", "settings", "reserve", "auth", "config", "version"} {
		assert.True(t, names[want], want)
	}
}
