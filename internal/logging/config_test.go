package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "civicd", cfg.Service)
	assert.False(t, cfg.Stdout)
	assert.False(t, cfg.OTel)
}

func TestConfig_ApplyDefaultsKeepsExplicit(t *testing.T) {
	cfg := Config{Level: "debug", Format: "console", Service: "civicd-test"}
	cfg.ApplyDefaults()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "civicd-test", cfg.Service)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "valid json",
			cfg:  Config{Level: "info", Format: "json"},
		},
		{
			name: "valid console",
			cfg:  Config{Level: "warn", Format: "console"},
		},
		{
			name:    "unknown level",
			cfg:     Config{Level: "verbose", Format: "json"},
			wantErr: ErrUnknownLevel,
		},
		{
			name:    "unknown format",
			cfg:     Config{Level: "info", Format: "logfmt"},
			wantErr: ErrUnknownFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
