package catalogingester

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "CATALOGS", config.StreamName)
	assert.Equal(t, "catalog-ingester", config.ConsumerName)
	assert.False(t, config.DisableGraph)
	assert.False(t, config.Spool.Enabled)

	require.NotNil(t, config.Ports)
	require.Len(t, config.Ports.Inputs, 1)
	assert.Equal(t, "catalog.submit", config.Ports.Inputs[0].Subject)
	require.Len(t, config.Ports.Outputs, 3)

	require.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing stream name",
			mutate:  func(c *Config) { c.StreamName = "" },
			wantErr: "stream_name",
		},
		{
			name:    "missing consumer name",
			mutate:  func(c *Config) { c.ConsumerName = "" },
			wantErr: "consumer_name",
		},
		{
			name: "spool enabled without dir",
			mutate: func(c *Config) {
				c.Spool.Enabled = true
				c.Spool.Dir = ""
			},
			wantErr: "spool.dir",
		},
		{
			name: "spool enabled without pattern",
			mutate: func(c *Config) {
				c.Spool.Enabled = true
				c.Spool.Pattern = ""
			},
			wantErr: "spool.pattern",
		},
		{
			name: "invalid spool pattern",
			mutate: func(c *Config) {
				c.Spool.Enabled = true
				c.Spool.Pattern = "["
			},
			wantErr: "not a valid glob",
		},
		{
			name: "invalid debounce",
			mutate: func(c *Config) {
				c.Spool.DebounceDelay = "soon"
			},
			wantErr: "debounce_delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
