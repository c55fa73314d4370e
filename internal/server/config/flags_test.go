package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{
			"-a", "127.0.0.1:9090", "-g", ":6000", "-d", "db", "-s", "secret",
			"-t", "15", "-b", "bucket", "-r", "eu-west-1", "-e", "http://endpoint", "-l", "https://codeimag.es", "-debug",
		}, expected: &Config{
			Debug:                       true,
			EndpointAddrHTTP:            "127.0.0.1:9090",
			EndpointAddrGRPC:            ":6000",
			BaseURL:                     "https://codeimag.es",
			DatabaseDSN:                 "db",
			SecretKey:                   "secret",
			AccessTokenValidityDuration: 15 * time.Minute,
			S3Bucket:                    "bucket",
			S3Region:                    "eu-west-1",
			S3BaseEndpoint:              "http://endpoint",
		}},
		{name: "foreign flags ignored", args: []string{"-c", "cfg.json", "-u", "peter", "-a", ":1"}, expected: &Config{
			EndpointAddrHTTP: ":1",
		}},
		{name: "bad int", args: []string{"-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config, tt.args) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config, tt.args) })
			}
		})
	}
}
