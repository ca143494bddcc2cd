package testsupport

import (
	"path/filepath"
	"testing"

	"enrichd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ChannelsCSV = filepath.Join(base, "channels.csv")
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Server.PublicBaseURL = "http://bridge.test"
	cfg.Aristote.BaseURL = "http://aristote.test/api"
	cfg.Aristote.PortalBaseURL = "http://aristote.test/api/enrichments"
	cfg.Aristote.ClientID = "test-client"
	cfg.Aristote.ClientSecret = "test-secret"
	cfg.Aristote.EndUserIdentifier = "test"
	cfg.MediaServer.URL = "http://media.test"
	cfg.MediaServer.APIKey = "test-key"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}
