package testsupport

import (
	"path/filepath"
	"testing"

	"aotw/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials are filled with placeholders and publishing is disabled unless
// an option enables it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Ledger.SpreadsheetID = "test-sheet"
	cfgVal.Ledger.Tab = "Sheet1"
	cfgVal.Ledger.CredentialsFile = filepath.Join(base, "service-account.json")
	cfgVal.Spotify.ClientID = "test-client"
	cfgVal.Spotify.ClientSecret = "test-secret"
	cfgVal.Publish.Enabled = false
	cfgVal.Publish.BaseDelaySeconds = 0
	cfgVal.Odesli.Enabled = false
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithPublishTarget enables publishing against the given API base URL.
func WithPublishTarget(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.Enabled = true
		b.cfg.Publish.BaseURL = baseURL
		b.cfg.Publish.Token = "test-token"
		b.cfg.Publish.Owner = "owner"
		b.cfg.Publish.Repo = "site"
	}
}

// WithSpotifyEndpoints points the catalog client at a test server.
func WithSpotifyEndpoints(baseURL, tokenURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Spotify.BaseURL = baseURL
		b.cfg.Spotify.TokenURL = tokenURL
	}
}

// WithOdesli enables alternate link resolution against baseURL.
func WithOdesli(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Odesli.Enabled = true
		b.cfg.Odesli.BaseURL = baseURL
		b.cfg.Odesli.RequestsPerSecond = 1000
	}
}

// WithNtfyTopic sets the notification topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
