package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Ledger identifies the Google Sheet that stores the picks.
type Ledger struct {
	SpreadsheetID   string `toml:"spreadsheet_id"`
	Tab             string `toml:"tab"`
	CredentialsFile string `toml:"credentials_file"`
	CredentialsJSON string `toml:"credentials_json"`
}

// Spotify contains catalog API credentials and endpoints.
type Spotify struct {
	ClientID        string `toml:"client_id"`
	ClientSecret    string `toml:"client_secret"`
	CredentialsFile string `toml:"credentials_file"`
	BaseURL         string `toml:"base_url"`
	TokenURL        string `toml:"token_url"`
	RequestTimeout  int    `toml:"request_timeout"`
}

// Publish contains the GitHub repository that hosts the website snapshot.
type Publish struct {
	Enabled           bool    `toml:"enabled"`
	Token             string  `toml:"token"`
	Owner             string  `toml:"owner"`
	Repo              string  `toml:"repo"`
	Path              string  `toml:"path"`
	Branch            string  `toml:"branch"`
	BaseURL           string  `toml:"base_url"`
	MaxAttempts       int     `toml:"max_attempts"`
	BaseDelaySeconds  float64 `toml:"base_delay_seconds"`
	BackoffMultiplier float64 `toml:"backoff_multiplier"`
	RequestTimeout    int     `toml:"request_timeout"`
}

// Odesli contains settings for the cross-platform link resolver.
type Odesli struct {
	Enabled           bool    `toml:"enabled"`
	BaseURL           string  `toml:"base_url"`
	RequestTimeout    int     `toml:"request_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Telegram contains the chat bot front end settings.
type Telegram struct {
	BotToken      string `toml:"bot_token"`
	AllowedChatID int64  `toml:"allowed_chat_id"`
	Trigger       string `toml:"trigger"`
}

// Pickers configures who gets credited for a pick.
type Pickers struct {
	FirstCycle       []string          `toml:"first_cycle"`
	Cycle            []string          `toml:"cycle"`
	Usernames        map[string]string `toml:"usernames"`
	AssignByRotation bool              `toml:"assign_by_rotation"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	AlbumAdded     bool   `toml:"album_added"`
	PublishPending bool   `toml:"publish_pending"`
	Errors         bool   `toml:"errors"`
}

// Paths contains local state and log directories.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for aotw.
//
// Configuration sections by subsystem:
//   - Ledger: Google Sheet id, tab, and service-account credentials
//   - Spotify: catalog API credentials
//   - Publish: GitHub repository receiving the website snapshot
//   - Odesli: Apple Music link resolution
//   - Telegram: chat bot token and allowed chat
//   - Pickers: rotation and username mapping
//   - Notifications: ntfy push notification settings
//   - Paths: state and log directories
//   - Logging: log format and level
type Config struct {
	Ledger        Ledger        `toml:"ledger"`
	Spotify       Spotify       `toml:"spotify"`
	Publish       Publish       `toml:"publish"`
	Odesli        Odesli        `toml:"odesli"`
	Telegram      Telegram      `toml:"telegram"`
	Pickers       Pickers       `toml:"pickers"`
	Notifications Notifications `toml:"notifications"`
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/aotw/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and credentials resolved from the environment when absent.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("aotw.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the submission journal database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the single-flow lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "aotw.lock")
}

// PublishConfigured reports whether the snapshot can be pushed.
func (c *Config) PublishConfigured() bool {
	return c.Publish.Enabled && c.Publish.Token != "" && c.Publish.Owner != "" && c.Publish.Repo != ""
}

// PublishBaseDelay returns the first retry delay for snapshot pushes.
func (c *Config) PublishBaseDelay() time.Duration {
	return time.Duration(c.Publish.BaseDelaySeconds * float64(time.Second))
}

// Credentials describes where the ledger service-account key comes from.
// Exactly one of JSON or File is set when a key is configured.
type Credentials struct {
	JSON []byte
	File string
}

// LedgerCredentials resolves the service-account key, preferring inline key
// material over a file path. An override path wins over both.
func (c *Config) LedgerCredentials(override string) Credentials {
	if override = strings.TrimSpace(override); override != "" {
		return Credentials{File: override}
	}
	if raw := strings.TrimSpace(c.Ledger.CredentialsJSON); raw != "" {
		if strings.HasPrefix(raw, "{") {
			return Credentials{JSON: []byte(raw)}
		}
		return Credentials{File: raw}
	}
	return Credentials{File: c.Ledger.CredentialsFile}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// ErrConfigExists is returned by CreateSample when the target is present and
// overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w at %s", ErrConfigExists, path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}
