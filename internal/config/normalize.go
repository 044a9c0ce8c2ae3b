package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLedger()
	if err := c.normalizeSpotify(); err != nil {
		return err
	}
	c.normalizePublish()
	c.normalizeOdesli()
	if err := c.normalizeTelegram(); err != nil {
		return err
	}
	c.normalizePickers()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLedger() {
	c.Ledger.SpreadsheetID = firstNonEmpty(c.Ledger.SpreadsheetID, envValue("GOOGLE_SHEET_ID"))
	c.Ledger.Tab = firstNonEmpty(c.Ledger.Tab, envValue("GOOGLE_SHEET_TAB"), defaultLedgerTab)
	c.Ledger.CredentialsJSON = firstNonEmpty(c.Ledger.CredentialsJSON, envValue("GOOGLE_SERVICE_ACCOUNT_JSON"))
	c.Ledger.CredentialsFile = firstNonEmpty(c.Ledger.CredentialsFile, envValue("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if expanded, err := expandPath(c.Ledger.CredentialsFile); err == nil {
		c.Ledger.CredentialsFile = expanded
	}
}

func (c *Config) normalizeSpotify() error {
	c.Spotify.ClientID = firstNonEmpty(c.Spotify.ClientID, envValue("SPOTIFY_CLIENT_ID"))
	c.Spotify.ClientSecret = firstNonEmpty(c.Spotify.ClientSecret, envValue("SPOTIFY_CLIENT_SECRET"))
	c.Spotify.BaseURL = strings.TrimRight(firstNonEmpty(c.Spotify.BaseURL, defaultSpotifyBaseURL), "/")
	c.Spotify.TokenURL = firstNonEmpty(c.Spotify.TokenURL, defaultSpotifyTokenURL)
	if c.Spotify.RequestTimeout <= 0 {
		c.Spotify.RequestTimeout = defaultRequestTimeout
	}

	path := strings.TrimSpace(c.Spotify.CredentialsFile)
	if path == "" || (c.Spotify.ClientID != "" && c.Spotify.ClientSecret != "") {
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("spotify.credentials_file: %w", err)
	}
	c.Spotify.CredentialsFile = expanded
	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("spotify.credentials_file: %w", err)
	}
	var creds struct {
		ClientID     string `json:"CLIENT_ID"`
		ClientSecret string `json:"CLIENT_SECRET"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("spotify.credentials_file: parse %s: %w", expanded, err)
	}
	c.Spotify.ClientID = firstNonEmpty(c.Spotify.ClientID, creds.ClientID)
	c.Spotify.ClientSecret = firstNonEmpty(c.Spotify.ClientSecret, creds.ClientSecret)
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.Token = firstNonEmpty(c.Publish.Token, envValue("GITHUB_TOKEN"))
	c.Publish.Owner = firstNonEmpty(c.Publish.Owner, envValue("GITHUB_REPO_OWNER"))
	c.Publish.Repo = firstNonEmpty(c.Publish.Repo, envValue("GITHUB_REPO_NAME"))
	c.Publish.Path = strings.TrimLeft(firstNonEmpty(c.Publish.Path, defaultPublishPath), "/")
	c.Publish.Branch = firstNonEmpty(c.Publish.Branch, defaultPublishBranch)
	c.Publish.BaseURL = strings.TrimRight(firstNonEmpty(c.Publish.BaseURL, defaultGitHubBaseURL), "/")
	if c.Publish.RequestTimeout <= 0 {
		c.Publish.RequestTimeout = defaultPublishTimeout
	}
}

func (c *Config) normalizeOdesli() {
	c.Odesli.BaseURL = firstNonEmpty(c.Odesli.BaseURL, defaultOdesliBaseURL)
	if c.Odesli.RequestTimeout <= 0 {
		c.Odesli.RequestTimeout = defaultRequestTimeout
	}
	if c.Odesli.RequestsPerSecond <= 0 {
		c.Odesli.RequestsPerSecond = defaultOdesliRatePerSecond
	}
}

func (c *Config) normalizeTelegram() error {
	c.Telegram.BotToken = firstNonEmpty(c.Telegram.BotToken, envValue("TELEGRAM_BOT_TOKEN"))
	c.Telegram.Trigger = firstNonEmpty(c.Telegram.Trigger, defaultTrigger)
	if c.Telegram.AllowedChatID != 0 {
		return nil
	}
	if raw := envValue("TELEGRAM_ALLOWED_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_ALLOWED_CHAT_ID: %w", err)
		}
		c.Telegram.AllowedChatID = id
	}
	return nil
}

func (c *Config) normalizePickers() {
	c.Pickers.FirstCycle = trimCodes(c.Pickers.FirstCycle)
	c.Pickers.Cycle = trimCodes(c.Pickers.Cycle)
	usernames := make(map[string]string, len(c.Pickers.Usernames))
	for name, code := range c.Pickers.Usernames {
		name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
		code = strings.ToUpper(strings.TrimSpace(code))
		if name == "" || code == "" {
			continue
		}
		usernames[name] = code
	}
	c.Pickers.Usernames = usernames
}

func trimCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			out = append(out, code)
		}
	}
	return out
}

func envValue(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
