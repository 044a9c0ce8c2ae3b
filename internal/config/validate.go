package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Missing credentials are not
// errors here; commands that need a service check for it and `aotw doctor`
// reports what is absent.
func (c *Config) Validate() error {
	if err := c.validatePublish(); err != nil {
		return err
	}
	if c.Odesli.RequestsPerSecond <= 0 {
		return errors.New("odesli.requests_per_second must be positive")
	}
	if len(c.Pickers.Cycle) == 0 {
		return errors.New("pickers.cycle must list at least one picker code")
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.MaxAttempts < 1 {
		return errors.New("publish.max_attempts must be at least 1")
	}
	if c.Publish.BaseDelaySeconds < 0 {
		return errors.New("publish.base_delay_seconds must not be negative")
	}
	if c.Publish.BackoffMultiplier < 1 {
		return errors.New("publish.backoff_multiplier must be at least 1")
	}
	return nil
}

// RequireLedger reports a configuration error when no sheet is configured.
func (c *Config) RequireLedger() error {
	if c.Ledger.SpreadsheetID == "" {
		return errors.New("ledger.spreadsheet_id is required. Set GOOGLE_SHEET_ID or edit the config (create with 'aotw config init')")
	}
	creds := c.LedgerCredentials("")
	if len(creds.JSON) == 0 && creds.File == "" {
		return errors.New("ledger credentials are required. Set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE")
	}
	return nil
}

// RequireSpotify reports a configuration error when catalog credentials are absent.
func (c *Config) RequireSpotify() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return errors.New("spotify.client_id and spotify.client_secret are required. Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET")
	}
	return nil
}

// RequireTelegram reports a configuration error when the bot cannot start.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required. Set TELEGRAM_BOT_TOKEN")
	}
	if c.Telegram.AllowedChatID == 0 {
		return errors.New("telegram.allowed_chat_id is required. Set TELEGRAM_ALLOWED_CHAT_ID")
	}
	return nil
}
