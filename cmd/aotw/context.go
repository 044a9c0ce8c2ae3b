package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"aotw/internal/catalog/spotify"
	"aotw/internal/config"
	"aotw/internal/history"
	"aotw/internal/ledger"
	"aotw/internal/logging"
	"aotw/internal/notifications"
	"aotw/internal/odesli"
	"aotw/internal/pipeline"
	"aotw/internal/publish"
	"aotw/internal/retry"
	"aotw/internal/runlock"
	"aotw/internal/snapshot"
)

// errReported marks a failure the command already explained on stdout.
var errReported = errors.New("reported")

const lockWait = 30 * time.Second

type commandContext struct {
	configFlag *string
	opener     ledger.Opener

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

type contextOption func(*commandContext)

// withLedgerOpener replaces the Google Sheets backend.
func withLedgerOpener(opener ledger.Opener) contextOption {
	return func(c *commandContext) { c.opener = opener }
}

func newCommandContext(configFlag *string, opts ...contextOption) *commandContext {
	c := &commandContext{configFlag: configFlag}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// setup returns the loaded config and process logger.
func (c *commandContext) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func (c *commandContext) ledgerOpener() ledger.Opener {
	if c.opener != nil {
		return c.opener
	}
	return ledger.GoogleSheetsOpener{}
}

func (c *commandContext) ledgerRef(cfg *config.Config) ledger.Ref {
	return ledger.Ref{
		SpreadsheetID: cfg.Ledger.SpreadsheetID,
		Tab:           cfg.Ledger.Tab,
		Credentials:   cfg.LedgerCredentials(""),
	}
}

// requireLedger skips the credential check when a test opener is installed.
func (c *commandContext) requireLedger(cfg *config.Config) error {
	if c.opener != nil {
		return nil
	}
	return cfg.RequireLedger()
}

func catalogClient(cfg *config.Config) (*spotify.Client, error) {
	if err := cfg.RequireSpotify(); err != nil {
		return nil, err
	}
	return spotify.New(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.BaseURL,
		spotify.WithTokenURL(cfg.Spotify.TokenURL),
		spotify.WithTimeout(time.Duration(cfg.Spotify.RequestTimeout)*time.Second),
	)
}

// linkClient returns nil when alternate links are disabled.
func linkClient(cfg *config.Config) (*odesli.Client, error) {
	if !cfg.Odesli.Enabled {
		return nil, nil
	}
	return odesli.New(cfg.Odesli.BaseURL, time.Duration(cfg.Odesli.RequestTimeout)*time.Second,
		odesli.WithRateLimit(cfg.Odesli.RequestsPerSecond),
	)
}

// contentsClient returns nil when publishing is not configured.
func contentsClient(cfg *config.Config) (*publish.ContentsClient, error) {
	if !cfg.PublishConfigured() {
		return nil, nil
	}
	return publish.NewContentsClient(cfg.Publish.Token, cfg.Publish.Owner, cfg.Publish.Repo, cfg.Publish.Branch, cfg.Publish.BaseURL,
		publish.WithTimeout(time.Duration(cfg.Publish.RequestTimeout)*time.Second),
	)
}

func publishPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Publish.MaxAttempts,
		BaseDelay:   cfg.PublishBaseDelay(),
		Multiplier:  cfg.Publish.BackoffMultiplier,
	}
}

func (c *commandContext) publisher(cfg *config.Config, logger *slog.Logger) (*publish.Publisher, error) {
	client, err := contentsClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create github client: %w", err)
	}
	var pusher publish.Pusher
	if client != nil {
		pusher = client
	}
	exporter := snapshot.NewExporter(c.ledgerOpener(), logger)
	return publish.NewPublisher(exporter, pusher, cfg.Publish.Path, publishPolicy(cfg), logger), nil
}

// orchestrator wires the submission pipeline. The returned store must be
// closed by the caller.
func (c *commandContext) orchestrator(cfg *config.Config, logger *slog.Logger) (*pipeline.Orchestrator, *history.Store, error) {
	catalog, err := catalogClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	pub, err := c.publisher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}

	opts := []pipeline.Option{
		pipeline.WithJournal(store),
		pipeline.WithNotifier(notifications.NewService(cfg)),
	}
	links, err := linkClient(cfg)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("create odesli client: %w", err)
	}
	if links != nil {
		opts = append(opts, pipeline.WithLinkResolver(links))
	}
	return pipeline.New(cfg, c.ledgerOpener(), catalog, pub, logger, opts...), store, nil
}

// withRunLock holds the single-flow lock while fn runs.
func withRunLock(ctx context.Context, cfg *config.Config, fn func() error) error {
	lock, err := runlock.Acquire(ctx, cfg.LockPath(), lockWait)
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
