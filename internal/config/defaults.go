package config

const (
	defaultLedgerTab           = "Sheet1"
	defaultSpotifyBaseURL      = "https://api.spotify.com/v1"
	defaultSpotifyTokenURL     = "https://accounts.spotify.com/api/token"
	defaultGitHubBaseURL       = "https://api.github.com"
	defaultPublishPath         = "public/data.json"
	defaultPublishBranch       = "main"
	defaultOdesliBaseURL       = "https://api.song.link/v1-alpha.1/links"
	defaultTrigger             = "@aotw"
	defaultStateDir            = "~/.local/share/aotw"
	defaultLogDir              = "~/.local/share/aotw/logs"
	defaultRequestTimeout      = 10
	defaultPublishTimeout      = 30
	defaultPublishAttempts     = 3
	defaultPublishBaseDelay    = 2.0
	defaultBackoffMultiplier   = 2.0
	defaultOdesliRatePerSecond = 2.0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Spotify: Spotify{
			BaseURL:        defaultSpotifyBaseURL,
			TokenURL:       defaultSpotifyTokenURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Publish: Publish{
			Enabled:           true,
			Path:              defaultPublishPath,
			Branch:            defaultPublishBranch,
			BaseURL:           defaultGitHubBaseURL,
			MaxAttempts:       defaultPublishAttempts,
			BaseDelaySeconds:  defaultPublishBaseDelay,
			BackoffMultiplier: defaultBackoffMultiplier,
			RequestTimeout:    defaultPublishTimeout,
		},
		Odesli: Odesli{
			Enabled:           true,
			BaseURL:           defaultOdesliBaseURL,
			RequestTimeout:    defaultRequestTimeout,
			RequestsPerSecond: defaultOdesliRatePerSecond,
		},
		Telegram: Telegram{
			Trigger: defaultTrigger,
		},
		Pickers: Pickers{
			FirstCycle: []string{"SS", "DG", "RB"},
			Cycle:      []string{"SS", "DG", "RB", "JC"},
			Usernames:  map[string]string{},
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
			AlbumAdded:     true,
			PublishPending: true,
			Errors:         true,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
