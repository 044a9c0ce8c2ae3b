package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aotw/internal/testsupport"
)

const (
	testAlbumID  = "6dVIqQ8qmQ5GBnJ9shOYGE"
	testAlbumURL = "https://open.spotify.com/album/" + testAlbumID
	priorAlbumID = "1ATL5GLyefJaxhQzSPVrLX"
)

var testHeader = []string{"Pick", "Date", "Artist", "Album", "Year", "spotify_album_id", "spotify_album_url", "artwork_url", "apple_music_url", "picker"}

const testAlbumJSON = `{
  "id": "6dVIqQ8qmQ5GBnJ9shOYGE",
  "name": "Homogenic",
  "album_type": "album",
  "artists": [{"id": "7w29UYBi0qsHi5RTcv3lmA", "name": "Björk"}],
  "release_date": "1997-09-22",
  "release_date_precision": "day",
  "images": [{"url": "https://i.scdn.co/image/640"}, {"url": "https://i.scdn.co/image/300"}],
  "label": "One Little Independent",
  "genres": ["art pop"],
  "total_tracks": 10
}`

type cliTestEnv struct {
	configPath string
	stateDir   string
	sheet      *testsupport.MemorySheet
	albumCalls int
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	for _, key := range []string{"GOOGLE_SHEET_ID", "GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "GITHUB_TOKEN", "GITHUB_REPO_OWNER", "GITHUB_REPO_NAME", "TELEGRAM_BOT_TOKEN", "TELEGRAM_ALLOWED_CHAT_ID"} {
		t.Setenv(key, "")
	}

	env := &cliTestEnv{
		sheet: testsupport.NewMemorySheet(
			testHeader,
			[]string{"1", "1/5/2025", "Radiohead", "OK Computer", "1997", priorAlbumID, "https://open.spotify.com/album/" + priorAlbumID, "art", "", ""},
		),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/albums/", func(w http.ResponseWriter, r *http.Request) {
		env.albumCalls++
		if !strings.HasSuffix(r.URL.Path, "/"+testAlbumID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testAlbumJSON))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	base := t.TempDir()
	env.stateDir = filepath.Join(base, "state")
	env.configPath = filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[ledger]
spreadsheet_id = "test-sheet"
credentials_file = %q

[spotify]
client_id = "id"
client_secret = "secret"
base_url = %q
token_url = %q

[publish]
enabled = false

[odesli]
enabled = false

[paths]
state_dir = %q
log_dir = %q

[logging]
level = "error"
`, filepath.Join(base, "key.json"), server.URL+"/v1", server.URL+"/api/token", env.stateDir, filepath.Join(base, "logs"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(withLedgerOpener(env.sheet.Opener(nil)))
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
