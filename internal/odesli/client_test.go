package odesli_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aotw/internal/odesli"
	"aotw/internal/services"
)

const source = "https://open.spotify.com/album/6dVIqQ8qmQ5GBnJ9shOYGE"

func TestAppleMusicURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got != source {
			t.Errorf("unexpected url parameter %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"linksByPlatform":{"appleMusic":{"url":"https://music.apple.com/album/1"},"spotify":{"url":"` + source + `"}}}`))
	}))
	t.Cleanup(server.Close)

	client, err := odesli.New(server.URL, time.Second, odesli.WithHTTPClient(server.Client()), odesli.WithRateLimit(100))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	link, err := client.AppleMusicURL(context.Background(), source)
	if err != nil {
		t.Fatalf("AppleMusicURL: %v", err)
	}
	if link != "https://music.apple.com/album/1" {
		t.Fatalf("unexpected link %q", link)
	}
}

func TestAppleMusicURLMissingPlatform(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"statusCode":404}`},
		{name: "no apple link", status: http.StatusOK, body: `{"linksByPlatform":{"spotify":{"url":"x"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(server.Close)

			client, err := odesli.New(server.URL, time.Second)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			link, err := client.AppleMusicURL(context.Background(), source)
			if err != nil || link != "" {
				t.Fatalf("expected empty link without error, got %q %v", link, err)
			}
		})
	}
}

func TestAppleMusicURLServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, err := odesli.New(server.URL, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.AppleMusicURL(context.Background(), source); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	if _, err := odesli.New("", time.Second); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}
