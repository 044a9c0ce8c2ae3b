package publish_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"aotw/internal/publish"
)

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha"`
}

func newContentsClient(t *testing.T, handler http.HandlerFunc) *publish.ContentsClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := publish.NewContentsClient("tok", "owner", "site", "main", server.URL, publish.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewContentsClient: %v", err)
	}
	return client
}

func TestPushUpdatesExistingFile(t *testing.T) {
	var put putRequest
	client := newContentsClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/site/contents/public/data.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" || r.Header.Get("Accept") != "application/vnd.github+json" {
			t.Errorf("unexpected headers %v", r.Header)
		}
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("ref") != "main" {
				t.Errorf("expected ref=main, got %q", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"sha":"abc123"}`))
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&put); err != nil {
				t.Errorf("decode put: %v", err)
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		}
	})

	if err := client.Push(context.Background(), "public/data.json", []byte(`[]`), "Update album data"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if put.SHA != "abc123" || put.Branch != "main" || put.Message != "Update album data" {
		t.Fatalf("unexpected put body %+v", put)
	}
	decoded, err := base64.StdEncoding.DecodeString(put.Content)
	if err != nil || string(decoded) != "[]" {
		t.Fatalf("unexpected content %q %v", put.Content, err)
	}
}

func TestPushCreatesMissingFile(t *testing.T) {
	var put putRequest
	client := newContentsClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&put)
			w.WriteHeader(http.StatusCreated)
		}
	})

	if err := client.Push(context.Background(), "public/data.json", []byte(`[]`), "msg"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if put.SHA != "" {
		t.Fatalf("expected create without sha, got %q", put.SHA)
	}
}

func TestCurrentSHAErrorStatus(t *testing.T) {
	client := newContentsClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	})

	_, _, err := client.CurrentSHA(context.Background(), "public/data.json")
	var statusErr *publish.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status error, got %v", err)
	}
	if !publish.IsTransportError(err) {
		t.Fatal("expected status errors to be retryable")
	}
}

func TestNewContentsClientRequiresRepository(t *testing.T) {
	if _, err := publish.NewContentsClient("tok", "", "site", "", ""); err == nil {
		t.Fatal("expected error without owner")
	}
}

func TestCheckAccess(t *testing.T) {
	client := newContentsClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/site" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"full_name":"owner/site"}`))
	})
	if err := client.CheckAccess(context.Background()); err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
}
