package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"aotw/internal/album"
	"aotw/internal/services"
)

// Image is one artwork rendition.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist is an artist reference or full artist object.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// Album models the fields of the album object the pipeline uses.
type Album struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	AlbumType            string            `json:"album_type"`
	Artists              []Artist          `json:"artists"`
	ReleaseDate          string            `json:"release_date"`
	ReleaseDatePrecision string            `json:"release_date_precision"`
	Images               []Image           `json:"images"`
	Label                string            `json:"label"`
	Genres               []string          `json:"genres"`
	TotalTracks          int               `json:"total_tracks"`
	ExternalURLs         map[string]string `json:"external_urls"`
}

// Client provides access to the Spotify Web API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      clientcredentials.Config
	tokenHTTP  *http.Client
}

type settings struct {
	tokenURL   string
	baseClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*settings)

// WithHTTPClient overrides the transport used for both token and API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		if client != nil {
			s.baseClient = client
		}
	}
}

// WithTokenURL overrides the accounts token endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(s *settings) {
		if tokenURL = strings.TrimSpace(tokenURL); tokenURL != "" {
			s.tokenURL = tokenURL
		}
	}
}

// WithTimeout bounds each API request.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// New creates a Spotify client.
func New(clientID, clientSecret, baseURL string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("spotify client id and secret required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("spotify base url required")
	}

	cfg := settings{
		tokenURL:   "https://accounts.spotify.com/api/token",
		baseClient: &http.Client{},
		timeout:    10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	creds := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     cfg.tokenURL,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, cfg.baseClient)
	httpClient := creds.Client(tokenCtx)
	httpClient.Timeout = cfg.timeout

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		creds:      creds,
		tokenHTTP:  cfg.baseClient,
	}, nil
}

// Ping obtains a fresh access token, proving the credentials work.
func (c *Client) Ping(ctx context.Context) error {
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.tokenHTTP)
	if _, err := c.creds.Token(tokenCtx); err != nil {
		return services.Wrap(services.ErrConfiguration, "spotify", "token", "client credentials rejected", err)
	}
	return nil
}

// GetAlbum fetches the album object for id.
func (c *Client) GetAlbum(ctx context.Context, id string) (*Album, error) {
	var payload Album
	if err := c.get(ctx, "get album", "/albums/"+url.PathEscape(id), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetArtist fetches the artist object for id.
func (c *Client) GetArtist(ctx context.Context, id string) (*Artist, error) {
	var payload Artist
	if err := c.get(ctx, "get artist", "/artists/"+url.PathEscape(id), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// LookupAlbum resolves an album link into a record. SourceURL keeps the
// submitted link.
func (c *Client) LookupAlbum(ctx context.Context, sourceURL string) (album.Record, error) {
	id, ok := album.ExtractID(sourceURL)
	if !ok {
		return album.Record{}, services.Wrap(services.ErrValidation, "spotify", "lookup album", "url carries no album id", nil)
	}
	payload, err := c.GetAlbum(ctx, id)
	if err != nil {
		return album.Record{}, err
	}
	rec := RecordFromAlbum(payload)
	rec.SourceURL = sourceURL
	return rec, nil
}

// RecordFromAlbum maps an album payload into a record. Year is the calendar
// year when the release date is day-precise, otherwise the raw release date.
func RecordFromAlbum(payload *Album) album.Record {
	rec := album.Record{
		CatalogID:   payload.ID,
		Title:       strings.TrimSpace(payload.Name),
		Label:       strings.TrimSpace(payload.Label),
		Genres:      append([]string(nil), payload.Genres...),
		TotalTracks: payload.TotalTracks,
		SourceURL:   payload.ExternalURLs["spotify"],
	}
	if len(payload.Artists) > 0 {
		rec.Artist = strings.TrimSpace(payload.Artists[0].Name)
	}
	rec.Year = payload.ReleaseDate
	if payload.ReleaseDatePrecision == "day" && len(payload.ReleaseDate) >= 4 {
		rec.Year = payload.ReleaseDate[:4]
	}
	switch {
	case len(payload.Images) > 1:
		rec.ArtworkURL = payload.Images[1].URL
	case len(payload.Images) == 1:
		rec.ArtworkURL = payload.Images[0].URL
	}
	return rec
}

func (c *Client) get(ctx context.Context, operation, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "spotify", operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "spotify", operation, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "spotify", operation, fmt.Sprintf("status %d: not an album", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "spotify", operation, fmt.Sprintf("status %d: check client credentials", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrExternal, "spotify", operation, fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternal, "spotify", operation, "decode response", err)
	}
	return nil
}
