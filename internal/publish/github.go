package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError reports an unexpected HTTP status from the contents API.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("github %s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("github %s: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// ContentsClient reads and writes one repository's files.
type ContentsClient struct {
	token      string
	owner      string
	repo       string
	branch     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a ContentsClient.
type Option func(*ContentsClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ContentsClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *ContentsClient) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewContentsClient creates a client for owner/repo on branch.
func NewContentsClient(token, owner, repo, branch, baseURL string, opts ...Option) (*ContentsClient, error) {
	token = strings.TrimSpace(token)
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if token == "" || owner == "" || repo == "" {
		return nil, errors.New("github token, owner, and repo required")
	}
	if branch = strings.TrimSpace(branch); branch == "" {
		branch = "main"
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL == "" {
		baseURL = "https://api.github.com"
	}
	client := &ContentsClient{
		token:      token,
		owner:      owner,
		repo:       repo,
		branch:     branch,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Repository returns "owner/repo".
func (c *ContentsClient) Repository() string {
	return c.owner + "/" + c.repo
}

// CheckAccess verifies the repository is visible with the configured token.
func (c *ContentsClient) CheckAccess(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo))
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("read repository", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CurrentSHA returns the blob SHA of path on the branch. exists is false when
// the file has not been created yet.
func (c *ContentsClient) CurrentSHA(ctx context.Context, path string) (sha string, exists bool, err error) {
	endpoint := c.contentsURL(path) + "?" + url.Values{"ref": {c.branch}}.Encode()
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, statusError("read file", resp)
	}

	var payload struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, fmt.Errorf("github read file: decode response: %w", err)
	}
	return payload.SHA, true, nil
}

// PutFile creates path, or updates it when sha is non-empty.
func (c *ContentsClient) PutFile(ctx context.Context, path string, content []byte, message, sha string) error {
	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  c.branch,
	}
	if sha != "" {
		body["sha"] = sha
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("github write file: encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.contentsURL(path), bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError("write file", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Push reads the current SHA and writes content in one attempt.
func (c *ContentsClient) Push(ctx context.Context, path string, content []byte, message string) error {
	sha, _, err := c.CurrentSHA(ctx, path)
	if err != nil {
		return err
	}
	return c.PutFile(ctx, path, content, message, sha)
}

func (c *ContentsClient) contentsURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), strings.Join(segments, "/"))
}

func (c *ContentsClient) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return req, nil
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
