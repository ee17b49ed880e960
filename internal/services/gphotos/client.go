package gphotos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"photoshuttle/internal/config"
	"photoshuttle/internal/services"
)

// HTTPDoer describes the HTTP client used by the gphotos service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements Service against the Google Photos Library API.
type Client struct {
	baseURL   string
	uploadURL string
	token     string
	client    HTTPDoer
	limiter   *rate.Limiter
}

type tokenFile struct {
	AccessToken string `json:"access_token"`
}

// NewClient constructs a Service client from configuration. The token file
// must contain a ready-to-use OAuth access token.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "gphotos", "new client", "configuration unavailable", nil)
	}
	token, err := loadToken(cfg.GPhotos.TokenFile)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.GPhotos.BaseURL), "/"),
		uploadURL: strings.TrimSpace(cfg.GPhotos.UploadURL),
		token:     token,
		client:    &http.Client{Timeout: time.Duration(cfg.GPhotos.RequestTimeout) * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(cfg.GPhotos.RequestsPerSecond), 1),
	}, nil
}

// NewClientWithDoer constructs a client with an explicit HTTP doer (tests).
func NewClientWithDoer(baseURL, uploadURL string, doer HTTPDoer) *Client {
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		uploadURL: strings.TrimSpace(uploadURL),
		client:    doer,
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
}

func loadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "gphotos", "load token", "token file unreadable", err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "gphotos", "load token", "token file malformed", err)
	}
	if tf.AccessToken == "" {
		return "", services.Wrap(services.ErrConfiguration, "gphotos", "load token", "access_token missing", nil)
	}
	return tf.AccessToken, nil
}

// Upload pushes raw bytes and returns the opaque upload token. Any non-2xx
// response is a hard failure for the tick that requested it.
func (c *Client) Upload(ctx context.Context, r io.Reader, name string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, r)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Goog-Upload-File-Name", name)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "gphotos", "upload", name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "gphotos", "upload", "read token", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", services.Wrap(services.ErrTransient, "gphotos", "upload",
			fmt.Sprintf("%s returned status %d", name, resp.StatusCode), nil)
	}
	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", services.Wrap(services.ErrTransient, "gphotos", "upload", "empty upload token", nil)
	}
	return token, nil
}

type albumsResponse struct {
	Albums []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"albums"`
}

// ListAlbums returns all albums owned by the authorized account.
func (c *Client) ListAlbums(ctx context.Context) ([]Album, error) {
	var parsed albumsResponse
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/albums", nil, &parsed); err != nil {
		return nil, services.Wrap(services.ErrTransient, "gphotos", "list albums", "", err)
	}
	albums := make([]Album, 0, len(parsed.Albums))
	for _, album := range parsed.Albums {
		albums = append(albums, Album{ID: album.ID, Title: album.Title})
	}
	return albums, nil
}

// CreateAlbum creates a new album with the given title.
func (c *Client) CreateAlbum(ctx context.Context, title string) (Album, error) {
	payload := map[string]any{"album": map[string]string{"title": title}}
	var parsed struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/albums", payload, &parsed); err != nil {
		return Album{}, services.Wrap(services.ErrTransient, "gphotos", "create album", title, err)
	}
	if parsed.ID == "" {
		return Album{}, services.Wrap(services.ErrTransient, "gphotos", "create album", "response missing album id", nil)
	}
	return Album{ID: parsed.ID, Title: parsed.Title}, nil
}

type batchCreateResponse struct {
	NewMediaItemResults []struct {
		UploadToken string `json:"uploadToken"`
		Status      struct {
			Message string `json:"message"`
		} `json:"status"`
	} `json:"newMediaItemResults"`
}

// Append adds uploaded items to an album in one batch call. Results are
// correlated back to the request by position, so every AppendResult carries
// the caller's Ref even when the service omits or mangles token echoes.
func (c *Client) Append(ctx context.Context, albumID string, items []NewMediaItem) ([]AppendResult, error) {
	if len(items) == 0 {
		return nil, nil
	}
	newItems := make([]map[string]any, 0, len(items))
	for _, item := range items {
		newItems = append(newItems, map[string]any{
			"description": item.Description,
			"simpleMediaItem": map[string]string{
				"uploadToken": item.Token,
			},
		})
	}
	payload := map[string]any{
		"albumId":       albumID,
		"newMediaItems": newItems,
	}

	var parsed batchCreateResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/mediaItems:batchCreate", payload, &parsed); err != nil {
		return nil, services.Wrap(services.ErrTransient, "gphotos", "batch append", albumID, err)
	}
	if len(parsed.NewMediaItemResults) != len(items) {
		return nil, services.Wrap(services.ErrTransient, "gphotos", "batch append",
			fmt.Sprintf("requested %d items, got %d results", len(items), len(parsed.NewMediaItemResults)), nil)
	}

	results := make([]AppendResult, 0, len(items))
	for i, result := range parsed.NewMediaItemResults {
		message := result.Status.Message
		results = append(results, AppendResult{
			Ref:    items[i].Ref,
			Status: message,
			OK:     strings.EqualFold(message, "OK") || strings.EqualFold(message, "Success"),
		})
	}
	return results, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
