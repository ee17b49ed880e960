package icloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"photoshuttle/internal/config"
	"photoshuttle/internal/services"
)

// HTTPDoer describes the HTTP client used by the iCloud service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements Library against the iCloud web API facade.
type Client struct {
	baseURL  string
	pageSize int
	session  session
	client   HTTPDoer
}

type session struct {
	DSID   string `json:"dsid"`
	Cookie string `json:"cookie"`
}

// NewClient constructs a Library client from configuration. The session file
// must contain pre-acquired web session material.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "icloud", "new client", "configuration unavailable", nil)
	}
	sess, err := loadSession(cfg.ICloud.SessionFile)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.ICloud.BaseURL), "/"),
		pageSize: cfg.ICloud.PageSize,
		session:  sess,
		client:   &http.Client{Timeout: time.Duration(cfg.ICloud.RequestTimeout) * time.Second},
	}, nil
}

// NewClientWithDoer constructs a client with an explicit HTTP doer (tests).
func NewClientWithDoer(baseURL string, pageSize int, doer HTTPDoer) *Client {
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		pageSize: pageSize,
		client:   doer,
	}
}

func loadSession(path string) (session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return session{}, services.Wrap(services.ErrConfiguration, "icloud", "load session", "session file unreadable", err)
	}
	var sess session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session{}, services.Wrap(services.ErrConfiguration, "icloud", "load session", "session file malformed", err)
	}
	if sess.Cookie == "" {
		return session{}, services.Wrap(services.ErrConfiguration, "icloud", "load session", "session cookie missing", nil)
	}
	return sess, nil
}

// Photos returns a cursor over the full library listing.
func (c *Client) Photos(ctx context.Context) (Cursor, error) {
	return &pagedCursor{client: c}, nil
}

// Download streams a photo's original bytes into w.
func (c *Client) Download(ctx context.Context, photo Photo, w io.Writer) error {
	endpoint := fmt.Sprintf("%s/library/photos/%s/download", c.baseURL, url.PathEscape(photo.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	c.applySession(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "icloud", "download", photo.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return services.Wrap(services.ErrTransient, "icloud", "download",
			fmt.Sprintf("%s returned status %d", photo.ID, resp.StatusCode), nil)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return services.Wrap(services.ErrTransient, "icloud", "download", photo.ID, err)
	}
	return nil
}

func (c *Client) applySession(req *http.Request) {
	if c.session.Cookie != "" {
		req.Header.Set("Cookie", c.session.Cookie)
	}
	if c.session.DSID != "" {
		req.Header.Set("X-Apple-ID-Session-Id", c.session.DSID)
	}
}

type listPage struct {
	Items []struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
		Created  int64  `json:"created"`
	} `json:"items"`
}

func (c *Client) listPhotos(ctx context.Context, offset int) ([]Photo, error) {
	endpoint := fmt.Sprintf("%s/library/photos?offset=%d&limit=%d", c.baseURL, offset, c.pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	c.applySession(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "icloud", "list", "offset "+strconv.Itoa(offset), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, services.Wrap(services.ErrTransient, "icloud", "list",
			fmt.Sprintf("offset %d returned status %d", offset, resp.StatusCode), nil)
	}

	var page listPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, services.Wrap(services.ErrTransient, "icloud", "list", "decode listing page", err)
	}

	photos := make([]Photo, 0, len(page.Items))
	for _, item := range page.Items {
		photos = append(photos, Photo{
			ID:      item.ID,
			Name:    item.Filename,
			Size:    item.Size,
			Created: time.Unix(item.Created, 0).UTC(),
		})
	}
	return photos, nil
}

// pagedCursor walks listing pages lazily. It is not safe for concurrent use;
// the download stage owns exactly one cursor at a time.
type pagedCursor struct {
	client    *Client
	offset    int
	buffered  []Photo
	exhausted bool
}

func (c *pagedCursor) Next(ctx context.Context) (*Photo, error) {
	if len(c.buffered) == 0 && !c.exhausted {
		page, err := c.client.listPhotos(ctx, c.offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			c.exhausted = true
		} else {
			c.buffered = page
			c.offset += len(page)
		}
	}
	if len(c.buffered) == 0 {
		return nil, nil
	}
	photo := c.buffered[0]
	c.buffered = c.buffered[1:]
	return &photo, nil
}
