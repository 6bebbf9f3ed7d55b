package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"mirrorsync/pkg/logger"
)

// DefaultTimeout bounds every remote call so a feed load never hangs the UI.
const DefaultTimeout = 8 * time.Second

// Options configures the live client.
type Options struct {
	BaseURL string
	// Transport selects the HTTP stack: "nethttp" (default) or "fasthttp".
	Transport string
	Timeout   time.Duration
	// RPS/Burst bound outbound request rate. Zero values pick safe defaults.
	RPS   float64
	Burst int
}

// Client is the live Fetcher over the collection API.
type Client struct {
	base    string
	timeout time.Duration
	limiter *rate.Limiter
	tr      transport
}

// transport performs one bounded GET and classifies transport-level errors
// into the package taxonomy.
type transport interface {
	get(ctx context.Context, url string, timeout time.Duration) (status int, body []byte, err error)
}

// NewClient builds a live client. The transport is chosen once here; call
// sites never branch on it again.
func NewClient(o Options) (*Client, error) {
	if o.BaseURL == "" {
		return nil, fmt.Errorf("remote: base url required")
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := o.RPS
	if rps <= 0 {
		rps = 5
	}
	burst := o.Burst
	if burst <= 0 {
		burst = 10
	}
	var tr transport
	switch o.Transport {
	case "", "nethttp":
		tr = newNetHTTPTransport()
	case "fasthttp":
		tr = newFastHTTPTransport()
	default:
		return nil, fmt.Errorf("remote: unknown transport %q", o.Transport)
	}
	return &Client{
		base:    o.BaseURL,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		tr:      tr,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrTimeout, err)
	}
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	status, body, err := c.tr.get(ctx, u, c.timeout)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Status: status}
	}
	return body, nil
}

// FetchCollection implements Fetcher.
func (c *Client) FetchCollection(ctx context.Context, collection string, limit int, cursor string) (*Page, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	body, err := c.get(ctx, "/"+collection, q)
	if err != nil {
		return nil, err
	}
	var p Page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	logger.Debug("collection_fetched", "collection", collection, "count", len(p.Data))
	return &p, nil
}

// FetchByID implements Fetcher.
func (c *Client) FetchByID(ctx context.Context, collection, id string) (json.RawMessage, error) {
	body, err := c.get(ctx, "/"+collection+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid json for %s/%s", ErrDecode, collection, id)
	}
	return json.RawMessage(body), nil
}

// FetchByOwner implements Fetcher.
func (c *Client) FetchByOwner(ctx context.Context, collection, ownerID string) ([]json.RawMessage, error) {
	body, err := c.get(ctx, "/"+collection+"/user/"+url.PathEscape(ownerID), nil)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// Search implements Fetcher.
func (c *Client) Search(ctx context.Context, collection, term string) ([]json.RawMessage, error) {
	if term == "" {
		return nil, ErrEmptyTerm
	}
	q := url.Values{}
	q.Set("term", term)
	body, err := c.get(ctx, "/"+collection+"/search", q)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// FetchDirectory implements Fetcher.
func (c *Client) FetchDirectory(ctx context.Context) ([]json.RawMessage, error) {
	body, err := c.get(ctx, "/users/sync", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Users []json.RawMessage `json:"users"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out.Users, nil
}
