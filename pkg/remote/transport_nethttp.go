package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

type netHTTPTransport struct {
	c *http.Client
}

func newNetHTTPTransport() *netHTTPTransport {
	// Per-call deadlines come from the request context; the client itself
	// carries no timeout so the ceiling stays configurable per client.
	return &netHTTPTransport{c: &http.Client{}}
}

func (t *netHTTPTransport) get(ctx context.Context, url string, timeout time.Duration) (int, []byte, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	resp, err := t.c.Do(req)
	if err != nil {
		return 0, nil, classifyNetErr(cctx, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, classifyNetErr(cctx, err)
	}
	return resp.StatusCode, body, nil
}

func classifyNetErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
