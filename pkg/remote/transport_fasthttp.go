package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

type fastHTTPTransport struct {
	c *fasthttp.Client
}

func newFastHTTPTransport() *fastHTTPTransport {
	return &fastHTTPTransport{c: &fasthttp.Client{}}
}

// get enforces the ceiling through DoTimeout. fasthttp does not observe
// contexts, so cancellation is checked up front and the timeout does the
// rest; a late response is discarded with the request objects.
func (t *fastHTTPTransport) get(ctx context.Context, url string, timeout time.Duration) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, ErrTimeout
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(url)
	if err := t.c.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return 0, nil, ErrTimeout
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}
