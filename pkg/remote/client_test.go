package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc, transport string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL, Transport: transport, RPS: 1000, Burst: 1000})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchCollectionParsesPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("expected limit=20; got %q", got)
		}
		if got := r.URL.Query().Get("cursor"); got != "abc" {
			t.Errorf("expected cursor passthrough; got %q", got)
		}
		w.Write([]byte(`{"data":[{"id":"p1"}],"nextCursor":"next"}`))
	}, "nethttp")

	p, err := c.FetchCollection(context.Background(), "posts", 20, "abc")
	if err != nil {
		t.Fatalf("FetchCollection: %v", err)
	}
	if len(p.Data) != 1 || p.NextCursor != "next" {
		t.Fatalf("unexpected page: %+v", p)
	}
}

func TestNon2xxSurfacesAsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "nethttp")

	_, err := c.FetchCollection(context.Background(), "posts", 0, "")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError; got %v", err)
	}
	if se.Status != 500 {
		t.Fatalf("expected status 500; got %d", se.Status)
	}
}

func TestSlowServerSurfacesAsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()
	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, RPS: 1000, Burst: 1000})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	start := time.Now()
	_, err = c.FetchCollection(context.Background(), "posts", 0, "")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout; got %v", err)
	}
	if time.Since(start) > 400*time.Millisecond {
		t.Fatalf("call was not bounded by the configured ceiling")
	}
}

func TestUnreachableHostSurfacesAsNetworkError(t *testing.T) {
	// Reserve a port and close it so the connect is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	c, err := NewClient(Options{BaseURL: url, RPS: 1000, Burst: 1000})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.FetchCollection(context.Background(), "posts", 0, "")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork; got %v", err)
	}
}

func TestMalformedBodySurfacesAsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{{{not json`))
	}, "nethttp")

	_, err := c.FetchCollection(context.Background(), "posts", 0, "")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode; got %v", err)
	}
}

func TestSearchToleratesBothResponseShapes(t *testing.T) {
	for name, body := range map[string]string{
		"bare":    `[{"id":"p1"}]`,
		"wrapped": `{"data":[{"id":"p1"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			payload := body
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/posts/search" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(payload))
			}, "nethttp")
			out, err := c.Search(context.Background(), "posts", "p")
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(out) != 1 {
				t.Fatalf("expected 1 result; got %d", len(out))
			}
		})
	}
}

func TestSearchRejectsEmptyTerm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request should be made for an empty term")
	}, "nethttp")
	if _, err := c.Search(context.Background(), "posts", ""); !errors.Is(err, ErrEmptyTerm) {
		t.Fatalf("expected ErrEmptyTerm; got %v", err)
	}
}

func TestFetchDirectoryDecodesUsersEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/sync" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"users":[{"id":"u1"},{"id":"u2"}]}`))
	}, "nethttp")
	out, err := c.FetchDirectory(context.Background())
	if err != nil {
		t.Fatalf("FetchDirectory: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 users; got %d", len(out))
	}
}

func TestFastHTTPTransportRoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"nextCursor":""}`))
	}, "fasthttp")
	if _, err := c.FetchCollection(context.Background(), "posts", 0, ""); err != nil {
		t.Fatalf("FetchCollection over fasthttp: %v", err)
	}
}

func TestFastHTTPTransportTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()
	c, err := NewClient(Options{BaseURL: srv.URL, Transport: "fasthttp", Timeout: 50 * time.Millisecond, RPS: 1000, Burst: 1000})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.FetchCollection(context.Background(), "posts", 0, ""); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout over fasthttp; got %v", err)
	}
}

func TestNewClientRejectsUnknownTransport(t *testing.T) {
	if _, err := NewClient(Options{BaseURL: "http://x", Transport: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error for unknown transport")
	}
}
