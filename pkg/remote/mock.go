package remote

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// Mock is the fixture-backed Fetcher used in mock mode and in tests. It is
// selected once at startup, like the live client; no call site branches on
// the mode afterwards.
type Mock struct {
	mu sync.Mutex

	// Pages maps collection -> canned listing page.
	Pages map[string]*Page
	// Records maps "collection/id" -> canned record.
	Records map[string]json.RawMessage
	// Owned maps "collection/ownerId" -> canned records.
	Owned map[string][]json.RawMessage
	// Directory is the canned /users/sync payload.
	Directory []json.RawMessage
	// Err, when set, is returned by every call; tests use it to simulate
	// timeouts and HTTP failures.
	Err error
	// Calls counts invocations per method name.
	Calls map[string]int
}

// NewMock returns an empty mock. Mock mode in the app seeds it with demo
// fixtures; tests seed exactly what they assert on.
func NewMock() *Mock {
	return &Mock{
		Pages:   map[string]*Page{},
		Records: map[string]json.RawMessage{},
		Owned:   map[string][]json.RawMessage{},
		Calls:   map[string]int{},
	}
}

func (m *Mock) count(method string) {
	m.mu.Lock()
	m.Calls[method]++
	m.mu.Unlock()
}

// CallCount returns how many times a method was invoked.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

// FetchCollection implements Fetcher.
func (m *Mock) FetchCollection(ctx context.Context, collection string, limit int, cursor string) (*Page, error) {
	m.count("FetchCollection")
	if m.Err != nil {
		return nil, m.Err
	}
	if p, ok := m.Pages[collection]; ok {
		return p, nil
	}
	return &Page{}, nil
}

// FetchByID implements Fetcher.
func (m *Mock) FetchByID(ctx context.Context, collection, id string) (json.RawMessage, error) {
	m.count("FetchByID")
	if m.Err != nil {
		return nil, m.Err
	}
	if r, ok := m.Records[collection+"/"+id]; ok {
		return r, nil
	}
	return nil, &StatusError{Status: 404}
}

// FetchByOwner implements Fetcher.
func (m *Mock) FetchByOwner(ctx context.Context, collection, ownerID string) ([]json.RawMessage, error) {
	m.count("FetchByOwner")
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Owned[collection+"/"+ownerID], nil
}

// Search implements Fetcher. It matches the term as a substring anywhere in
// the canned page records, which is close enough for fixtures.
func (m *Mock) Search(ctx context.Context, collection, term string) ([]json.RawMessage, error) {
	m.count("Search")
	if m.Err != nil {
		return nil, m.Err
	}
	if term == "" {
		return nil, ErrEmptyTerm
	}
	var out []json.RawMessage
	if p, ok := m.Pages[collection]; ok {
		for _, r := range p.Data {
			if strings.Contains(strings.ToLower(string(r)), strings.ToLower(term)) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// FetchDirectory implements Fetcher.
func (m *Mock) FetchDirectory(ctx context.Context) ([]json.RawMessage, error) {
	m.count("FetchDirectory")
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Directory, nil
}
