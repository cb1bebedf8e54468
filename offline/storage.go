package offline

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("offline: not cached")

// Response is a stored copy of an origin response.
type Response struct {
	Status int
	Header http.Header
	URL    string
	Body   []byte
}

// HTTP rebuilds a response for req from the stored copy.
func (r *Response) HTTP(req *http.Request) *http.Response {
	header := r.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        http.StatusText(r.Status),
		StatusCode:    r.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

// Usage summarizes one namespace.
type Usage struct {
	Namespace string
	Entries   int
	Bytes     int64
	Keys      []string
}

// Storage holds named cache namespaces of responses keyed by request.
// Implementations must be safe for concurrent use.
type Storage interface {
	Names() ([]string, error)
	Get(namespace, key string) (*Response, error)
	Put(namespace, key string, r *Response) error
	// PutAll stores every entry or none of them.
	PutAll(namespace string, entries map[string]*Response) error
	Delete(namespace string) error
	Usage(namespace string) (Usage, error)
}

// MemoryStorage is a Storage that lives only as long as the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	caches map[string]map[string]*Response
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: map[string]map[string]*Response{}}
}

func (m *MemoryStorage) Names() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStorage) Get(namespace, key string) (*Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.caches[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyResponse(r), nil
}

func (m *MemoryStorage) Put(namespace, key string, r *Response) error {
	return m.PutAll(namespace, map[string]*Response{key: r})
}

func (m *MemoryStorage) PutAll(namespace string, entries map[string]*Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.caches[namespace]
	if !ok {
		ns = map[string]*Response{}
		m.caches[namespace] = ns
	}
	for k, r := range entries {
		ns[k] = copyResponse(r)
	}
	return nil
}

func (m *MemoryStorage) Delete(namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.caches, namespace)
	return nil
}

func (m *MemoryStorage) Usage(namespace string) (Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns, ok := m.caches[namespace]
	if !ok {
		return Usage{Namespace: namespace}, ErrNotFound
	}
	u := Usage{Namespace: namespace}
	for k, r := range ns {
		u.Entries++
		u.Bytes += int64(len(r.Body))
		u.Keys = append(u.Keys, k)
	}
	sort.Strings(u.Keys)
	return u, nil
}

func copyResponse(r *Response) *Response {
	return &Response{
		Status: r.Status,
		Header: r.Header.Clone(),
		URL:    r.URL,
		Body:   append([]byte(nil), r.Body...),
	}
}
