package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	ErrOffline      = errors.New("offline: network unavailable and nothing cached")
	ErrInstall      = errors.New("offline: install failed")
	ErrNotInstalled = errors.New("offline: version not installed")
)

const refillTimeout = 30 * time.Second

// Fetcher performs real network requests. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

type WorkerConfig struct {
	// Version names the cache namespace, e.g. "spellstr-v2".
	Version  string
	Origin   *url.URL
	Manifest []string
	Storage  Storage
	Client   Fetcher
	Logger   *log.Logger
	// RefreshPerMinute limits background refills of cache hits. Zero or less
	// means no limit.
	RefreshPerMinute int
}

// Worker intercepts requests for one cache version.
type Worker struct {
	version  string
	origin   *url.URL
	manifest []string
	storage  Storage
	client   Fetcher
	logger   *log.Logger
	limiter  *rate.Limiter

	mu    sync.RWMutex
	state State
	wg    sync.WaitGroup
}

func NewWorker(cfg WorkerConfig) *Worker {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	limit := rate.Inf
	if cfg.RefreshPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RefreshPerMinute))
	}
	return &Worker{
		version:  cfg.Version,
		origin:   cfg.Origin,
		manifest: append([]string(nil), cfg.Manifest...),
		storage:  cfg.Storage,
		client:   client,
		logger:   logger.With("cache", cfg.Version),
		limiter:  rate.NewLimiter(limit, 1),
		state:    StateInstalling,
	}
}

func (w *Worker) Version() string {
	return w.version
}

func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Install fetches every manifest asset and stores them together. If any asset
// fails nothing is written and the worker ends in StateInstallFailed.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)
	w.logger.Info("installing", "assets", len(w.manifest))

	keys := make([]string, len(w.manifest))
	responses := make([]*Response, len(w.manifest))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range w.manifest {
		i, p := i, p
		g.Go(func() error {
			u, err := w.resolve(p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, u.String(), nil)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			r, err := w.do(req)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			if !ok(r.Status) {
				return fmt.Errorf("%s: unexpected status %d", p, r.Status)
			}
			keys[i] = cacheKey(req.URL)
			responses[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return w.failInstall(err)
	}

	entries := make(map[string]*Response, len(keys))
	for i, k := range keys {
		entries[k] = responses[i]
	}
	if err := w.storage.PutAll(w.version, entries); err != nil {
		return w.failInstall(err)
	}
	w.setState(StateInstalled)
	w.logger.Info("installed", "assets", len(entries))
	return nil
}

func (w *Worker) failInstall(err error) error {
	w.setState(StateInstallFailed)
	w.logger.Warn("install failed", "error", err)
	return fmt.Errorf("%w: %s: %v", ErrInstall, w.version, err)
}

// Activate removes every other namespace and starts intercepting requests.
func (w *Worker) Activate(ctx context.Context) error {
	if st := w.State(); st != StateInstalled && st != StateActive {
		return fmt.Errorf("%w: %s is %s", ErrNotInstalled, w.version, st)
	}
	names, err := w.storage.Names()
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}
	for _, name := range names {
		if name == w.version {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.storage.Delete(name); err != nil {
			return fmt.Errorf("delete cache %s: %w", name, err)
		}
		w.logger.Info("deleted old cache", "name", name)
	}
	w.setState(StateActive)
	w.logger.Info("activated")
	return nil
}

func (w *Worker) retire() {
	w.setState(StateRedundant)
	w.logger.Info("superseded")
}

// RoundTrip serves GET requests cache first. A hit is returned immediately and
// refreshed in the background; a miss goes to the network and is stored on
// success. Requests are passed straight through unless the worker is active.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || w.State() != StateActive {
		return w.client.Do(outgoing(req))
	}
	key := cacheKey(req.URL)

	cached, err := w.storage.Get(w.version, key)
	if err == nil {
		w.logger.Debug("cache hit", "url", key)
		w.refill(req, key)
		return cached.HTTP(req), nil
	}
	if !errors.Is(err, ErrNotFound) {
		w.logger.Warn("cache lookup failed", "url", key, "error", err)
	}

	fresh, err := w.do(req)
	if err != nil {
		w.logger.Debug("network failed with no cached copy", "url", key, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrOffline, key, err)
	}
	w.store(key, fresh)
	return fresh.HTTP(req), nil
}

func (w *Worker) refill(req *http.Request, key string) {
	if !w.limiter.Allow() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), refillTimeout)
	clone := req.Clone(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		fresh, err := w.do(clone)
		if err != nil {
			w.logger.Debug("background refill failed", "url", key, "error", err)
			return
		}
		w.store(key, fresh)
	}()
}

// Wait blocks until pending background refills finish.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) store(key string, r *Response) {
	if !ok(r.Status) {
		return
	}
	if w.State() != StateActive {
		return
	}
	if err := w.storage.Put(w.version, key, r); err != nil {
		w.logger.Debug("cache write dropped", "url", key, "crossOrigin", !w.sameOrigin(r.URL), "error", err)
	}
}

func (w *Worker) do(req *http.Request) (*Response, error) {
	resp, err := w.client.Do(outgoing(req))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		URL:    req.URL.String(),
		Body:   body,
	}, nil
}

func (w *Worker) resolve(p string) (*url.URL, error) {
	ref, err := url.Parse(p)
	if err != nil {
		return nil, err
	}
	if w.origin == nil {
		return nil, errors.New("origin is not configured")
	}
	return w.origin.ResolveReference(ref), nil
}

func (w *Worker) sameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || w.origin == nil {
		return false
	}
	return u.Scheme == w.origin.Scheme && u.Host == w.origin.Host
}

// outgoing makes a request received by a server usable with an http.Client,
// which refuses requests that carry a RequestURI.
func outgoing(req *http.Request) *http.Request {
	if req.RequestURI == "" {
		return req
	}
	out := req.Clone(req.Context())
	out.RequestURI = ""
	return out
}

func cacheKey(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
