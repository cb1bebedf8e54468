package offline

import (
	"errors"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/charmbracelet/log"
)

// NewProxy serves the origin through the container, so the app's assets
// keep loading when the origin is unreachable.
func NewProxy(c *Container, origin *url.URL, logger *log.Logger) *httputil.ReverseProxy {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	p := httputil.NewSingleHostReverseProxy(origin)
	director := p.Director
	p.Director = func(r *http.Request) {
		director(r)
		r.Host = origin.Host
		r.RequestURI = ""
	}
	p.Transport = c
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("proxy request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if errors.Is(err, ErrOffline) {
			http.Error(w, "offline and not cached", http.StatusGatewayTimeout)
			return
		}
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}
	return p
}
