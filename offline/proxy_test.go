package offline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProxyServesCachedAssetsOffline(t *testing.T) {
	o := newOrigin(map[string]string{"/app/": "<html></html>", "/app/app.js": "console.log(1)"})
	srv, base := startOrigin(t, o)
	appBase, _ := base.Parse("/app/")

	c := NewContainer(nil, nil)
	w := newTestWorker("spellstr-v2", appBase, NewMemoryStorage(), "./", "./app.js")
	if err := c.Register(context.Background(), w); err != nil {
		t.Fatalf("register: %v", err)
	}

	proxy := httptest.NewServer(NewProxy(c, appBase, nil))
	defer proxy.Close()
	srv.Close()

	for path, want := range map[string]string{"/": "<html></html>", "/app.js": "console.log(1)"} {
		resp, err := http.Get(proxy.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(b) != want {
			t.Errorf("%s: got %d %q, want %q", path, resp.StatusCode, b, want)
		}
	}
	c.Wait()

	resp, err := http.Get(proxy.URL + "/styles.css")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 for uncached asset offline, got %d", resp.StatusCode)
	}
}

func proxyGet(t *testing.T, rawurl string) (int, string) {
	t.Helper()
	resp, err := http.Get(rawurl)
	if err != nil {
		t.Fatalf("get %s: %v", rawurl, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestProxyOnline(t *testing.T) {
	o := newOrigin(map[string]string{
		"/app/":         "<html></html>",
		"/app/extra.js": "extra",
		"/app/form":     "ok",
	})
	_, base := startOrigin(t, o)
	appBase, _ := base.Parse("/app/")
	storage := NewMemoryStorage()

	c := NewContainer(nil, nil)
	if err := c.Register(context.Background(), newTestWorker("spellstr-v2", appBase, storage, "./")); err != nil {
		t.Fatalf("register: %v", err)
	}
	proxy := httptest.NewServer(NewProxy(c, appBase, nil))
	defer proxy.Close()

	t.Run("miss is fetched and stored", func(t *testing.T) {
		status, body := proxyGet(t, proxy.URL+"/extra.js")
		if status != http.StatusOK || body != "extra" {
			t.Fatalf("got %d %q", status, body)
		}
		cached, err := storage.Get("spellstr-v2", appBase.String()+"extra.js")
		if err != nil {
			t.Fatalf("miss not stored: %v", err)
		}
		if string(cached.Body) != "extra" {
			t.Errorf("stored %q", cached.Body)
		}
	})

	t.Run("post passes through", func(t *testing.T) {
		resp, err := http.Post(proxy.URL+"/form", "text/plain", strings.NewReader("x"))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("post status %d", resp.StatusCode)
		}
		if n := o.count("POST /app/form"); n != 1 {
			t.Errorf("origin saw %d posts", n)
		}
		if _, err := storage.Get("spellstr-v2", appBase.String()+"form"); err == nil {
			t.Error("post response was cached")
		}
	})

	t.Run("hit is refreshed", func(t *testing.T) {
		o.set("/app/", "<html>v2</html>")
		status, body := proxyGet(t, proxy.URL+"/")
		if status != http.StatusOK || body != "<html></html>" {
			t.Fatalf("got %d %q, want the cached copy", status, body)
		}
		c.Wait()
		if n := o.count("GET /app/"); n != 2 {
			t.Errorf("origin saw %d GETs of the root, want install and refill", n)
		}
		cached, err := storage.Get("spellstr-v2", appBase.String())
		if err != nil {
			t.Fatal(err)
		}
		if string(cached.Body) != "<html>v2</html>" {
			t.Errorf("cached root = %q after refill", cached.Body)
		}
	})
}

func TestWorkerAcceptsServerRequests(t *testing.T) {
	o := newOrigin(map[string]string{"/": "root", "/late.js": "late"})
	_, base := startOrigin(t, o)
	storage := NewMemoryStorage()
	c := NewContainer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, base.String()+"late.js", nil)
	resp, err := c.RoundTrip(req)
	if err != nil {
		t.Fatalf("no worker: %v", err)
	}
	resp.Body.Close()

	if err := c.Register(context.Background(), newTestWorker("spellstr-v2", base, storage, "./")); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, base.String()+"late.js", nil)
	if req.RequestURI == "" {
		t.Fatal("expected a server-side request")
	}
	resp, err = c.RoundTrip(req)
	if err != nil {
		t.Fatalf("miss: %v", err)
	}
	resp.Body.Close()
	if _, err := storage.Get("spellstr-v2", base.String()+"late.js"); err != nil {
		t.Errorf("miss not stored: %v", err)
	}
	if req.RequestURI == "" {
		t.Error("caller's request was modified")
	}
}
