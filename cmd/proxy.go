package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	spellstrconfig "github.com/lai323/spellstr/config"
	"github.com/lai323/spellstr/db"
	"github.com/lai323/spellstr/offline"
	"github.com/lai323/spellstr/utils"
	"github.com/spf13/cobra"
)

type proxyOptions struct {
	Origin       string
	Listen       string
	CacheVersion string
}

var (
	proxyOpt proxyOptions
	proxyCmd = &cobra.Command{
		Use:   "proxy",
		Short: "serve the web app through an offline cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProxy(cmd.Context(), &config, proxyOpt)
		},
	}
)

func init() {
	proxyCmd.Flags().StringVar(&proxyOpt.Origin, "origin", "", "origin URL of the web app")
	proxyCmd.Flags().StringVar(&proxyOpt.Listen, "listen", "", "listen address")
	proxyCmd.Flags().StringVar(&proxyOpt.CacheVersion, "cache-version", "", "cache namespace to install")
}

func mergeProxyConfig(cfg spellstrconfig.Config, options proxyOptions) spellstrconfig.Config {
	cfg.Proxy.Origin = spellstrconfig.GetStringOption(options.Origin, cfg.Proxy.Origin)
	cfg.Proxy.Listen = spellstrconfig.GetStringOption(options.Listen, cfg.Proxy.Listen)
	cfg.Proxy.CacheVersion = spellstrconfig.GetStringOption(options.CacheVersion, cfg.Proxy.CacheVersion)
	return cfg
}

// parseOrigin requires an absolute http(s) URL and makes its path a
// directory so manifest paths resolve under it.
func parseOrigin(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("Proxy.Origin empty, pass --origin")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, utils.FmtErrorf("parse origin", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("origin must be an absolute http(s) URL, got '%s'", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

func newWorker(cfg spellstrconfig.Config, version string, origin *url.URL, storage offline.Storage, logger *log.Logger) *offline.Worker {
	return offline.NewWorker(offline.WorkerConfig{
		Version:          version,
		Origin:           origin,
		Manifest:         cfg.Proxy.Manifest,
		Storage:          storage,
		Client:           &http.Client{Timeout: 30 * time.Second},
		Logger:           logger,
		RefreshPerMinute: cfg.Proxy.RefreshPerMinute,
	})
}

// startContainer resumes the configured cache, or else the newest one left by
// an earlier run, then installs the configured version. A failed install is
// not fatal as long as something was resumed.
func startContainer(ctx context.Context, cfg spellstrconfig.Config, origin *url.URL, storage offline.Storage, logger *log.Logger) (*offline.Container, error) {
	container := offline.NewContainer(&http.Client{Timeout: 30 * time.Second}, logger)

	names, err := storage.Names()
	if err != nil {
		return nil, err
	}
	resume := newestVersion(names)
	for _, name := range names {
		if name == cfg.Proxy.CacheVersion {
			resume = name
			break
		}
	}
	if resume != "" {
		if err := container.Resume(newWorker(cfg, resume, origin, storage, logger)); err != nil {
			logger.Warn("unable to resume cache", "name", resume, "error", err)
		}
	}

	err = container.Register(ctx, newWorker(cfg, cfg.Proxy.CacheVersion, origin, storage, logger))
	if err != nil {
		if container.Active() == nil {
			return nil, err
		}
		logger.Warn("install failed, serving previous cache", "active", container.Active().Version(), "error", err)
	}
	return container, nil
}

// newestVersion picks the name with the highest trailing number, so
// spellstr-v10 wins over spellstr-v9. Names without a number lose to names
// with one and tie-break lexically.
func newestVersion(names []string) string {
	newest, newestN := "", -1
	for _, name := range names {
		n := versionNumber(name)
		if n > newestN || n == newestN && name > newest {
			newest, newestN = name, n
		}
	}
	return newest
}

func versionNumber(name string) int {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil {
		return -1
	}
	return n
}

func runProxy(ctx context.Context, cfg *spellstrconfig.Config, options proxyOptions) error {
	*cfg = mergeProxyConfig(*cfg, options)
	logger := utils.NewLogger(os.Stderr, cfg.LogLevel, "proxy")
	origin, err := parseOrigin(cfg.Proxy.Origin)
	if err != nil {
		return err
	}

	store, err := db.NewCacheStore(cfg.CacheFile())
	if err != nil {
		return err
	}
	defer store.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := startContainer(ctx, *cfg, origin, store, logger)
	if err != nil {
		return err
	}
	defer container.Wait()

	server := &http.Server{
		Addr:              cfg.Proxy.Listen,
		Handler:           offline.NewProxy(container, origin, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.Proxy.Listen, "origin", origin.String(), "cache", container.Active().Version())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
