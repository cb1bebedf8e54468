package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	spellstrconfig "github.com/lai323/spellstr/config"
	"github.com/lai323/spellstr/db"
	"github.com/lai323/spellstr/offline"
	"github.com/lai323/spellstr/utils"
	"github.com/spf13/cobra"
)

type cacheOptions struct {
	List     bool
	Clear    bool
	Discover bool
}

var (
	cacheOpt cacheOptions
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "inspect the offline cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCache(cmd.Context(), cmd.OutOrStdout(), &config, cacheOpt)
		},
	}
)

func init() {
	cacheCmd.Flags().BoolVar(&cacheOpt.List, "list", false, "list cache namespaces and their size")
	cacheCmd.Flags().BoolVar(&cacheOpt.Clear, "clear", false, "delete every cache namespace")
	cacheCmd.Flags().BoolVar(&cacheOpt.Discover, "discover", false, "print the assets referenced by the origin's root page")
	cacheCmd.Flags().StringVar(&proxyOpt.Origin, "origin", "", "origin URL of the web app")
}

func runCache(ctx context.Context, out io.Writer, cfg *spellstrconfig.Config, options cacheOptions) error {
	*cfg = mergeProxyConfig(*cfg, proxyOpt)
	if options.Discover {
		return discover(ctx, out, cfg.Proxy.Origin)
	}
	if !options.List && !options.Clear {
		return errors.New("one of --list, --clear or --discover is required")
	}

	store, err := db.NewCacheStore(cfg.CacheFile())
	if err != nil {
		return err
	}
	defer store.Close()
	if options.Clear {
		return clearCaches(out, store)
	}
	return listCaches(out, store)
}

func listCaches(out io.Writer, storage offline.Storage) error {
	names, err := storage.Names()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "no caches")
		return nil
	}
	for _, name := range names {
		u, err := storage.Usage(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-20s %4d entries %10s\n", name, u.Entries, humanize.Bytes(uint64(u.Bytes)))
	}
	return nil
}

func clearCaches(out io.Writer, storage offline.Storage) error {
	names, err := storage.Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := storage.Delete(name); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", name)
	}
	return nil
}

func discover(ctx context.Context, out io.Writer, rawOrigin string) error {
	origin, err := parseOrigin(rawOrigin)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin.String(), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return utils.FmtErrorf("fetch origin", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("fetch origin: unexpected status %d", resp.StatusCode)
	}
	assets, err := offline.DiscoverAssets(resp.Body, resp.Header.Get("Content-Type"), origin)
	if err != nil {
		return err
	}
	for _, a := range assets {
		fmt.Fprintln(out, a)
	}
	fmt.Fprintf(os.Stderr, "%d assets, set Proxy.Manifest in %s to use them\n", len(assets), spellstrconfig.DefaultConfigPath)
	return nil
}
