// Package zarrman is the Zarr-manifest client: directory listings,
// manifest fetches, and the manifest cache with size and idle
// eviction.
package zarrman

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dandidav/gateway/internal/gatewayerr"
)

// zarrRootRe matches the shape "prefix1/prefix2/zarr_id/checksum.zarr"
// identifying a Zarr root within the manifest tree, per the URL layout
// "{manifest_root}/{z[0:3]}/{z[3:6]}/{zarr_id}/{checksum}.json".
var zarrRootRe = regexp.MustCompile(`^[0-9a-zA-Z]{3}/[0-9a-zA-Z]{3}/[0-9a-zA-Z-]+/([0-9a-fA-F]+)\.zarr$`)

// Client fetches directory listings and manifests from the manifest
// root and caches manifests in-process.
type Client struct {
	rootURL string
	http    *http.Client
	logger  *zap.Logger
	cache   *ManifestCache
	inflight *singleFlightGroup
}

// New builds a Client against rootURL with the given cache bound and
// idle TTL.
func New(rootURL string, timeout time.Duration, cacheMaxBytes int64, idleTTL time.Duration, logger *zap.Logger) *Client {
	return &Client{
		rootURL:  strings.TrimRight(rootURL, "/"),
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		cache:    NewManifestCache(cacheMaxBytes, idleTTL),
		inflight: newSingleFlightGroup(),
	}
}

// TopLevel lists the directories at the manifest root.
func (c *Client) TopLevel(ctx context.Context) ([]string, error) {
	listing, err := c.fetchDirListing(ctx, "")
	if err != nil {
		return nil, err
	}
	return listing.Directories, nil
}

// Resource classifies a path under the manifest hierarchy. Directory
// listings are never cached by design (§4.5: "they change whenever new
// manifests appear"); only manifests are.
func (c *Client) Resource(ctx context.Context, segments []string) (Classification, error) {
	return c.resource(ctx, segments, false)
}

// ResourceWithChildren is Resource but also populates the children of
// whatever directory-shaped result is found.
func (c *Client) ResourceWithChildren(ctx context.Context, segments []string) (Classification, error) {
	return c.resource(ctx, segments, true)
}

func (c *Client) resource(ctx context.Context, segments []string, wantChildren bool) (Classification, error) {
	joined := strings.Join(segments, "/")

	if m := zarrRootRe.FindStringSubmatch(joined); m != nil {
		zarrID := segments[len(segments)-2]
		checksum := m[1]
		manifest, err := c.loadManifest(ctx, zarrID, checksum)
		if err != nil {
			return nil, err
		}
		return ZarrRoot{ZarrID: zarrID, Checksum: checksum, Entries: manifest.Root}, nil
	}

	if zarrID, checksum, inner, ok := splitInsideZarr(segments); ok {
		manifest, err := c.loadManifest(ctx, zarrID, checksum)
		if err != nil {
			return nil, err
		}
		return walkManifest(manifest, inner)
	}

	listing, err := c.fetchDirListing(ctx, joined)
	if err != nil {
		return nil, err
	}
	if !wantChildren {
		return TreeDirectory{Directories: listing.Directories, Files: listing.Files}, nil
	}
	return TreeDirectory{Directories: listing.Directories, Files: listing.Files}, nil
}

// splitInsideZarr detects a path that walks into an *already located*
// Zarr root plus a remainder, i.e. has more segments after the
// "...checksum.zarr" component.
func splitInsideZarr(segments []string) (zarrID, checksum string, remainder []string, ok bool) {
	for i := 3; i < len(segments); i++ {
		prefix := strings.Join(segments[:i], "/")
		if m := zarrRootRe.FindStringSubmatch(prefix); m != nil {
			return segments[i-2], m[1], segments[i:], true
		}
	}
	return "", "", nil, false
}

func walkManifest(m *Manifest, path []string) (Classification, error) {
	dir := m.Root
	for i, name := range path {
		if leaf, ok := dir.Entries[name]; ok {
			if i != len(path)-1 {
				return NotFoundPath{}, nil
			}
			return InnerPath{ZarrID: m.ZarrID, Checksum: m.Checksum, Leaf: leaf, Name: name}, nil
		}
		child, ok := dir.Dirs[name]
		if !ok {
			return NotFoundPath{}, nil
		}
		dir = child
	}
	return InnerPath{ZarrID: m.ZarrID, Checksum: m.Checksum, Dir: dir, Name: path[len(path)-1]}, nil
}

// loadManifest returns the cached manifest for (zarrID, checksum),
// fetching and parsing it on a cache miss. Concurrent misses for the
// same key share one fetch via the single-flight group (testable
// property 8).
func (c *Client) loadManifest(ctx context.Context, zarrID, checksum string) (*Manifest, error) {
	if m, ok := c.cache.Get(zarrID, checksum); ok {
		return m, nil
	}

	key := cacheKey{zarrID, checksum}
	return c.inflight.do(key, func() (*Manifest, error) {
		if m, ok := c.cache.Get(zarrID, checksum); ok {
			return m, nil
		}

		path := manifestPath(zarrID, checksum)
		body, err := c.get(ctx, path)
		if err != nil {
			return nil, err
		}
		m, err := parseManifest(zarrID, checksum, body)
		if err != nil {
			return nil, gatewayerr.New(gatewayerr.UpstreamMalformed, "zarrman.loadManifest", err)
		}
		c.cache.Put(m)
		return m, nil
	})
}

// manifestPath builds "{z[0:3]}/{z[3:6]}/{zarr_id}/{checksum}.json".
func manifestPath(zarrID, checksum string) string {
	p1, p2 := zarrID, zarrID
	if len(zarrID) >= 3 {
		p1 = zarrID[:3]
	}
	if len(zarrID) >= 6 {
		p2 = zarrID[3:6]
	}
	return fmt.Sprintf("%s/%s/%s/%s.json", p1, p2, zarrID, checksum)
}

func (c *Client) fetchDirListing(ctx context.Context, path string) (DirListing, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return DirListing{}, err
	}
	var listing DirListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return DirListing{}, gatewayerr.New(gatewayerr.UpstreamMalformed, "zarrman.fetchDirListing", err)
	}
	return listing, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.rootURL
	if path != "" {
		url = c.rootURL + "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.Internal, "zarrman.get", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.UpstreamUnavailable, "zarrman.get "+path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, gatewayerr.New(gatewayerr.NotFound, "zarrman.get "+path, nil)
	}
	if resp.StatusCode >= 400 {
		return nil, gatewayerr.New(gatewayerr.UpstreamUnavailable, "zarrman.get "+path,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}

// Stats exposes the manifest cache's size and hit/miss/eviction
// counters.
func (c *Client) Stats() Stats { return c.cache.Stats() }

// RunHousekeeping ticks once per interval, purging idle manifest
// entries and logging one cache-state line per tick, until ctx is done.
func (c *Client) RunHousekeeping(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := c.cache.SweepIdle()
			stats := c.cache.Stats()
			c.logger.Info("zarrman cache sweep",
				zap.Int("evicted", evicted),
				zap.Int("items", stats.Items),
				zap.Int64("total_bytes", stats.TotalBytes))
		}
	}
}
