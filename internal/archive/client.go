// Package archive is the typed client for the archive's JSON REST API:
// dandisets, versions, version metadata, and the atpath resolver.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dandidav/gateway/internal/gatewayerr"
)

// Client is the archive REST client. It issues every upstream call
// sequentially per request per §5, applying the retry policy in
// retry.go to every idempotent GET.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New builds a Client against baseURL with the given per-request
// timeout. The limiter is a single token bucket shared across every
// call to this upstream host, smoothing out retry storms.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(20), 20),
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.doWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	})
	if err != nil {
		return gatewayerr.New(gatewayerr.UpstreamUnavailable, "archive.getJSON "+path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return gatewayerr.New(gatewayerr.NotFound, "archive.getJSON "+path, nil)
	}
	if resp.StatusCode >= 400 {
		return gatewayerr.New(gatewayerr.UpstreamUnavailable, "archive.getJSON "+path,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gatewayerr.New(gatewayerr.UpstreamUnavailable, "archive.getJSON "+path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return gatewayerr.New(gatewayerr.UpstreamMalformed, "archive.getJSON "+path, err)
	}
	return nil
}

// GetDandiset fetches a single dandiset's current state, including its
// draft version id and most recent published version id.
func (c *Client) GetDandiset(ctx context.Context, id string) (DandisetInfo, error) {
	var info DandisetInfo
	err := c.getJSON(ctx, "/dandisets/"+id+"/", &info)
	return info, err
}

// ListDandisets returns a lazily-paginated stream of dandisets,
// following the archive API's "next" link strictly serially.
func (c *Client) ListDandisets(ctx context.Context) iter.Seq2[DandisetInfo, error] {
	return paginate[DandisetInfo](c, ctx, "/dandisets/")
}

// ListVersions returns a lazily-paginated stream of a dandiset's
// versions.
func (c *Client) ListVersions(ctx context.Context, dandisetID string) iter.Seq2[VersionInfo, error] {
	return paginate[VersionInfo](c, ctx, "/dandisets/"+dandisetID+"/versions/")
}

// GetVersionInfo fetches size/created/modified/asset-counts for one
// version of a dandiset.
func (c *Client) GetVersionInfo(ctx context.Context, dandisetID, versionID string) (VersionInfo, error) {
	var info VersionInfo
	err := c.getJSON(ctx, "/dandisets/"+dandisetID+"/versions/"+versionID+"/info/", &info)
	return info, err
}

// GetVersionMetadata fetches the raw metadata JSON blob for a version,
// used to build the synthetic dandiset.yaml document.
func (c *Client) GetVersionMetadata(ctx context.Context, dandisetID, versionID string) (map[string]any, error) {
	var blob map[string]any
	err := c.getJSON(ctx, "/dandisets/"+dandisetID+"/versions/"+versionID+"/", &blob)
	return blob, err
}

// atPathRawResult is the wire shape for the atpath endpoint.
type atPathRawResult struct {
	Kind     string  `json:"kind"` // "blob" | "zarr" | "folder" | "not-found"
	Asset    *Asset  `json:"asset,omitempty"`
	Children []Entry `json:"children,omitempty"`
}

// AtPath resolves a version-relative path to a blob, Zarr, folder, or
// not-found in one call, optionally asking for immediate children and
// optionally resolving asset metadata.
func (c *Client) AtPath(ctx context.Context, dandisetID, versionID, path string, wantChildren, wantMetadata bool) (AtPathResult, error) {
	q := url.Values{}
	q.Set("path", path)
	if wantChildren {
		q.Set("children", "true")
	}
	if wantMetadata {
		q.Set("metadata", "true")
	}

	var raw atPathRawResult
	err := c.getJSON(ctx, "/dandisets/"+dandisetID+"/versions/"+versionID+"/atpath/?"+q.Encode(), &raw)
	if gatewayerr.Is(err, gatewayerr.NotFound) {
		return NotFound{}, nil
	}
	if err != nil {
		return nil, err
	}

	switch raw.Kind {
	case "blob":
		if raw.Asset == nil {
			return nil, gatewayerr.New(gatewayerr.UpstreamMalformed, "archive.AtPath", fmt.Errorf("blob result missing asset"))
		}
		return Blob{Asset: *raw.Asset}, nil
	case "zarr":
		if raw.Asset == nil {
			return nil, gatewayerr.New(gatewayerr.UpstreamMalformed, "archive.AtPath", fmt.Errorf("zarr result missing asset"))
		}
		return Zarr{Asset: *raw.Asset}, nil
	case "folder":
		return Folder{Children: raw.Children}, nil
	case "not-found":
		return NotFound{}, nil
	default:
		return nil, gatewayerr.New(gatewayerr.UpstreamMalformed, "archive.AtPath",
			fmt.Errorf("unknown atpath kind %q", raw.Kind))
	}
}

