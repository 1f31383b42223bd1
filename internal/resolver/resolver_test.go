package resolver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dandidav/gateway/internal/archive"
	"github.com/dandidav/gateway/internal/config"
	"github.com/dandidav/gateway/internal/s3client"
	"github.com/dandidav/gateway/internal/virtpath"
	"github.com/dandidav/gateway/internal/zarrman"
)

// testResolver wires a Resolver against an httptest-backed archive API
// and an httptest-backed zarr-manifest root. handler serves both
// uniformly since each path prefix it handles is distinct.
func testResolver(t *testing.T, handler http.HandlerFunc) (*Resolver, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	cfg := config.Defaults()

	archiveClient := archive.New(srv.URL, 5*time.Second, logger)
	s3Client := s3client.New(logger, 8)
	zarrmanClient := zarrman.New(srv.URL, 5*time.Second, 1<<20, time.Minute, logger)

	return New(archiveClient, s3Client, zarrmanClient, cfg, logger), srv
}

func TestResolve_Root(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	})

	out, err := r.Resolve(t.Context(), virtpath.Root{}, true, true)
	require.NoError(t, err)
	assert.True(t, out.Resource.IsCollection())
	require.Len(t, out.Children, 2)
	assert.Equal(t, "dandisets", out.Children[0].Name)
	assert.Equal(t, "zarrs", out.Children[1].Name)
}

func TestResolve_DandisetIndex(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/dandisets/":
			_, _ = w.Write([]byte(`{"results":[{"identifier":"000001","draft_version":"draft","most_recent_published_version":null}],"next":null}`))
		default:
			http.NotFound(w, req)
		}
	})

	out, err := r.Resolve(t.Context(), virtpath.DandisetIndex{}, true, true)
	require.NoError(t, err)
	require.Len(t, out.Children, 1)
	assert.Equal(t, "000001", out.Children[0].Name)
	assert.Equal(t, "/dandisets/000001/", out.Children[0].Href)
}

func TestResolve_Dandiset(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/dandisets/000001/":
			_, _ = w.Write([]byte(`{"identifier":"000001","draft_version":"draft","most_recent_published_version":"1.0.0"}`))
		default:
			http.NotFound(w, req)
		}
	})

	out, err := r.Resolve(t.Context(), virtpath.Dandiset{ID: "000001"}, true, true)
	require.NoError(t, err)
	require.Len(t, out.Children, 3)
	names := []string{out.Children[0].Name, out.Children[1].Name, out.Children[2].Name}
	assert.ElementsMatch(t, []string{"draft", "latest", "releases"}, names)
	for _, c := range out.Children {
		if c.Name != "releases" {
			assert.Equal(t, c.Href+"dandiset.yaml", c.MetadataHref)
		}
	}
}

func TestResolve_Dandiset_NotFound(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	})

	_, err := r.Resolve(t.Context(), virtpath.Dandiset{ID: "999999"}, true, true)
	require.Error(t, err)
}

func TestResolve_DandisetReleases_ChildrenHaveMetadataHref(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/dandisets/000001/versions/":
			_, _ = w.Write([]byte(`{"results":[{"version":"1.0.0","size":1,"created":"2024-01-01T00:00:00Z","modified":"2024-01-01T00:00:00Z","asset_counts":{"blob":0,"zarr":0,"total":0}}],"next":null}`))
		default:
			http.NotFound(w, req)
		}
	})

	out, err := r.Resolve(t.Context(), virtpath.DandisetReleases{ID: "000001"}, true, true)
	require.NoError(t, err)
	require.Len(t, out.Children, 1)
	assert.Equal(t, "1.0.0", out.Children[0].Name)
	assert.Equal(t, "/dandisets/000001/releases/1.0.0/dandiset.yaml", out.Children[0].MetadataHref)
}

func TestResolve_Version_Draft_WithChildren(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.URL.Path == "/dandisets/000001/versions/draft/info/":
			_, _ = w.Write([]byte(`{"version":"draft","size":1024,"created":"2024-01-01T00:00:00Z","modified":"2024-06-01T00:00:00Z","asset_counts":{"blob":1,"zarr":0,"total":1}}`))
		case req.URL.Path == "/dandisets/000001/versions/draft/":
			_, _ = w.Write([]byte(`{"name":"a dandiset"}`))
		case strings.HasPrefix(req.URL.Path, "/dandisets/000001/versions/draft/atpath/"):
			_, _ = w.Write([]byte(`{"kind":"folder","children":[{"name":"sub","is_dir":true},{"name":"file.nwb","is_dir":false}]}`))
		default:
			http.NotFound(w, req)
		}
	})

	out, err := r.Resolve(t.Context(), virtpath.Version{ID: "000001", Spec: virtpath.Draft{}}, true, true)
	require.NoError(t, err)
	assert.Equal(t, "draft", out.Resource.Name)
	require.Len(t, out.Children, 3)
	assert.Equal(t, "dandiset.yaml", out.Children[0].Name)
	assert.Equal(t, "sub", out.Children[1].Name)
	assert.True(t, out.Children[1].IsCollection())
	assert.Equal(t, "file.nwb", out.Children[2].Name)
	assert.False(t, out.Children[2].IsCollection())
}

func TestResolve_Version_Latest_NoPublished_NotFound(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if req.URL.Path == "/dandisets/000001/" {
			_, _ = w.Write([]byte(`{"identifier":"000001","draft_version":"draft","most_recent_published_version":null}`))
			return
		}
		http.NotFound(w, req)
	})

	_, err := r.Resolve(t.Context(), virtpath.Version{ID: "000001", Spec: virtpath.Latest{}}, true, true)
	require.Error(t, err)
}

func TestResolve_VersionMetadata(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/dandisets/000001/versions/draft/info/":
			_, _ = w.Write([]byte(`{"version":"draft","size":1,"created":"2024-01-01T00:00:00Z","modified":"2024-06-01T00:00:00Z","asset_counts":{"blob":0,"zarr":0,"total":0}}`))
		case "/dandisets/000001/versions/draft/":
			_, _ = w.Write([]byte(`{"name":"x"}`))
		default:
			http.NotFound(w, req)
		}
	})

	out, err := r.Resolve(t.Context(), virtpath.VersionMetadata{ID: "000001", Spec: virtpath.Draft{}}, false, false)
	require.NoError(t, err)
	assert.Equal(t, "dandiset.yaml", out.Resource.Name)
	assert.Contains(t, string(out.Resource.Bytes), "name: x")
}

func TestResolve_ZarrIndex(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"files":[],"directories":["000","001"]}`))
	})

	out, err := r.Resolve(t.Context(), virtpath.ZarrIndex{}, true, true)
	require.NoError(t, err)
	require.Len(t, out.Children, 2)
	assert.Equal(t, "000", out.Children[0].Name)
	assert.Equal(t, "001", out.Children[1].Name)
}

func TestResolve_AssetPath_Blob_ArchiveRedirect(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(req.URL.Path, "/dandisets/000001/versions/draft/atpath/") {
			_, _ = w.Write([]byte(`{"kind":"blob","asset":{"asset_id":"a1","path":"file.nwb","size":10,"created":"2024-01-01T00:00:00Z","modified":"2024-01-01T00:00:00Z","content_type":"application/x-nwb","etag":"\"abc\"","contentUrl":["not a url"]}}`))
			return
		}
		http.NotFound(w, req)
	})

	out, err := r.Resolve(t.Context(), virtpath.AssetPath{ID: "000001", Spec: virtpath.Draft{}, Rest: "file.nwb"}, false, false)
	require.NoError(t, err)
	assert.False(t, out.Resource.IsCollection())
	assert.Contains(t, out.Resource.RedirectURL, "/download/")
}

func TestResolve_AssetPath_NotFound(t *testing.T) {
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(req.URL.Path, "/dandisets/000001/versions/draft/atpath/") {
			_, _ = w.Write([]byte(`{"kind":"not-found"}`))
			return
		}
		http.NotFound(w, req)
	})

	_, err := r.Resolve(t.Context(), virtpath.AssetPath{ID: "000001", Spec: virtpath.Draft{}, Rest: "missing.nwb"}, false, false)
	require.Error(t, err)
}

func TestResolve_FastNotExist_ShortCircuits(t *testing.T) {
	calls := 0
	r, _ := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls++
		http.NotFound(w, req)
	})

	_, err := r.Resolve(t.Context(), virtpath.AssetPath{ID: "000001", Spec: virtpath.Draft{}, Rest: ".DS_Store"}, false, false)
	require.Error(t, err)
	assert.Equal(t, 0, calls)
}
