package archive

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dandidav/gateway/internal/gatewayerr"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, 2*time.Second, zap.NewNop())
	return c, srv
}

func TestGetDandiset(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dandisets/000027/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(DandisetInfo{Identifier: "000027", DraftVersion: "draft"})
	})

	info, err := c.GetDandiset(t.Context(), "000027")
	require.NoError(t, err)
	assert.Equal(t, "000027", info.Identifier)
}

func TestGetDandiset_NotFound(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetDandiset(t.Context(), "999999")
	require.Error(t, err)
	assert.True(t, gatewayerr.Is(err, gatewayerr.NotFound))
}

func TestListDandisets_Pagination(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/dandisets/", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.RawQuery == "" {
			next := srv.URL + "/dandisets/?page=2"
			_ = json.NewEncoder(w).Encode(Page[DandisetInfo]{
				Results: []DandisetInfo{{Identifier: "000001"}},
				Next:    &next,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(Page[DandisetInfo]{
			Results: []DandisetInfo{{Identifier: "000002"}},
		})
	})

	c := New(srv.URL, 2*time.Second, zap.NewNop())

	var got []string
	for item, err := range c.ListDandisets(t.Context()) {
		require.NoError(t, err)
		got = append(got, item.Identifier)
	}
	assert.Equal(t, []string{"000001", "000002"}, got)
	assert.Equal(t, 2, calls)
}

func TestAtPath_Blob(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "path=sub%2Ffile.nwb")
		_ = json.NewEncoder(w).Encode(atPathRawResult{
			Kind:  "blob",
			Asset: &Asset{AssetID: "abc", Path: "sub/file.nwb", Size: 42},
		})
	})

	res, err := c.AtPath(t.Context(), "000027", "draft", "sub/file.nwb", false, false)
	require.NoError(t, err)
	blob, ok := res.(Blob)
	require.True(t, ok)
	assert.Equal(t, uint64(42), blob.Asset.Size)
}

func TestAtPath_NotFound(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(atPathRawResult{Kind: "not-found"})
	})

	res, err := c.AtPath(t.Context(), "000027", "draft", "nope", false, false)
	require.NoError(t, err)
	assert.IsType(t, NotFound{}, res)
}

func TestAtPath_MalformedBlob(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(atPathRawResult{Kind: "blob"})
	})

	_, err := c.AtPath(t.Context(), "000027", "draft", "sub/file.nwb", false, false)
	require.Error(t, err)
	assert.True(t, gatewayerr.Is(err, gatewayerr.UpstreamMalformed))
}
