package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dandidav/gateway/internal/archive"
	"github.com/dandidav/gateway/internal/config"
	"github.com/dandidav/gateway/internal/metrics"
	"github.com/dandidav/gateway/internal/resolver"
	"github.com/dandidav/gateway/internal/respond"
	"github.com/dandidav/gateway/internal/s3client"
	"github.com/dandidav/gateway/internal/zarrman"
)

// testServer wires a Server against httptest-backed archive and
// zarrman upstreams, mirroring S1-S6 from the acceptance scenarios.
func testServer(t *testing.T, archiveBody, zarrmanBody string) *Server {
	t.Helper()

	archiveSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/dandisets/") && strings.Contains(r.URL.Path, "/versions/"):
			http.NotFound(w, r)
		case r.URL.Path == "/dandisets/":
			_, _ = w.Write([]byte(archiveBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(archiveSrv.Close)

	zarrmanSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(zarrmanBody))
	}))
	t.Cleanup(zarrmanSrv.Close)

	logger := zap.NewNop()
	cfg := config.Defaults()

	archiveClient := archive.New(archiveSrv.URL, 5*time.Second, logger)
	s3Client := s3client.New(logger, 16)
	zarrmanClient := zarrman.New(zarrmanSrv.URL, 5*time.Second, 1<<20, time.Minute, logger)

	res := resolver.New(archiveClient, s3Client, zarrmanClient, cfg, logger)
	responder, err := respond.New("dandidav", "0.1.0", "")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	return NewServer(cfg, logger, res, responder, reg, m)
}

func TestHandleDAV_Options(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OPTIONS, GET, HEAD, PROPFIND", w.Header().Get("Allow"))
	assert.Equal(t, "1, 3", w.Header().Get("DAV"))
}

func TestHandleDAV_MethodNotAllowed(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "OPTIONS, GET, HEAD, PROPFIND", w.Header().Get("Allow"))
}

func TestHandleDAV_GetRoot_RendersHTML(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "dandisets")
	assert.Contains(t, w.Body.String(), "zarrs")
}

func TestHandleDAV_Head_NoBody(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest(http.MethodHead, "/", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Empty(t, w.Body.Bytes())
}

func TestHandleDAV_Propfind_DepthInfinity_Forbidden(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest("PROPFIND", "/", nil)
	req.Header.Set("Depth", "infinity")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "propfind-finite-depth")
}

func TestHandleDAV_Propfind_DepthOne_Multistatus(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest("PROPFIND", "/", nil)
	req.Header.Set("Depth", "1")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusMultiStatus, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<D:multistatus")
	assert.Equal(t, 3, strings.Count(body, "<D:response>"))
}

func TestHandleDAV_Propfind_DepthZero_SingleResponse(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest("PROPFIND", "/dandisets/", nil)
	req.Header.Set("Depth", "0")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusMultiStatus, w.Code)
	assert.Equal(t, 1, strings.Count(w.Body.String(), "<D:response>"))
}

func TestHandleDAV_GetUnknownPath_NotFound(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest(http.MethodGet, "/not-a-real-prefix/", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NotFound")
}

func TestHandleDAV_GetZarrIndex_ListsTopLevel(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":["000","001"]}`)

	req := httptest.NewRequest(http.MethodGet, "/zarrs/", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "000")
	assert.Contains(t, w.Body.String(), "001")
}

func TestRequestIDMiddleware_SetsHeader(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRecoverMiddleware_PanicRendersInternalError(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)
	s.router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal")
}

func TestHandleStaticCSS(t *testing.T) {
	s := testServer(t, `{"results":[],"next":null}`, `{"files":[],"directories":[]}`)

	req := httptest.NewRequest(http.MethodGet, "/.static/styles.css", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
}
