package httpapi

import (
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dandidav/gateway/internal/gatewayerr"
	"github.com/dandidav/gateway/internal/resource"
	"github.com/dandidav/gateway/internal/respond"
	"github.com/dandidav/gateway/internal/virtpath"
)

// allowHeader is the Allow value advertised on every WebDAV-enabled
// path: the full read-only method set this gateway implements (§4.7).
const allowHeader = "OPTIONS, GET, HEAD, PROPFIND"

// discardBodyWriter wraps a ResponseWriter so headers and status still
// go out normally but no body bytes reach the client, for HEAD
// requests served by the same handler as their GET counterpart.
type discardBodyWriter struct {
	http.ResponseWriter
}

func (d discardBodyWriter) Write(p []byte) (int, error) { return len(p), nil }

// handleDAV is the single catch-all entry point for every request:
// it parses the path, dispatches on method, and renders whatever the
// resolver produces or the typed error it fails with.
func (s *Server) handleDAV(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		s.responder.RenderOptions(w, allowHeader)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Method != "PROPFIND" {
		s.responder.RenderMethodNotAllowed(w, allowHeader)
		return
	}

	vp, collectionHint, err := virtpath.Parse(r.URL.Path)
	if err != nil {
		s.responder.RenderError(w, gatewayerr.New(gatewayerr.NotFound, "httpapi.handleDAV", err))
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, vp, collectionHint)
	case http.MethodHead:
		s.handleGet(discardBodyWriter{w}, r, vp, collectionHint)
	case "PROPFIND":
		s.handlePropfind(w, r, vp, collectionHint)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, vp virtpath.VirtPath, collectionHint bool) {
	res, err := s.resolver.Resolve(r.Context(), vp, collectionHint, true)
	if err != nil {
		s.logResolveError(r, err)
		s.responder.RenderError(w, err)
		return
	}

	if res.Resource.IsCollection() {
		s.responder.RenderHTML(w, r, res.Resource, res.Children)
		return
	}

	if res.Resource.Bytes != nil {
		s.responder.RenderMetadataYAML(w, r, res.Resource)
		return
	}

	s.responder.RenderRedirect(w, r, res.Resource.RedirectURL)
}

func (s *Server) handlePropfind(w http.ResponseWriter, r *http.Request, vp virtpath.VirtPath, collectionHint bool) {
	depth, err := respond.ParseDepth(r.Header.Get("Depth"))
	if err != nil {
		s.responder.RenderError(w, err)
		return
	}
	if depth == respond.DepthInfinity {
		s.responder.RenderFiniteDepthRequired(w)
		return
	}

	propReq, err := respond.ParsePropfindBody(r.Body)
	if err != nil {
		s.responder.RenderError(w, err)
		return
	}

	wantChildren := depth == respond.DepthOne
	res, err := s.resolver.Resolve(r.Context(), vp, collectionHint, wantChildren)
	if err != nil {
		s.logResolveError(r, err)
		s.responder.RenderError(w, err)
		return
	}

	list := make([]resource.Resource, 0, 1+len(res.Children))
	list = append(list, res.Resource)
	if wantChildren {
		list = append(list, res.Children...)
	}

	s.responder.RenderMultistatus(w, list, propReq)
}

// logResolveError logs a resolver failure at the level its kind
// warrants, tracking upstream failures separately from client errors.
func (s *Server) logResolveError(r *http.Request, err error) {
	level := zapcore.ErrorLevel
	kind := "Internal"
	if ge, ok := err.(*gatewayerr.Error); ok {
		level = ge.LogLevel()
		kind = ge.Kind.String()
	}
	if level == zapcore.ErrorLevel {
		s.metrics.UpstreamErrors.WithLabelValues(kind).Inc()
	}
	s.logger.Check(level, "resolve failed").Write(
		zap.String("path", r.URL.Path),
		zap.String("kind", kind),
		zap.Error(err),
	)
}
