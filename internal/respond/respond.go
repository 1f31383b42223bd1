// Package respond renders resolved resources as HTML, WebDAV
// multistatus XML, or inline YAML, and writes the universal response
// headers every non-static response carries. Errors are rendered as a
// small encoding/xml struct keyed by gateway error kind rather than by
// S3 error code.
package respond

import (
	"bytes"
	"encoding/xml"
	"html/template"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/dandidav/gateway/internal/gatewayerr"
	"github.com/dandidav/gateway/internal/resource"
)

// gzipThreshold is the minimum body size, in bytes, worth paying the
// gzip framing cost for.
const gzipThreshold = 1024

// Responder renders resolved resources into HTTP responses.
type Responder struct {
	title          string
	packageVersion string
	packageCommit  string
	htmlTemplate   *template.Template
}

// New builds a Responder. packageCommit may be empty.
func New(title, packageVersion, packageCommit string) (*Responder, error) {
	tmpl, err := template.New("listing").Parse(listingTemplate)
	if err != nil {
		return nil, err
	}
	return &Responder{
		title:          title,
		packageVersion: packageVersion,
		packageCommit:  packageCommit,
		htmlTemplate:   tmpl,
	}, nil
}

// WriteUniversalHeaders sets the headers present on every non-static
// response: CORS wildcard, the DAV compliance class, and the Server
// banner (§4.7).
func (r *Responder) WriteUniversalHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("DAV", "1, 3")
	w.Header().Set("Server", "dandidav/"+r.packageVersion)
}

// RenderRedirect issues the 307 used for a direct GET on an item.
func (r *Responder) RenderRedirect(w http.ResponseWriter, req *http.Request, location string) {
	r.WriteUniversalHeaders(w)
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// RenderMetadataYAML writes the inline body of a synthetic
// dandiset.yaml resource.
func (r *Responder) RenderMetadataYAML(w http.ResponseWriter, req *http.Request, res resource.Resource) {
	r.WriteUniversalHeaders(w)
	r.writeBody(w, req, "application/yaml; charset=utf-8", res.Bytes)
}

// RenderFiniteDepthRequired writes the 403 propfind-finite-depth body
// RFC 4918 mandates for Depth: infinity.
func (r *Responder) RenderFiniteDepthRequired(w http.ResponseWriter) {
	r.WriteUniversalHeaders(w)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write([]byte(`<D:error xmlns:D="DAV:"><D:propfind-finite-depth/></D:error>`))
}

// gatewayError is the XML error body shape for non-WebDAV error
// responses: a flat Kind/Message pair rather than a multistatus
// document.
type gatewayError struct {
	XMLName xml.Name `xml:"Error"`
	Kind    string   `xml:"Kind"`
	Message string   `xml:"Message,omitempty"`
}

// RenderError writes a typed gateway error as an XML body with the
// status StatusCode() maps to.
func (r *Responder) RenderError(w http.ResponseWriter, err error) {
	r.WriteUniversalHeaders(w)

	status := gatewayerr.StatusCode(err)
	kind := "Internal"
	message := ""
	if ge, ok := err.(*gatewayerr.Error); ok {
		kind = ge.Kind.String()
		message = ge.Error()
	}

	body, marshalErr := xml.MarshalIndent(gatewayError{Kind: kind, Message: message}, "", "  ")
	if marshalErr != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}

// RenderMethodNotAllowed writes the 405 for unsupported verbs.
func (r *Responder) RenderMethodNotAllowed(w http.ResponseWriter, allow string) {
	r.WriteUniversalHeaders(w)
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// RenderOptions writes the 200 OPTIONS response with DAV compliance
// headers (S1).
func (r *Responder) RenderOptions(w http.ResponseWriter, allow string) {
	r.WriteUniversalHeaders(w)
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusOK)
}

// writeBody writes body, gzip-encoding it via
// github.com/klauspost/compress when the client accepts gzip and the
// body is large enough to be worth it.
func (r *Responder) writeBody(w http.ResponseWriter, req *http.Request, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)

	if len(body) < gzipThreshold || !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(body); err != nil {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	if err := gz.Close(); err != nil {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
