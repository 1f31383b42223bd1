// Package resource holds the uniform in-memory model the responder
// renders, regardless of whether it came from the archive API, the
// Zarr-manifest hierarchy, or a synthetic document.
package resource

import "time"

// Kind distinguishes a collection (directory-like) resource from an
// item (file-like) one.
type Kind int

const (
	Collection Kind = iota
	Item
)

func (k Kind) String() string {
	if k == Collection {
		return "collection"
	}
	return "item"
}

// Resource is the uniform view the responder consumes to render HTML,
// WebDAV multistatus XML, or a redirect — independent of which
// upstream produced it.
type Resource struct {
	Kind Kind
	Name string
	Href string // absolute path, always set

	MetadataHref string // set when a sibling dandiset.yaml exists

	Size        *uint64
	Created     *time.Time
	Modified    *time.Time
	ContentType string
	ETag        string
	Language    string

	// RedirectURL is set on an item resolved as a request target: the
	// upstream location a GET is redirected to. Items built as
	// children of a listing leave it empty.
	RedirectURL string

	// Bytes and ContentType carry an inline body for the synthetic
	// dandiset.yaml metadata document; RedirectURL is empty in that
	// case.
	Bytes []byte

	// DAVResourceType holds the XML element names placed inside
	// <resourcetype> — empty for items, "<collection/>" for
	// collections.
	DAVResourceType string
}

// IsCollection reports whether r is a WebDAV collection.
func (r Resource) IsCollection() bool { return r.Kind == Collection }

// ResourceWithChildren bundles a Resource with its depth-1 children
// when it is a collection. Children are never themselves expanded.
type ResourceWithChildren struct {
	Resource Resource
	Children []Resource
}

// MetadataDocument builds the synthetic dandiset.yaml Resource for a
// version: an inline YAML body served in place of an upstream
// redirect.
func MetadataDocument(href string, yamlBody []byte, modified *time.Time) Resource {
	return Resource{
		Kind:        Item,
		Name:        "dandiset.yaml",
		Href:        href,
		ContentType: "application/yaml",
		Bytes:       yamlBody,
		Modified:    modified,
		Size:        sizePtr(uint64(len(yamlBody))),
	}
}

func sizePtr(v uint64) *uint64 { return &v }
