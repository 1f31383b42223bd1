package zarrman

import "time"

// DirListing is the JSON shape returned by a manifest-root directory
// listing endpoint.
type DirListing struct {
	Files       []string `json:"files"`
	Directories []string `json:"directories"`
}

// EntryLeaf is one leaf value in a manifest's entries tree: an array
// [s3_version_id, last_modified, size, etag] on the wire.
type EntryLeaf struct {
	S3VersionID  string
	LastModified time.Time
	Size         uint64
	ETag         string
}

// DirObject is a manifest directory node: every key maps either to
// another DirObject or to an EntryLeaf.
type DirObject struct {
	Dirs    map[string]*DirObject
	Entries map[string]*EntryLeaf
}

// Manifest is the parsed content of one {checksum}.json manifest file.
type Manifest struct {
	ZarrID   string
	Checksum string
	Root     *DirObject
	RawSize  int // approximate serialized byte size, for cache accounting
}

// Classification is what Resource/ResourceWithChildren settle a path
// into: a plain manifest-tree directory, a Zarr root, or a path inside
// a Zarr.
type Classification interface {
	isClassification()
}

// TreeDirectory is a directory in the manifest tree itself (not yet
// inside any particular Zarr), listed via the shallow manifest-root
// HTTP endpoint.
type TreeDirectory struct {
	Directories []string
	Files       []string
}

// ZarrRoot is the top-level entries view of one Zarr's manifest.
type ZarrRoot struct {
	ZarrID   string
	Checksum string
	Entries  *DirObject
}

// InnerPath is a sub-DirObject or leaf entry found by walking inside a
// Zarr's manifest.
type InnerPath struct {
	ZarrID   string
	Checksum string
	Dir      *DirObject // non-nil when the path names a directory
	Leaf     *EntryLeaf // non-nil when the path names a file
	Name     string
}

// NotFoundPath means the requested segments do not exist anywhere in
// the manifest hierarchy.
type NotFoundPath struct{}

func (TreeDirectory) isClassification() {}
func (ZarrRoot) isClassification()      {}
func (InnerPath) isClassification()     {}
func (NotFoundPath) isClassification()  {}
