// Package virtpath parses a WebDAV request path into a typed virtual
// path descriptor without resolving it against any upstream.
package virtpath

import (
	"regexp"
	"strings"
)

var (
	dandisetIDRe = regexp.MustCompile(`^\d{6}$`)
	versionIDRe  = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// VirtPath is the sum type produced by Parse. Each variant below
// implements it via an unexported marker method, giving exhaustive
// type-switch dispatch without a discriminator field.
type VirtPath interface {
	isVirtPath()
}

type Root struct{}

type DandisetIndex struct{}

type Dandiset struct{ ID string }

type DandisetReleases struct{ ID string }

type Version struct {
	ID   string
	Spec VersionSpec
}

type VersionMetadata struct {
	ID   string
	Spec VersionSpec
}

type AssetPath struct {
	ID   string
	Spec VersionSpec
	Rest string
}

type ZarrIndex struct{}

type ZarrManPath struct{ Segments []string }

func (Root) isVirtPath()             {}
func (DandisetIndex) isVirtPath()    {}
func (Dandiset) isVirtPath()         {}
func (DandisetReleases) isVirtPath() {}
func (Version) isVirtPath()          {}
func (VersionMetadata) isVirtPath()  {}
func (AssetPath) isVirtPath()        {}
func (ZarrIndex) isVirtPath()        {}
func (ZarrManPath) isVirtPath()      {}

// VersionSpec is the sum type for how a version is identified.
type VersionSpec interface {
	isVersionSpec()
}

type Draft struct{}

type Latest struct{}

type Published struct{ ID string }

func (Draft) isVersionSpec()     {}
func (Latest) isVersionSpec()    {}
func (Published) isVersionSpec() {}

// fastNotExist holds base names that never exist in the virtual
// hierarchy, matched case-insensitively against the final path
// component. Any hit short-circuits to "not found" with zero upstream
// calls.
var fastNotExist = map[string]struct{}{
	".dav":          {},
	".hidden":       {},
	".ds_store":     {},
	"thumbs.db":     {},
	"desktop.ini":   {},
	".htaccess":     {},
	".well-known":   {},
	"favicon.ico":   {},
	"._.ds_store":   {},
	".apdisk":       {},
	".nfs":          {},
	".git":          {},
	".svn":          {},
	".localized":    {},
	"autorun.inf":   {},
	".fuse_hidden":  {},
	".directory":    {},
	"__macosx":      {},
	".trash":        {},
	".trashes":      {},
	".spotlight-v100": {},
}

// FastNotExist reports whether name matches the fixed set of base
// names that can never resolve to a real resource.
func FastNotExist(name string) bool {
	_, ok := fastNotExist[strings.ToLower(name)]
	return ok
}

// ValidDandisetID reports whether id matches the six-digit dandiset
// identifier grammar.
func ValidDandisetID(id string) bool { return dandisetIDRe.MatchString(id) }

// ValidVersionID reports whether id matches the semantic version
// identifier grammar used for published releases.
func ValidVersionID(id string) bool { return versionIDRe.MatchString(id) }

// ParseError is returned for any path that does not match the grammar.
type ParseError struct{ Path string }

func (e *ParseError) Error() string { return "virtpath: cannot parse path " + e.Path }

// Parse parses a post-percent-decoded URL path into a VirtPath and a
// "collection hinted" bit (true when the original path carried a
// trailing slash; the root and the /dandisets and /zarrs indexes always
// report true, and a dandiset.yaml path always reports false). Path
// components must be non-empty and must not be "." or "..".
func Parse(path string) (VirtPath, bool, error) {
	isCollection := strings.HasSuffix(path, "/") && path != "/"
	trimmed := strings.Trim(path, "/")

	if trimmed == "" {
		return Root{}, true, nil
	}

	parts := strings.Split(trimmed, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return nil, false, &ParseError{Path: path}
		}
	}

	if parts[0] == "dandisets" {
		return parseDandisets(path, parts[1:], isCollection)
	}
	if parts[0] == "zarrs" {
		return parseZarrs(parts[1:], isCollection)
	}

	return nil, false, &ParseError{Path: path}
}

func parseDandisets(fullPath string, rest []string, isCollection bool) (VirtPath, bool, error) {
	if len(rest) == 0 {
		return DandisetIndex{}, true, nil
	}

	id := rest[0]
	if !ValidDandisetID(id) {
		return nil, false, &ParseError{Path: fullPath}
	}

	if len(rest) == 1 {
		return Dandiset{ID: id}, isCollection, nil
	}

	if rest[1] == "releases" {
		if len(rest) == 2 {
			return DandisetReleases{ID: id}, isCollection, nil
		}
		vid := rest[2]
		if !ValidVersionID(vid) {
			return nil, false, &ParseError{Path: fullPath}
		}
		spec := VersionSpec(Published{ID: vid})
		return parseVersionTail(id, spec, rest[3:], isCollection)
	}

	specWord := rest[1]
	var spec VersionSpec
	switch specWord {
	case "draft":
		spec = Draft{}
	case "latest":
		spec = Latest{}
	default:
		return nil, false, &ParseError{Path: fullPath}
	}

	return parseVersionTail(id, spec, rest[2:], isCollection)
}

func parseVersionTail(id string, spec VersionSpec, tail []string, isCollection bool) (VirtPath, bool, error) {
	if len(tail) == 0 {
		return Version{ID: id, Spec: spec}, isCollection, nil
	}
	if len(tail) == 1 && tail[0] == "dandiset.yaml" {
		return VersionMetadata{ID: id, Spec: spec}, false, nil
	}
	rest := strings.Join(tail, "/")
	if isCollection {
		rest = strings.TrimRight(rest, "/")
	}
	return AssetPath{ID: id, Spec: spec, Rest: rest}, isCollection, nil
}

func parseZarrs(rest []string, isCollection bool) (VirtPath, bool, error) {
	if len(rest) == 0 {
		return ZarrIndex{}, true, nil
	}
	return ZarrManPath{Segments: rest}, isCollection, nil
}
