// Package resolver walks a parsed virtual path against the archive,
// S3, and Zarr-manifest clients and produces the uniform resource
// model the responder renders.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dandidav/gateway/internal/archive"
	"github.com/dandidav/gateway/internal/config"
	"github.com/dandidav/gateway/internal/gatewayerr"
	"github.com/dandidav/gateway/internal/resource"
	"github.com/dandidav/gateway/internal/s3client"
	"github.com/dandidav/gateway/internal/virtpath"
	"github.com/dandidav/gateway/internal/zarrman"
)

// Resolver holds the three upstream clients plus configuration,
// matching the "single top-level value whose lifetime matches the
// server" design note.
type Resolver struct {
	archive *archive.Client
	s3      *s3client.Client
	zarrman *zarrman.Client
	cfg     *config.Config
	logger  *zap.Logger
}

// New builds a Resolver.
func New(archiveClient *archive.Client, s3Client *s3client.Client, zarrmanClient *zarrman.Client, cfg *config.Config, logger *zap.Logger) *Resolver {
	return &Resolver{archive: archiveClient, s3: s3Client, zarrman: zarrmanClient, cfg: cfg, logger: logger}
}

// Resolve produces the Resource (and, if wantChildren, its children)
// named by vp. collectionHint records whether the request path carried
// a trailing slash; a collection-hinted path that resolves to an item
// is still returned as an item (§4.6) — the responder decides how to
// signal the mismatch.
func (r *Resolver) Resolve(ctx context.Context, vp virtpath.VirtPath, collectionHint, wantChildren bool) (*resource.ResourceWithChildren, error) {
	if name, ok := lastSegment(vp); ok && virtpath.FastNotExist(name) {
		return nil, gatewayerr.New(gatewayerr.NotFound, "resolver.Resolve", nil)
	}

	switch v := vp.(type) {
	case virtpath.Root:
		return r.resolveRoot(wantChildren), nil
	case virtpath.DandisetIndex:
		return r.resolveDandisetIndex(ctx, wantChildren)
	case virtpath.Dandiset:
		return r.resolveDandiset(ctx, v, wantChildren)
	case virtpath.DandisetReleases:
		return r.resolveDandisetReleases(ctx, v, wantChildren)
	case virtpath.Version:
		return r.resolveVersion(ctx, v, wantChildren)
	case virtpath.VersionMetadata:
		return r.resolveVersionMetadata(ctx, v)
	case virtpath.AssetPath:
		return r.resolveAssetPath(ctx, v, wantChildren)
	case virtpath.ZarrIndex:
		return r.resolveZarrIndex(ctx, wantChildren)
	case virtpath.ZarrManPath:
		return r.resolveZarrManPath(ctx, v, wantChildren)
	default:
		return nil, gatewayerr.New(gatewayerr.Internal, "resolver.Resolve", fmt.Errorf("unhandled virtpath %T", vp))
	}
}

// lastSegment returns the final path component of vp and whether vp
// even carries a meaningful trailing component to check.
func lastSegment(vp virtpath.VirtPath) (string, bool) {
	switch v := vp.(type) {
	case virtpath.AssetPath:
		if v.Rest == "" {
			return "", false
		}
		parts := strings.Split(strings.TrimRight(v.Rest, "/"), "/")
		return parts[len(parts)-1], true
	case virtpath.ZarrManPath:
		if len(v.Segments) == 0 {
			return "", false
		}
		return v.Segments[len(v.Segments)-1], true
	default:
		return "", false
	}
}

func (r *Resolver) resolveRoot(wantChildren bool) *resource.ResourceWithChildren {
	res := resource.Resource{
		Kind:            resource.Collection,
		Name:            "",
		Href:            "/",
		DAVResourceType: "<collection/>",
	}
	out := &resource.ResourceWithChildren{Resource: res}
	if wantChildren {
		out.Children = sortChildren([]resource.Resource{
			collectionResource("dandisets", "/dandisets/"),
			collectionResource("zarrs", "/zarrs/"),
		})
	}
	return out
}

func (r *Resolver) resolveDandisetIndex(ctx context.Context, wantChildren bool) (*resource.ResourceWithChildren, error) {
	res := collectionResource("dandisets", "/dandisets/")
	out := &resource.ResourceWithChildren{Resource: res}
	if !wantChildren {
		return out, nil
	}

	var children []resource.Resource
	for info, err := range r.archive.ListDandisets(ctx) {
		if err != nil {
			return nil, err
		}
		children = append(children, collectionResource(info.Identifier, "/dandisets/"+info.Identifier+"/"))
	}
	out.Children = sortChildren(children)
	return out, nil
}

// resolveDandiset confirms the dandiset exists upstream before handing
// back the fixed draft/latest/releases listing; an id that merely
// matches the six-digit grammar but names no real dandiset resolves to
// NotFound (§8 S6) rather than a hollow 200.
func (r *Resolver) resolveDandiset(ctx context.Context, v virtpath.Dandiset, wantChildren bool) (*resource.ResourceWithChildren, error) {
	if _, err := r.archive.GetDandiset(ctx, v.ID); err != nil {
		return nil, err
	}

	href := "/dandisets/" + v.ID + "/"
	res := collectionResource(v.ID, href)
	out := &resource.ResourceWithChildren{Resource: res}
	if wantChildren {
		out.Children = sortChildren([]resource.Resource{
			versionCollectionResource("draft", href+"draft/"),
			versionCollectionResource("latest", href+"latest/"),
			collectionResource("releases", href+"releases/"),
		})
	}
	return out, nil
}

func (r *Resolver) resolveDandisetReleases(ctx context.Context, v virtpath.DandisetReleases, wantChildren bool) (*resource.ResourceWithChildren, error) {
	href := "/dandisets/" + v.ID + "/releases/"
	res := collectionResource("releases", href)
	out := &resource.ResourceWithChildren{Resource: res}
	if !wantChildren {
		return out, nil
	}

	var children []resource.Resource
	for info, err := range r.archive.ListVersions(ctx, v.ID) {
		if err != nil {
			return nil, err
		}
		if !virtpath.ValidVersionID(info.Version) {
			continue
		}
		children = append(children, versionCollectionResource(info.Version, href+info.Version+"/"))
	}
	out.Children = sortChildren(children)
	return out, nil
}

func collectionResource(name, href string) resource.Resource {
	return resource.Resource{
		Kind:            resource.Collection,
		Name:            name,
		Href:            href,
		DAVResourceType: "<collection/>",
	}
}

// versionCollectionResource builds a draft/latest/published version
// placeholder collection with its sibling dandiset.yaml wired up for
// the HTML view's metadata_url column (§4.7).
func versionCollectionResource(name, href string) resource.Resource {
	res := collectionResource(name, href)
	res.MetadataHref = href + "dandiset.yaml"
	return res
}

// sortChildren enforces the stable ordering from §4.6: folders before
// items, each sorted lexicographically (case-sensitive) by name.
func sortChildren(children []resource.Resource) []resource.Resource {
	sort.SliceStable(children, func(i, j int) bool {
		ci, cj := children[i].IsCollection(), children[j].IsCollection()
		if ci != cj {
			return ci
		}
		return children[i].Name < children[j].Name
	})
	return children
}
