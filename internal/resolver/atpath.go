package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dandidav/gateway/internal/archive"
	"github.com/dandidav/gateway/internal/gatewayerr"
	"github.com/dandidav/gateway/internal/resource"
	"github.com/dandidav/gateway/internal/s3url"
	"github.com/dandidav/gateway/internal/virtpath"
)

// zarrSuffixes are the asset path components, matched case-insensitively,
// that mark an intermediate directory as a Zarr/NGFF root (§4.4).
var zarrSuffixes = []string{".zarr", ".ngff"}

func hasZarrSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range zarrSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// splitPoints returns every prefix-length of parts whose last component
// ends in a Zarr/NGFF suffix, plus the full path length, in ascending
// order — the walk's successive split candidates per §4.4/§4.6.
func splitPoints(parts []string) []int {
	var points []int
	for i, p := range parts {
		if hasZarrSuffix(p) {
			points = append(points, i+1)
		}
	}
	if len(points) == 0 || points[len(points)-1] != len(parts) {
		points = append(points, len(parts))
	}
	return points
}

func (r *Resolver) resolveAssetPath(ctx context.Context, v virtpath.AssetPath, wantChildren bool) (*resource.ResourceWithChildren, error) {
	versionID, err := r.resolveVersionID(ctx, v.ID, v.Spec)
	if err != nil {
		return nil, err
	}

	restParts := strings.Split(v.Rest, "/")
	splits := splitPoints(restParts)
	baseHref := versionHref(v.ID, v.Spec)

	for _, end := range splits {
		prefix := strings.Join(restParts[:end], "/")
		isFullPath := end == len(restParts)

		result, err := r.archive.AtPath(ctx, v.ID, versionID, prefix, wantChildren && isFullPath, false)
		if err != nil {
			return nil, err
		}

		switch res := result.(type) {
		case archive.NotFound:
			return nil, gatewayerr.New(gatewayerr.NotFound, "resolver.resolveAssetPath", nil)

		case archive.Blob:
			if !isFullPath {
				return nil, gatewayerr.New(gatewayerr.NotFound, "resolver.resolveAssetPath", nil)
			}
			return r.blobResource(baseHref, prefix, res.Asset), nil

		case archive.Zarr:
			remainder := restParts[end:]
			if len(remainder) == 0 {
				return r.zarrAssetResource(ctx, baseHref, prefix, res.Asset, wantChildren)
			}
			return r.s3LookupForZarr(ctx, baseHref, prefix, remainder, res.Asset, wantChildren)

		case archive.Folder:
			if isFullPath {
				out := &resource.ResourceWithChildren{Resource: collectionResource(lastOf(restParts), baseHref+prefix+"/")}
				if wantChildren {
					children := make([]resource.Resource, 0, len(res.Children))
					for _, entry := range res.Children {
						children = append(children, entryResource(baseHref+prefix+"/", entry))
					}
					out.Children = sortChildren(children)
				}
				return out, nil
			}
			// continue the walk
			continue

		default:
			return nil, gatewayerr.New(gatewayerr.Internal, "resolver.resolveAssetPath",
				fmt.Errorf("unhandled atpath result %T", result))
		}
	}

	return nil, gatewayerr.New(gatewayerr.NotFound, "resolver.resolveAssetPath", nil)
}

func lastOf(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// blobResource builds the Resource for a single blob asset, applying
// the redirect policy: the archive /download/ URL by default, or the
// first parseable S3 contentUrl when prefer-S3-redirects is configured
// (§4.4, §9).
func (r *Resolver) blobResource(baseHref, path string, asset archive.Asset) *resource.ResourceWithChildren {
	href := baseHref + path
	redirect := r.archiveDownloadURL(asset)
	if r.cfg.Archive.PreferS3Redirects {
		if loc, ok := s3url.FirstParseable(asset.ContentURL); ok {
			redirect = "https://" + loc.Bucket + ".s3.amazonaws.com/" + loc.Key
		}
	}

	size := asset.Size
	res := resource.Resource{
		Kind:        resource.Item,
		Name:        lastOf(strings.Split(path, "/")),
		Href:        href,
		Size:        &size,
		Created:     &asset.Created,
		Modified:    &asset.Modified,
		ContentType: asset.ContentType,
		ETag:        asset.ETag,
		RedirectURL: redirect,
	}
	return &resource.ResourceWithChildren{Resource: res}
}

func (r *Resolver) archiveDownloadURL(asset archive.Asset) string {
	return strings.TrimRight(r.cfg.Archive.APIURL, "/") + "/assets/" + asset.AssetID + "/download/"
}

// zarrAssetResource resolves the Zarr root itself (no remainder path):
// a collection whose children, if requested, come from the S3 listing
// client against the asset's first parseable contentUrl.
func (r *Resolver) zarrAssetResource(ctx context.Context, baseHref, path string, asset archive.Asset, wantChildren bool) (*resource.ResourceWithChildren, error) {
	href := baseHref + path + "/"
	res := resource.Resource{
		Kind:            resource.Collection,
		Name:            lastOf(strings.Split(path, "/")),
		Href:            href,
		Modified:        &asset.Modified,
		Created:         &asset.Created,
		DAVResourceType: "<collection/>",
	}
	out := &resource.ResourceWithChildren{Resource: res}
	if !wantChildren {
		return out, nil
	}

	loc, ok := s3url.FirstParseable(asset.ContentURL)
	if !ok {
		// Empty/unparseable contentUrl for a Zarr is only a backend
		// error when a path inside it was requested (§4.6); listing
		// the Zarr itself degrades to an empty directory.
		return out, nil
	}
	listing, err := r.s3.ListOneLevel(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.UpstreamUnavailable, "resolver.zarrAssetResource", err)
	}
	out.Children = sortChildren(s3ListingToChildren(href, listing))
	return out, nil
}

// s3LookupForZarr resolves a path inside an already-located Zarr by
// listing the S3 prefix zarr_s3_prefix + remainder directly, per the
// atpath walk's Zarr branch (§4.6). An empty contentUrl here is a
// backend error (502) since the caller explicitly asked for a path
// inside the Zarr.
func (r *Resolver) s3LookupForZarr(ctx context.Context, baseHref, zarrPath string, remainder []string, asset archive.Asset, wantChildren bool) (*resource.ResourceWithChildren, error) {
	loc, ok := s3url.FirstParseable(asset.ContentURL)
	if !ok {
		return nil, gatewayerr.New(gatewayerr.UpstreamMalformed, "resolver.s3LookupForZarr",
			fmt.Errorf("zarr asset has no parseable contentUrl"))
	}

	remPath := strings.Join(remainder, "/")
	prefix := strings.TrimRight(loc.Key, "/") + "/" + remPath
	href := baseHref + zarrPath + "/" + remPath

	listing, err := r.s3.ListOneLevel(ctx, loc.Bucket, prefix+"/")
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.UpstreamUnavailable, "resolver.s3LookupForZarr", err)
	}

	if len(listing.Folders) == 0 && len(listing.Objects) == 0 {
		// Not a directory prefix; treat remainder as a single object key.
		obj, err := r.s3.HeadObject(ctx, loc.Bucket, prefix)
		if err != nil {
			return nil, gatewayerr.New(gatewayerr.NotFound, "resolver.s3LookupForZarr", err)
		}
		size := obj.Size
		res := resource.Resource{
			Kind:        resource.Item,
			Name:        lastOf(remainder),
			Href:        href,
			Size:        &size,
			Modified:    &obj.LastModified,
			ETag:        obj.ETag,
			RedirectURL: r.cfg.Zarrman.BucketBase + "/" + asset.AssetID + "/" + remPath,
		}
		return &resource.ResourceWithChildren{Resource: res}, nil
	}

	res := resource.Resource{
		Kind:            resource.Collection,
		Name:            lastOf(remainder),
		Href:            href + "/",
		DAVResourceType: "<collection/>",
	}
	out := &resource.ResourceWithChildren{Resource: res}
	if wantChildren {
		out.Children = sortChildren(s3ListingToChildren(href+"/", listing))
	}
	return out, nil
}
