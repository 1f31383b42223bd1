package resolver

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/dandidav/gateway/internal/archive"
	"github.com/dandidav/gateway/internal/gatewayerr"
	"github.com/dandidav/gateway/internal/resource"
	"github.com/dandidav/gateway/internal/virtpath"
)

// resolveVersionID turns a VersionSpec into the concrete version
// identifier the archive API expects, performing the one extra
// get_dandiset call Latest requires (§4.6). An empty result with a nil
// error never happens; a dandiset with no published versions under
// Latest resolves to NotFound per Open Question 3.
func (r *Resolver) resolveVersionID(ctx context.Context, dandisetID string, spec virtpath.VersionSpec) (string, error) {
	switch s := spec.(type) {
	case virtpath.Draft:
		return "draft", nil
	case virtpath.Published:
		return s.ID, nil
	case virtpath.Latest:
		info, err := r.archive.GetDandiset(ctx, dandisetID)
		if err != nil {
			return "", err
		}
		if info.MostRecentPublishedVersion == nil {
			return "", gatewayerr.New(gatewayerr.NotFound, "resolver.resolveVersionID", nil)
		}
		return *info.MostRecentPublishedVersion, nil
	default:
		return "", gatewayerr.New(gatewayerr.Internal, "resolver.resolveVersionID", nil)
	}
}

// specWord returns the grammar word under /dandisets/{id}/ this spec is
// reached through, matching virtpath.Parse's own grammar.
func specWord(spec virtpath.VersionSpec) (string, bool) {
	switch s := spec.(type) {
	case virtpath.Draft:
		return "draft", true
	case virtpath.Latest:
		return "latest", true
	case virtpath.Published:
		return "releases/" + s.ID, true
	default:
		return "", false
	}
}

func versionHref(dandisetID string, spec virtpath.VersionSpec) string {
	word, _ := specWord(spec)
	return "/dandisets/" + dandisetID + "/" + word + "/"
}

func (r *Resolver) resolveVersion(ctx context.Context, v virtpath.Version, wantChildren bool) (*resource.ResourceWithChildren, error) {
	versionID, err := r.resolveVersionID(ctx, v.ID, v.Spec)
	if err != nil {
		return nil, err
	}

	info, err := r.archive.GetVersionInfo(ctx, v.ID, versionID)
	if err != nil {
		return nil, err
	}

	href := versionHref(v.ID, v.Spec)
	res := resource.Resource{
		Kind:            resource.Collection,
		Name:            versionID,
		Href:            href,
		Size:            &info.Size,
		Created:         &info.Created,
		Modified:        &info.Modified,
		DAVResourceType: "<collection/>",
		MetadataHref:    href + "dandiset.yaml",
	}
	out := &resource.ResourceWithChildren{Resource: res}
	if !wantChildren {
		return out, nil
	}

	metadata, err := r.archive.GetVersionMetadata(ctx, v.ID, versionID)
	if err != nil {
		return nil, err
	}
	yamlBody, err := yaml.Marshal(metadata)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.Internal, "resolver.resolveVersion", err)
	}
	modified := info.Modified
	metadataDoc := resource.MetadataDocument(href+"dandiset.yaml", yamlBody, &modified)

	top, err := r.archive.AtPath(ctx, v.ID, versionID, "", true, false)
	if err != nil {
		return nil, err
	}
	folder, ok := top.(archive.Folder)
	if !ok {
		return nil, gatewayerr.New(gatewayerr.UpstreamMalformed, "resolver.resolveVersion",
			nil)
	}
	children := make([]resource.Resource, 0, len(folder.Children))
	for _, entry := range folder.Children {
		children = append(children, entryResource(href, entry))
	}

	// dandiset.yaml is always the first child, ahead of the sorted entries.
	out.Children = append([]resource.Resource{metadataDoc}, sortChildren(children)...)
	return out, nil
}

func entryResource(parentHref string, entry archive.Entry) resource.Resource {
	if entry.IsDir {
		return collectionResource(entry.Name, parentHref+entry.Name+"/")
	}
	return resource.Resource{
		Kind: resource.Item,
		Name: entry.Name,
		Href: parentHref + entry.Name,
	}
}

func (r *Resolver) resolveVersionMetadata(ctx context.Context, v virtpath.VersionMetadata) (*resource.ResourceWithChildren, error) {
	versionID, err := r.resolveVersionID(ctx, v.ID, v.Spec)
	if err != nil {
		return nil, err
	}

	info, err := r.archive.GetVersionInfo(ctx, v.ID, versionID)
	if err != nil {
		return nil, err
	}
	metadata, err := r.archive.GetVersionMetadata(ctx, v.ID, versionID)
	if err != nil {
		return nil, err
	}
	yamlBody, err := yaml.Marshal(metadata)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.Internal, "resolver.resolveVersionMetadata", err)
	}

	href := versionHref(v.ID, v.Spec) + "dandiset.yaml"
	modified := info.Modified
	return &resource.ResourceWithChildren{Resource: resource.MetadataDocument(href, yamlBody, &modified)}, nil
}
