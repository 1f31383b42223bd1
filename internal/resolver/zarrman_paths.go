package resolver

import (
	"context"
	"strings"

	"github.com/dandidav/gateway/internal/gatewayerr"
	"github.com/dandidav/gateway/internal/resource"
	"github.com/dandidav/gateway/internal/virtpath"
	"github.com/dandidav/gateway/internal/zarrman"
)

func (r *Resolver) resolveZarrIndex(ctx context.Context, wantChildren bool) (*resource.ResourceWithChildren, error) {
	res := collectionResource("zarrs", "/zarrs/")
	out := &resource.ResourceWithChildren{Resource: res}
	if !wantChildren {
		return out, nil
	}

	dirs, err := r.zarrman.TopLevel(ctx)
	if err != nil {
		return nil, err
	}
	children := make([]resource.Resource, 0, len(dirs))
	for _, d := range dirs {
		children = append(children, collectionResource(d, "/zarrs/"+d+"/"))
	}
	out.Children = sortChildren(children)
	return out, nil
}

func (r *Resolver) resolveZarrManPath(ctx context.Context, v virtpath.ZarrManPath, wantChildren bool) (*resource.ResourceWithChildren, error) {
	href := "/zarrs/" + strings.Join(v.Segments, "/")
	name := v.Segments[len(v.Segments)-1]

	var classification zarrman.Classification
	var err error
	if wantChildren {
		classification, err = r.zarrman.ResourceWithChildren(ctx, v.Segments)
	} else {
		classification, err = r.zarrman.Resource(ctx, v.Segments)
	}
	if err != nil {
		return nil, err
	}

	switch c := classification.(type) {
	case zarrman.NotFoundPath:
		return nil, gatewayerr.New(gatewayerr.NotFound, "resolver.resolveZarrManPath", nil)

	case zarrman.TreeDirectory:
		res := collectionResource(name, href+"/")
		out := &resource.ResourceWithChildren{Resource: res}
		if wantChildren {
			out.Children = sortChildren(treeDirChildren(href+"/", c))
		}
		return out, nil

	case zarrman.ZarrRoot:
		res := collectionResource(name, href+"/")
		out := &resource.ResourceWithChildren{Resource: res}
		if wantChildren {
			out.Children = sortChildren(dirObjectChildren(href+"/", c.Entries))
		}
		return out, nil

	case zarrman.InnerPath:
		if c.Leaf != nil {
			size := c.Leaf.Size
			modified := c.Leaf.LastModified
			res := resource.Resource{
				Kind:        resource.Item,
				Name:        c.Name,
				Href:        href,
				Size:        &size,
				Modified:    &modified,
				ETag:        c.Leaf.ETag,
				RedirectURL: r.cfg.Zarrman.BucketBase + "/" + c.ZarrID + "/" + strings.Join(v.Segments[4:], "/"),
			}
			return &resource.ResourceWithChildren{Resource: res}, nil
		}
		res := collectionResource(c.Name, href+"/")
		out := &resource.ResourceWithChildren{Resource: res}
		if wantChildren && c.Dir != nil {
			out.Children = sortChildren(dirObjectChildren(href+"/", c.Dir))
		}
		return out, nil

	default:
		return nil, gatewayerr.New(gatewayerr.Internal, "resolver.resolveZarrManPath", nil)
	}
}

func treeDirChildren(href string, dir zarrman.TreeDirectory) []resource.Resource {
	children := make([]resource.Resource, 0, len(dir.Directories)+len(dir.Files))
	for _, d := range dir.Directories {
		children = append(children, collectionResource(d, href+d+"/"))
	}
	for _, f := range dir.Files {
		children = append(children, resource.Resource{Kind: resource.Item, Name: f, Href: href + f})
	}
	return children
}

func dirObjectChildren(href string, dir *zarrman.DirObject) []resource.Resource {
	if dir == nil {
		return nil
	}
	children := make([]resource.Resource, 0, len(dir.Dirs)+len(dir.Entries))
	for name := range dir.Dirs {
		children = append(children, collectionResource(name, href+name+"/"))
	}
	for name, leaf := range dir.Entries {
		size := leaf.Size
		modified := leaf.LastModified
		children = append(children, resource.Resource{
			Kind:     resource.Item,
			Name:     name,
			Href:     href + name,
			Size:     &size,
			Modified: &modified,
			ETag:     leaf.ETag,
		})
	}
	return children
}
