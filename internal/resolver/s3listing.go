package resolver

import (
	"strings"

	"github.com/dandidav/gateway/internal/resource"
	"github.com/dandidav/gateway/internal/s3client"
)

// s3ListingToChildren converts a one-level S3 listing into resources
// rooted at href, which must already carry a trailing slash.
func s3ListingToChildren(href string, listing s3client.Listing) []resource.Resource {
	children := make([]resource.Resource, 0, len(listing.Folders)+len(listing.Objects))
	for _, name := range listing.Folders {
		children = append(children, collectionResource(name, href+name+"/"))
	}
	for _, obj := range listing.Objects {
		name := strings.TrimSuffix(obj.Key, "/")
		size := obj.Size
		children = append(children, resource.Resource{
			Kind:     resource.Item,
			Name:     name,
			Href:     href + name,
			Size:     &size,
			Modified: &obj.LastModified,
			ETag:     obj.ETag,
		})
	}
	return children
}
