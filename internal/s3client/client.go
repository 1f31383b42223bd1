// Package s3client is the per-bucket cached S3 listing client: prefix
// listings, HEAD lookups, and region auto-discovery, built on top of
// the aws-sdk-go-v2 S3 API client.
package s3client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ObjectInfo describes one S3 object as returned by a prefix listing or
// a HEAD request.
type ObjectInfo struct {
	Key          string
	Size         uint64
	LastModified time.Time
	ETag         string
}

// Listing is the result of a one-level prefix listing.
type Listing struct {
	Folders []string
	Objects []ObjectInfo
}

// regionedClient pairs an s3.Client with the region it was built for.
type regionedClient struct {
	region string
	raw    *s3.Client
}

// Client is the bucket-keyed, region-aware S3 listing client.
type Client struct {
	logger *zap.Logger
	http   *http.Client
	cache  *bucketCache
}

// New builds a Client whose bucket cache holds at most cacheSize
// regioned clients (S3_CLIENT_CACHE_SIZE, default 8).
func New(logger *zap.Logger, cacheSize int) *Client {
	return &Client{
		logger: logger,
		http:   &http.Client{Timeout: 15 * time.Second},
		cache:  newBucketCache(cacheSize),
	}
}

// ListOneLevel lists the immediate children of keyPrefix in bucket
// using delimiter "/". Folders and objects are returned in whatever
// order S3 returned them; callers sort for rendering.
func (c *Client) ListOneLevel(ctx context.Context, bucket, keyPrefix string) (Listing, error) {
	rc, err := c.clientFor(ctx, bucket)
	if err != nil {
		return Listing{}, err
	}

	out, err := rc.raw.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(keyPrefix),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return Listing{}, fmt.Errorf("s3client: list %s/%s: %w", bucket, keyPrefix, err)
	}

	listing := Listing{}
	for _, p := range out.CommonPrefixes {
		if p.Prefix == nil {
			continue
		}
		name := trimToLastSegment(*p.Prefix, keyPrefix)
		listing.Folders = append(listing.Folders, name)
	}
	for _, obj := range out.Contents {
		if obj.Key == nil || *obj.Key == keyPrefix {
			continue
		}
		name := trimToLastSegment(*obj.Key, keyPrefix)
		info := ObjectInfo{Key: *obj.Key, ETag: aws.ToString(obj.ETag)}
		if obj.Size != nil {
			info.Size = uint64(*obj.Size)
		}
		if obj.LastModified != nil {
			info.LastModified = *obj.LastModified
		}
		info.Key = name
		listing.Objects = append(listing.Objects, info)
	}
	return listing, nil
}

// HeadObject fetches metadata for a single key.
func (c *Client) HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	rc, err := c.clientFor(ctx, bucket)
	if err != nil {
		return ObjectInfo{}, err
	}

	out, err := rc.raw.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("s3client: head %s/%s: %w", bucket, key, err)
	}

	info := ObjectInfo{Key: key, ETag: aws.ToString(out.ETag)}
	if out.ContentLength != nil {
		info.Size = uint64(*out.ContentLength)
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return info, nil
}

// clientFor returns the cached regioned client for bucket, discovering
// and memoising its region on first use.
func (c *Client) clientFor(ctx context.Context, bucket string) (*regionedClient, error) {
	if rc, ok := c.cache.get(bucket); ok {
		return rc, nil
	}

	region, err := c.discoverRegion(ctx, bucket)
	if err != nil {
		return nil, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("s3client: load config for bucket %s: %w", bucket, err)
	}
	raw := s3.NewFromConfig(cfg)

	rc := &regionedClient{region: region, raw: raw}
	c.cache.put(bucket, rc)
	c.logger.Debug("s3client: discovered bucket region",
		zap.String("bucket", bucket), zap.String("region", region))
	return rc, nil
}

// discoverRegion issues a bare HEAD against the bucket's global
// endpoint and reads x-amz-bucket-region, per §4.3.
func (c *Client) discoverRegion(ctx context.Context, bucket string) (string, error) {
	url := fmt.Sprintf("https://%s.s3.amazonaws.com/", bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", fmt.Errorf("s3client: build region probe: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("s3client: region probe for bucket %s: %w", bucket, err)
	}
	defer func() { _ = resp.Body.Close() }()

	region := resp.Header.Get("x-amz-bucket-region")
	if region == "" {
		return "", fmt.Errorf("s3client: no x-amz-bucket-region header for bucket %s", bucket)
	}
	return region, nil
}

// Stats exposes the bucket cache's hit/miss/eviction counters.
func (c *Client) Stats() (items int, hits, misses, evictions int64) {
	s := c.cache.stats()
	return s.Items, s.Hits, s.Misses, s.Evictions
}

func trimToLastSegment(key, prefix string) string {
	rest := key
	if len(key) >= len(prefix) {
		rest = key[len(prefix):]
	}
	// rest may still carry a trailing "/" for a CommonPrefix; strip it
	// so folder/object names never carry the delimiter.
	for len(rest) > 0 && rest[len(rest)-1] == '/' {
		rest = rest[:len(rest)-1]
	}
	return rest
}
