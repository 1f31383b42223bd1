// Package s3url parses S3-style object URLs in their various
// virtual-hosted, path-style, and s3:// forms.
package s3url

import (
	"errors"
	"net/url"
	"strings"
)

// ErrNotS3URL is returned when the URL does not match any recognized
// S3 URL shape.
var ErrNotS3URL = errors.New("s3url: not an S3 URL")

// Location is a parsed S3 object location.
type Location struct {
	Bucket string
	Region string // empty when the URL shape does not encode a region
	Key    string
}

// Parse accepts:
//
//	https://{bucket}.s3.{region}.amazonaws.com/{key}
//	https://{bucket}.s3.amazonaws.com/{key}
//	https://s3.{region}.amazonaws.com/{bucket}/{key}
//	s3://{bucket}/{key}
//
// A trailing "/" in key is preserved since callers use it as a prefix.
func Parse(raw string) (Location, error) {
	if strings.HasPrefix(raw, "s3://") {
		return parseS3Scheme(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, ErrNotS3URL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Location{}, ErrNotS3URL
	}

	host := u.Host
	key := strings.TrimPrefix(u.Path, "/")

	if loc, ok := parseVirtualHosted(host, key); ok {
		return loc, nil
	}
	if loc, ok := parsePathStyle(host, key); ok {
		return loc, nil
	}
	return Location{}, ErrNotS3URL
}

func parseS3Scheme(raw string) (Location, error) {
	rest := strings.TrimPrefix(raw, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return Location{}, ErrNotS3URL
	}
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	return Location{Bucket: parts[0], Key: key}, nil
}

// parseVirtualHosted handles {bucket}.s3.{region}.amazonaws.com and
// {bucket}.s3.amazonaws.com.
func parseVirtualHosted(host, key string) (Location, bool) {
	if !strings.Contains(host, ".s3.") && !strings.HasSuffix(host, ".s3.amazonaws.com") {
		return Location{}, false
	}
	idx := strings.Index(host, ".s3.")
	if idx <= 0 {
		return Location{}, false
	}
	bucket := host[:idx]
	suffix := host[idx+len(".s3."):]

	if suffix == "amazonaws.com" {
		return Location{Bucket: bucket, Key: key}, true
	}
	if strings.HasSuffix(suffix, ".amazonaws.com") {
		region := strings.TrimSuffix(suffix, ".amazonaws.com")
		if region == "" {
			return Location{}, false
		}
		return Location{Bucket: bucket, Region: region, Key: key}, true
	}
	return Location{}, false
}

// parsePathStyle handles s3.{region}.amazonaws.com/{bucket}/{key}.
func parsePathStyle(host, key string) (Location, bool) {
	if !strings.HasPrefix(host, "s3.") || !strings.HasSuffix(host, ".amazonaws.com") {
		return Location{}, false
	}
	region := strings.TrimPrefix(host, "s3.")
	region = strings.TrimSuffix(region, ".amazonaws.com")
	if region == "" {
		return Location{}, false
	}

	parts := strings.SplitN(key, "/", 2)
	if parts[0] == "" {
		return Location{}, false
	}
	bucket := parts[0]
	objKey := ""
	if len(parts) == 2 {
		objKey = parts[1]
	}
	return Location{Bucket: bucket, Region: region, Key: objKey}, true
}

// FirstParseable returns the first URL in urls that parses
// successfully, as used when picking an authoritative contentUrl for a
// Zarr asset.
func FirstParseable(urls []string) (Location, bool) {
	for _, u := range urls {
		if loc, err := Parse(u); err == nil {
			return loc, true
		}
	}
	return Location{}, false
}
