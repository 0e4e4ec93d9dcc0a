// Package storage uploads listing images to the catalog's object store and
// builds their public URLs.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ObjectStore uploads objects into a fixed bucket.
type ObjectStore interface {
	// Put stores body under key.
	Put(ctx context.Context, key, contentType string, body []byte) error

	// Bucket returns the bucket objects are written to.
	Bucket() string
}

// PublicURLResolver turns a stored object key into a fetchable URL.
type PublicURLResolver struct {
	baseURL string
	bucket  string
}

// NewPublicURLResolver builds a resolver for the hosted storage public URL
// scheme: {base}/storage/v1/object/public/{bucket}/{key}.
func NewPublicURLResolver(baseURL, bucket string) *PublicURLResolver {
	return &PublicURLResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
	}
}

// URL returns the public URL for key.
func (r *PublicURLResolver) URL(key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", r.baseURL, url.PathEscape(r.bucket), strings.Join(segments, "/"))
}

// ContentTypeFor guesses an image content type from a file name.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "avif":
		return "image/avif"
	default:
		return "application/octet-stream"
	}
}
