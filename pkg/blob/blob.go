package blob

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"
)

// Store persists objects in named buckets and returns a publicly resolvable URL.
type Store interface {
	Put(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error)
}

func publicURL(base, bucket, object string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return "/" + path.Join(bucket, object)
	}
	u.Path = path.Join(u.Path, bucket, object)
	return u.String()
}

// cleanObject keeps object keys inside their bucket.
func cleanObject(object string) string {
	object = path.Clean("/" + strings.ReplaceAll(object, "\\", "/"))
	return strings.TrimPrefix(object, "/")
}
