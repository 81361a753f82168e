package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type LocalStore struct {
	Root      string
	PublicURL string
}

func NewLocalStore(root, publicURL string) *LocalStore {
	return &LocalStore{Root: root, PublicURL: publicURL}
}

func (s *LocalStore) Put(ctx context.Context, bucket, object, _ string, r io.Reader) (string, error) {
	object = cleanObject(object)
	dst := filepath.Join(s.Root, bucket, filepath.FromSlash(object))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrap(err, "mkdir")
	}

	// upsert=false: refuse to overwrite an existing object
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", object)
	}
	defer f.Close()

	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		_ = os.Remove(dst)
		return "", errors.Wrapf(err, "write %s", object)
	}
	return publicURL(s.PublicURL, bucket, object), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
