package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Access failures are distinct so callers can report each case honestly
// instead of collapsing them into a generic error.
var (
	ErrTokenNotFound = errors.New("download token not found")
	ErrTokenExpired  = errors.New("download token expired")
	ErrObjectMissing = errors.New("backing object missing")
)

// BlobObject is one readable object from blob storage.
type BlobObject struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// BlobStore reads deliverable files. A missing object is reported as
// (nil, nil), matching the token store's absent convention.
type BlobStore interface {
	GetObject(ctx context.Context, key string) (*BlobObject, error)
}

// Download is a validated, ready-to-stream deliverable.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// Gateway validates presented download tokens and opens the corresponding
// object from blob storage. Reads never mutate state; a link may be used
// any number of times until it expires.
type Gateway struct {
	store TokenStore
	blobs BlobStore

	now func() time.Time
}

func NewGateway(store TokenStore, blobs BlobStore) *Gateway {
	return &Gateway{store: store, blobs: blobs, now: time.Now}
}

// Open resolves a token to its deliverable stream. It returns
// ErrTokenNotFound for unknown tokens, ErrTokenExpired once the expiry has
// passed, and ErrObjectMissing when the link is valid but the asset is gone
// from storage.
func (g *Gateway) Open(ctx context.Context, token string) (*Download, error) {
	rec, err := g.store.GetToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("token lookup: %w", err)
	}
	if rec == nil {
		return nil, ErrTokenNotFound
	}
	if !rec.Valid(g.now()) {
		log.Warnf("[Download] Expired token presented (expired at %s)", rec.ExpiresAt.Format(time.RFC3339))
		return nil, ErrTokenExpired
	}

	obj, err := g.blobs.GetObject(ctx, rec.ResourceKey)
	if err != nil {
		return nil, fmt.Errorf("object fetch %s: %w", rec.ResourceKey, err)
	}
	if obj == nil {
		log.Errorf("[Download] Valid token but object %s missing from storage", rec.ResourceKey)
		return nil, ErrObjectMissing
	}

	return &Download{
		Body:        obj.Body,
		Filename:    filenameForKey(rec.ResourceKey),
		ContentType: contentTypeOrFallback(obj.ContentType),
		Size:        obj.Size,
	}, nil
}

func filenameForKey(key string) string {
	name := path.Base(key)
	if name == "" || name == "." || name == "/" {
		return "download"
	}
	return name
}

// contentTypeOrFallback keeps the object's own content type unless it is
// absent or text-like, in which case downloads are served as a binary
// attachment.
func contentTypeOrFallback(ct string) string {
	if ct == "" || strings.HasPrefix(ct, "text/") {
		return "application/octet-stream"
	}
	return ct
}
