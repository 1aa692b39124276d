// Package media stores product images in a blob bucket and serves them back.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 5 << 20

// CacheControl is set on every stored image.
const CacheControl = "max-age=3600"

var (
	// ErrMissing indicates an upload with no file.
	ErrMissing = apperrors.New(apperrors.CodeImageMissing, "image is required")
	// ErrTooLarge indicates an upload over MaxImageBytes.
	ErrTooLarge = apperrors.New(apperrors.CodeImageTooLarge, "image exceeds 5MB")
	// ErrUnsupportedType indicates content that is not JPEG, PNG or WebP.
	ErrUnsupportedType = apperrors.New(apperrors.CodeImageUnsupportedType, "image must be jpeg, png or webp")
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Store writes images to a bucket and maps keys to public URLs.
type Store struct {
	bucket        *blob.Bucket
	publicBaseURL string
	newKey        func() string
}

// Open opens the bucket at bucketURL (for example file:///var/lib/storefront/media
// or mem://). Public URLs are publicBaseURL joined with the object key.
func Open(ctx context.Context, bucketURL, publicBaseURL string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open media bucket: %w", err)
	}
	return New(bucket, publicBaseURL), nil
}

// New wraps an open bucket.
func New(bucket *blob.Bucket, publicBaseURL string) *Store {
	return &Store{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		newKey:        func() string { return uuid.NewString() },
	}
}

// Close closes the bucket.
func (s *Store) Close() error {
	if s == nil || s.bucket == nil {
		return nil
	}
	return s.bucket.Close()
}

// Upload stores an image read from r under {ownerID}/{uuid}.{ext} and returns
// its public URL.
func (s *Store) Upload(ctx context.Context, ownerID string, r io.Reader) (string, error) {
	if r == nil {
		return "", ErrMissing
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", ErrMissing
	}
	if len(data) > MaxImageBytes {
		return "", ErrTooLarge
	}
	contentType := DetectType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	owner := strings.Trim(strings.TrimSpace(ownerID), "/")
	if owner == "" {
		owner = "anonymous"
	}
	key := owner + "/" + s.newKey() + "." + ext
	if err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		ContentType:  contentType,
		CacheControl: CacheControl,
	}); err != nil {
		return "", fmt.Errorf("write image %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL maps an object key to the URL clients fetch it from.
func (s *Store) PublicURL(key string) string {
	return s.publicBaseURL + "/" + key
}

// KeyFromURL extracts the object key, the last two path segments, from a
// public URL.
func KeyFromURL(raw string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-1] == "" || segments[len(segments)-2] == "" {
		return "", false
	}
	return path.Join(segments[len(segments)-2:]...), true
}

// DeleteByURL removes the object behind a public URL. Missing objects are
// not an error.
func (s *Store) DeleteByURL(ctx context.Context, rawURL string) error {
	key, ok := KeyFromURL(rawURL)
	if !ok {
		return fmt.Errorf("no media key in %q", rawURL)
	}
	if err := s.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return fmt.Errorf("delete image %s: %w", key, err)
	}
	return nil
}

// Handler serves objects under prefix, such as "/media/".
func (s *Store) Handler(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, prefix)
		if key == "" || strings.Contains(key, "..") {
			http.NotFound(w, r)
			return
		}
		attrs, err := s.bucket.Attributes(r.Context(), key)
		if err != nil {
			if gcerrors.Code(err) == gcerrors.NotFound {
				http.NotFound(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		reader, err := s.bucket.NewReader(r.Context(), key, nil)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer reader.Close()

		w.Header().Set("Content-Type", attrs.ContentType)
		cacheControl := attrs.CacheControl
		if cacheControl == "" {
			cacheControl = CacheControl
		}
		w.Header().Set("Cache-Control", cacheControl)
		http.ServeContent(w, r, path.Base(key), attrs.ModTime, reader)
	})
}

// DetectType sniffs the content type. WebP is matched on its RIFF header
// since older sniffers report it as application/octet-stream.
func DetectType(data []byte) string {
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	return http.DetectContentType(data)
}
