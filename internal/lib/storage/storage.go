// Package storage keeps the files attached to job applications.
//
// Two backends exist: a local directory (the default) and an S3 bucket.
// Both store each upload under a generated name so client-chosen file
// names never reach the filesystem or the bucket key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yourconsultingltd/ycl-backend/internal/config"
	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

// ErrNotFound is returned by Open for unknown names.
var ErrNotFound = errors.New("upload not found")

const defaultContentType = "application/octet-stream"

// inlineTypes are the only media types an upload is served with. Anything
// else goes out as application/octet-stream so a browser never renders
// markup or script a client uploaded.
var inlineTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"text/plain":      true,
}

// Object describes an opened upload.
type Object struct {
	Body        io.ReadCloser
	Name        string
	ContentType string
	Size        int64
}

// Inline reports whether the object may be displayed by the browser rather
// than downloaded.
func (o *Object) Inline() bool {
	return o.ContentType != defaultContentType
}

// Storage saves and retrieves uploads.
type Storage interface {
	// Save stores body under a fresh name derived from originalName.
	Save(ctx context.Context, originalName string, body io.Reader, size int64, contentType string) (model.FileRef, error)

	// Open returns the upload stored as name. The caller closes Body.
	Open(ctx context.Context, name string) (*Object, error)

	// Delete removes a stored upload; unknown names are not an error.
	Delete(ctx context.Context, name string) error
}

// New returns the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.UploadsConfig) (Storage, error) {
	switch cfg.Driver {
	case "local", "":
		return NewLocal(cfg.Dir)
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown upload driver %q", cfg.Driver)
	}
}

// StoredName generates the name an upload is stored under: a random UUID
// plus the original extension when it is short and alphanumeric.
func StoredName(originalName string) string {
	return uuid.NewString() + sanitizeExt(filepath.Ext(originalName))
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return "." + ext
}

// cleanName reduces a requested name to its last path element and rejects
// anything that can't be a stored name.
func cleanName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || strings.HasPrefix(base, ".") {
		return "", ErrNotFound
	}
	return base, nil
}

// servedType restricts a stored content type to inlineTypes.
func servedType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !inlineTypes[mediaType] {
		return defaultContentType
	}
	return contentType
}

func contentTypeFor(name, given string) string {
	if given != "" {
		return given
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}
