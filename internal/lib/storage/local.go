package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

// Local stores uploads in a directory on disk.
type Local struct {
	dir string
}

// NewLocal creates dir if needed.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("uploads directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Save(ctx context.Context, originalName string, body io.Reader, _ int64, _ string) (model.FileRef, error) {
	if err := ctx.Err(); err != nil {
		return model.FileRef{}, err
	}

	name := StoredName(originalName)
	target := filepath.Join(l.dir, name)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return model.FileRef{}, fmt.Errorf("create upload: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(target)
		return model.FileRef{}, fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return model.FileRef{}, fmt.Errorf("close upload: %w", err)
	}

	return model.FileRef{
		OriginalName: originalName,
		StoredName:   name,
		StoragePath:  filepath.ToSlash(target),
	}, nil
}

func (l *Local) Open(_ context.Context, name string) (*Object, error) {
	base, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(l.dir, base))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}

	return &Object{
		Body:        f,
		Name:        base,
		ContentType: servedType(contentTypeFor(base, "")),
		Size:        info.Size(),
	}, nil
}

func (l *Local) Delete(_ context.Context, name string) error {
	base, err := cleanName(name)
	if err != nil {
		return nil
	}
	if err := os.Remove(filepath.Join(l.dir, base)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}
