package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourconsultingltd/ycl-backend/internal/config"
)

func TestStoredName(t *testing.T) {
	name := StoredName("My CV.PDF")
	assert.True(t, strings.HasSuffix(name, ".pdf"), name)
	assert.Len(t, name, 36+4)

	assert.NotEqual(t, StoredName("a.pdf"), StoredName("a.pdf"))
	assert.Len(t, StoredName("noext"), 36)
	assert.Len(t, StoredName("evil.p$p"), 36)
	assert.Len(t, StoredName("../../etc/passwd"), 36)
}

func TestCleanName(t *testing.T) {
	got, err := cleanName("../../secret/abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "abc.pdf", got)

	for _, bad := range []string{"", ".", "..", "/", ".env"} {
		_, err := cleanName(bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}
}

func TestLocal_SaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Save(ctx, "resume.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "resume.pdf", ref.OriginalName)
	assert.True(t, strings.HasSuffix(ref.StoredName, ".pdf"))
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, ref.StoredName)), ref.StoragePath)

	obj, err := store.Open(ctx, ref.StoredName)
	require.NoError(t, err)
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, int64(8), obj.Size)
}

func TestLocal_OpenMissingAndTraversal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir), "outside.txt"), []byte("x"), 0o644))

	store, err := NewLocal(dir)
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Open(context.Background(), "../outside.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocal_Delete(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Save(ctx, "a.txt", strings.NewReader("a"), 1, "")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, ref.StoredName))
	_, err = store.Open(ctx, ref.StoredName)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, ref.StoredName))
}

func TestNew_SelectsDriver(t *testing.T) {
	s, err := New(context.Background(), config.UploadsConfig{Driver: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	_, err = New(context.Background(), config.UploadsConfig{Driver: "ftp"})
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = body
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentType:   aws.String(f.types[key]),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	if _, ok := f.objects[key]; !ok {
		return nil, errors.New("unexpected delete")
	}
	delete(f.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_SaveAndOpen(t *testing.T) {
	fake := newFakeS3()
	store := NewS3WithClient(fake, "ycl-uploads", "applications")
	ctx := context.Background()

	ref, err := store.Save(ctx, "cover.docx", strings.NewReader("hello"), 5, "")
	require.NoError(t, err)

	assert.Equal(t, "s3://ycl-uploads/applications/"+ref.StoredName, ref.StoragePath)
	assert.Contains(t, fake.objects, "ycl-uploads/applications/"+ref.StoredName)

	obj, err := store.Open(ctx, ref.StoredName)
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, int64(5), obj.Size)

	_, err = store.Open(ctx, "missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, ref.StoredName))
	assert.Empty(t, fake.objects)
}

func TestServedType(t *testing.T) {
	tests := map[string]string{
		"application/pdf":           "application/pdf",
		"image/png":                 "image/png",
		"text/plain; charset=utf-8": "text/plain; charset=utf-8",
		"text/html; charset=utf-8":  defaultContentType,
		"image/svg+xml":             defaultContentType,
		"application/xhtml+xml":     defaultContentType,
		"text/javascript":           defaultContentType,
		"":                          defaultContentType,
		"not a type;;":              defaultContentType,
	}
	for in, want := range tests {
		assert.Equal(t, want, servedType(in), in)
	}
}

func TestLocal_OpenMarkupAsDownload(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"cv.html", "logo.svg", "page.htm"} {
		ref, err := store.Save(ctx, name, strings.NewReader("<script>alert(1)</script>"), 25, "text/html")
		require.NoError(t, err)

		obj, err := store.Open(ctx, ref.StoredName)
		require.NoError(t, err)
		obj.Body.Close()

		assert.Equal(t, defaultContentType, obj.ContentType, name)
		assert.False(t, obj.Inline(), name)
		assert.Equal(t, ref.StoredName, obj.Name)
	}
}

func TestS3_OpenIgnoresStoredMarkupType(t *testing.T) {
	store := NewS3WithClient(newFakeS3(), "ycl-uploads", "")
	ctx := context.Background()

	ref, err := store.Save(ctx, "notes", strings.NewReader("<b>x</b>"), 8, "text/html")
	require.NoError(t, err)

	obj, err := store.Open(ctx, ref.StoredName)
	require.NoError(t, err)
	obj.Body.Close()
	assert.Equal(t, defaultContentType, obj.ContentType)
	assert.False(t, obj.Inline())
}
