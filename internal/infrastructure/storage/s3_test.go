package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foodisave/backend/internal/infrastructure/config"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// fakeS3 answers path-style PutObject, GetObject and DeleteObject.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	acls    map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.acls[r.URL.Path] = r.Header.Get("X-Amz-Acl")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T) (*S3Storage, *fakeS3) {
	fake := &fakeS3{objects: map[string][]byte{}, acls: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3Storage(config.StorageConfig{
		Region:          "eu-north-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        srv.URL,
		Bucket:          "images",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s, fake
}

func TestS3Storage_UploadAndOpen(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()

	link, err := s.Upload(ctx, "uploads/abc.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "private", fake.acls["/images/uploads/abc.png"])

	rc, err := s.Open(ctx, link)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "png-bytes", string(body))
}

func TestS3Storage_Delete(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()

	link, err := s.Upload(ctx, "uploads/gone.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, link))
	assert.NotContains(t, fake.objects, "/images/uploads/gone.png")

	_, err = s.Open(ctx, link)
	assert.ErrorIs(t, err, outbound.ErrObjectNotFound)
}

func TestS3Storage_OpenMissing(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Open(context.Background(), s.Link("uploads/none.png"))

	assert.ErrorIs(t, err, outbound.ErrObjectNotFound)
}

func TestS3Storage_LinkRoundTripWithoutEndpoint(t *testing.T) {
	s := &S3Storage{bucket: "foodisave", region: "eu-north-1"}

	link := s.Link("uploads/x.jpg")
	key, err := s.KeyFromLink(link)

	require.NoError(t, err)
	assert.Equal(t, "https://foodisave.s3.eu-north-1.amazonaws.com/uploads/x.jpg", link)
	assert.Equal(t, "uploads/x.jpg", key)
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("uploads", "Middag.JPG")

	assert.True(t, strings.HasPrefix(key, "uploads/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Len(t, key, len("uploads/")+36+len(".jpg"))
}
