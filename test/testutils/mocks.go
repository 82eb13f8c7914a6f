// Package testutils provides mock implementations for testing
package testutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// MockEmailService records sends through testify's mock.
type MockEmailService struct {
	mock.Mock
}

var _ outbound.EmailService = (*MockEmailService)(nil)

func (m *MockEmailService) SendPasswordReset(ctx context.Context, to, token string) error {
	return m.Called(ctx, to, token).Error(0)
}

func (m *MockEmailService) SendActivation(ctx context.Context, to, token string) error {
	return m.Called(ctx, to, token).Error(0)
}

// MemoryStorage keeps uploaded objects in a map, keyed by the returned link.
type MemoryStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
}

var _ outbound.StorageService = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Objects: map[string][]byte{}, Types: map[string]string{}}
}

func (s *MemoryStorage) Upload(_ context.Context, key string, data io.Reader, contentType string) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	link := "https://bucket.s3.amazonaws.com/" + key
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[link] = b
	s.Types[link] = contentType
	return link, nil
}

func (s *MemoryStorage) Open(_ context.Context, link string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.Objects[link]
	if !ok {
		return nil, outbound.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *MemoryStorage) Delete(_ context.Context, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, link)
	delete(s.Types, link)
	return nil
}

// StubClassifier answers every image with one prediction, or with Err.
type StubClassifier struct {
	Label string
	Score float64
	Err   error
	Calls int
}

var _ outbound.ImageClassifier = (*StubClassifier)(nil)

// SafeClassifier labels everything "normal".
func SafeClassifier() *StubClassifier {
	return &StubClassifier{Label: "normal", Score: 0.99}
}

func (c *StubClassifier) Classify(context.Context, []byte) ([]ai.Prediction, error) {
	c.Calls++
	if c.Err != nil {
		return nil, c.Err
	}
	return []ai.Prediction{{Label: c.Label, Score: c.Score}}, nil
}

// PNG encodes a small real image.
func PNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// StubModel answers every prompt with Reply.
type StubModel struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Prompts []string
}

var _ outbound.GenerativeModel = (*StubModel)(nil)

func (m *StubModel) Generate(_ context.Context, prompt string, _ *ai.Attachment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	return m.Reply, m.Err
}
