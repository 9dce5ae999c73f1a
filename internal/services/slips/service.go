package slips

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/pkg/apperr"
)

const (
	DefaultMaxBytes  int64 = 5 << 20 // 5 MiB
	DefaultSignedTTL       = time.Hour
)

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Slip is an uploaded proof-of-payment image as received from the client.
type Slip struct {
	FileName string
	// ContentType is what the client declared; the sniffed type is stored.
	ContentType string
	Size        int64
	Body        io.Reader
}

type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

type Config struct {
	MaxBytes  int64
	SignedTTL time.Duration
}

type Service struct {
	storage   ObjectStorage
	maxBytes  int64
	signedTTL time.Duration
	now       func() time.Time
}

func NewService(storage ObjectStorage, cfg Config) *Service {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.SignedTTL <= 0 {
		cfg.SignedTTL = DefaultSignedTTL
	}
	return &Service{
		storage:   storage,
		maxBytes:  cfg.MaxBytes,
		signedTTL: cfg.SignedTTL,
		now:       time.Now,
	}
}

func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Check validates the declared size of a slip before anything is read.
func (s *Service) Check(slip *Slip) string {
	switch {
	case slip == nil || slip.Body == nil:
		return "payment slip is required"
	case slip.Size <= 0:
		return "payment slip is empty"
	case slip.Size > s.maxBytes:
		return fmt.Sprintf("payment slip must be at most %d MiB", s.maxBytes>>20)
	}
	return ""
}

// Upload stores the slip under a key scoped to userID and returns that key.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, slip Slip) (string, error) {
	const op = "slips.upload"

	if msg := s.Check(&slip); msg != "" {
		return "", apperr.ValidationField(op, "slip", msg)
	}
	if s.storage == nil {
		return "", apperr.Storage(op, fmt.Errorf("slip storage is not configured"))
	}

	// read one byte past the limit so an understated size is still caught
	data, err := io.ReadAll(io.LimitReader(slip.Body, s.maxBytes+1))
	if err != nil {
		return "", apperr.Storage(op, fmt.Errorf("read slip: %w", err))
	}
	if int64(len(data)) > s.maxBytes {
		return "", apperr.ValidationField(op, "slip", fmt.Sprintf("payment slip must be at most %d MiB", s.maxBytes>>20))
	}
	if len(data) == 0 {
		return "", apperr.ValidationField(op, "slip", "payment slip is empty")
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", apperr.ValidationField(op, "slip", "payment slip must be an image")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", apperr.Storage(op, fmt.Errorf("ensure bucket: %w", err))
	}

	key, err := buildSlipObjectKey(userID, slip.FileName, mime.Extension(), s.now())
	if err != nil {
		return "", apperr.Storage(op, fmt.Errorf("build object key: %w", err))
	}

	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mime.String()); err != nil {
		return "", apperr.Storage(op, fmt.Errorf("put object: %w", err))
	}
	return key, nil
}

// Discard removes an uploaded slip. Missing objects are not an error.
func (s *Service) Discard(ctx context.Context, key string) error {
	if s.storage == nil || key == "" {
		return nil
	}
	return s.storage.Delete(ctx, key)
}

func (s *Service) SignedURL(ctx context.Context, key string) (SignedURL, error) {
	const op = "slips.signed_url"

	if strings.TrimSpace(key) == "" {
		return SignedURL{}, apperr.ValidationField(op, "slip_key", "slip key is required")
	}
	if s.storage == nil {
		return SignedURL{}, apperr.Storage(op, fmt.Errorf("slip storage is not configured"))
	}

	issued := s.now().UTC()
	url, err := s.storage.PresignGet(ctx, key, s.signedTTL)
	if err != nil {
		return SignedURL{}, apperr.Storage(op, err)
	}
	return SignedURL{URL: url, ExpiresAt: issued.Add(s.signedTTL)}, nil
}

// buildSlipObjectKey yields <user>/<unix millis>_<random hex><ext>.
func buildSlipObjectKey(userID uuid.UUID, fileName, detectedExt string, now time.Time) (string, error) {
	rnd := make([]byte, 8)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}

	ext := detectedExt
	if ext == "" {
		ext = strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	}
	if ext == "" || len(ext) > 6 {
		ext = ".bin"
	}

	return fmt.Sprintf("%s/%d_%s%s", userID.String(), now.UnixMilli(), hex.EncodeToString(rnd), ext), nil
}
