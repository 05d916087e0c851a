package repository

import (
	"context"
	"strings"
	"time"
)

// AttachmentSigner turn a stored attachment reference into a url the client can fetch
type AttachmentSigner interface {
	Sign(ctx context.Context, ref string) (string, error)
}

// Presigner the part of *database.MinIOClient used here
type Presigner interface {
	PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// MinIOSigner presign object keys, absolute urls pass through untouched
type MinIOSigner struct {
	client Presigner
	expiry time.Duration
}

// NewMinIOSigner create MinIOSigner
func NewMinIOSigner(client Presigner, expiry time.Duration) *MinIOSigner {
	return &MinIOSigner{client: client, expiry: expiry}
}

// Sign attachment ref
func (s *MinIOSigner) Sign(ctx context.Context, ref string) (string, error) {
	if isAbsoluteURL(ref) {
		return ref, nil
	}
	return s.client.PresignGetURL(ctx, strings.TrimPrefix(ref, "/"), s.expiry)
}

// PassthroughSigner minio disabled
type PassthroughSigner struct{}

// Sign returns ref as is
func (PassthroughSigner) Sign(_ context.Context, ref string) (string, error) { return ref, nil }

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
