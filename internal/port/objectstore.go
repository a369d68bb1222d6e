package port

import (
	"context"
	"time"
)

// ObjectStore is the object-storage collaborator. The pipeline never
// assumes a particular backing store; it only needs these operations.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	GetBuffer(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
