package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is the blob store contract consumed by the service layer.
// Objects are write-once: callers never overwrite an existing key.
type Store interface {
	// Put writes data under a freshly generated key and returns its location.
	Put(ctx context.Context, ownerID string, data []byte, mimeType string, original bool) (bucket, key string, err error)

	// Get reads a stored object's bytes.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// SignedURL issues a time-limited read URL for a stored object.
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)

	Delete(ctx context.Context, bucket, key string) error
}

// objectKey builds "{ownerID}/{originals|enhanced}/{uuid}.{ext}". Uniqueness
// comes from the random id, not from content addressing: identical bytes
// uploaded twice get two distinct objects.
func objectKey(ownerID, mimeType string, original bool) string {
	kind := "enhanced"
	if original {
		kind = "originals"
	}
	return fmt.Sprintf("%s/%s/%s.%s", ownerID, kind, uuid.New().String(), extForMime(mimeType))
}

func extForMime(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/tiff":
		return "tiff"
	default:
		return "jpg"
	}
}
