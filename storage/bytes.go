package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// DefaultReadLimit caps ReadAll for small documents such as credentials.
const DefaultReadLimit = 1 << 20

// ReadAll downloads a small object fully into memory. Objects larger than
// limit bytes are rejected; limit <= 0 means DefaultReadLimit.
func ReadAll(ctx context.Context, s Storage, path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultReadLimit
	}

	rc, err := s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck // read-only

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("storage: object %s exceeds %d bytes", path, limit)
	}
	return data, nil
}

// WriteBytes uploads an in-memory payload.
func WriteBytes(ctx context.Context, s Storage, path string, data []byte) error {
	return s.Upload(ctx, path, bytes.NewReader(data))
}
