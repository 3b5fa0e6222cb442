package mintclient

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/minthcm-client/internal/auth"
	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

// NewFileTokenStorage stores the token as JSON at path. Writes are atomic and
// the file is created with 0600 permissions.
func NewFileTokenStorage(path string) minthcm.TokenStorage {
	return auth.NewFileStorage(path)
}

// NewMemoryTokenStorage keeps the token in memory. Clients sharing one
// instance share one token.
func NewMemoryTokenStorage() minthcm.TokenStorage {
	return auth.NewMemoryStorage()
}

// NewNATSTokenStorage stores the token in a JetStream key-value bucket on
// conn, creating the bucket if needed. The caller owns conn.
func NewNATSTokenStorage(ctx context.Context, conn *nats.Conn, bucket, key string) (minthcm.TokenStorage, error) {
	storage, err := auth.NewNATSKVStorage(ctx, conn, bucket, key)
	if err != nil {
		return nil, err
	}

	return storage, nil
}
