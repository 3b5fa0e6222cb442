package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/minthcm-client/internal/constants"
)

// NATSKVStorage persists the token in a NATS JetStream key-value bucket, so
// clients on several hosts can share one token.
type NATSKVStorage struct {
	kv  jetstream.KeyValue
	key string
}

// NewNATSKVStorage opens (creating if needed) the bucket on nc. Empty bucket
// and key fall back to the defaults. The caller owns nc.
func NewNATSKVStorage(ctx context.Context, nc *nats.Conn, bucket, key string) (*NATSKVStorage, error) {
	if nc == nil {
		return nil, constants.ErrNATSConnRequired
	}

	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	if key == "" {
		key = constants.DefaultNATSKey
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "MintHCM API tokens",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("opening key-value bucket %s: %w", bucket, err)
	}

	return &NATSKVStorage{kv: kv, key: key}, nil
}

// Load reads the token. A missing key or empty value yields (nil, nil).
func (s *NATSKVStorage) Load(ctx context.Context) (*oauth2.Token, error) {
	entry, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("reading token key %s: %w", s.key, err)
	}

	token, err := decodeToken(entry.Value())
	if err != nil {
		return nil, fmt.Errorf("token key %s: %w", s.key, err)
	}

	return token, nil
}

// Save writes the token.
func (s *NATSKVStorage) Save(ctx context.Context, token *oauth2.Token) error {
	data, err := encodeToken(token)
	if err != nil {
		return err
	}

	_, err = s.kv.Put(ctx, s.key, data)
	if err != nil {
		return fmt.Errorf("writing token key %s: %w", s.key, err)
	}

	return nil
}

// Clear overwrites the token with an empty value.
func (s *NATSKVStorage) Clear(ctx context.Context) error {
	_, err := s.kv.Put(ctx, s.key, []byte{})
	if err != nil {
		return fmt.Errorf("clearing token key %s: %w", s.key, err)
	}

	return nil
}
