package minthcm

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

// Document is a parsed JSON response object, returned verbatim by every
// client operation.
type Document map[string]any

// Decode re-encodes the document into v, for callers that want a typed view
// of a response.
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}

	return nil
}

// Attributes is the set of record fields sent on create and update.
type Attributes map[string]any

// State is the lifecycle state of a client session.
type State int

const (
	// StateUninitialized means no token has been acquired yet.
	StateUninitialized State = iota
	// StateAuthenticated is the steady state. Token refreshes happen in place.
	StateAuthenticated
	// StateLoggedOut is terminal.
	StateLoggedOut
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateLoggedOut:
		return "LOGGED_OUT"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TokenStorage persists the OAuth2 token bundle between process runs.
//
// Load returns (nil, nil) when nothing has been stored or the stored value is
// empty. Clear must leave the storage in that empty state.
type TokenStorage interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, token *oauth2.Token) error
	Clear(ctx context.Context) error
}
