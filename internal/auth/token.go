package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/minthcm-client/internal/constants"
)

// decodeToken parses a stored token bundle. Empty or whitespace-only input
// means nothing is stored and yields (nil, nil).
func decodeToken(data []byte) (*oauth2.Token, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil //nolint:nilnil // sentinel for "nothing stored"
	}

	var token oauth2.Token

	err := json.Unmarshal(data, &token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrMalformedToken, err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access_token", constants.ErrMalformedToken)
	}

	return &token, nil
}

// encodeToken serializes a token bundle for storage.
func encodeToken(token *oauth2.Token) ([]byte, error) {
	data, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("encoding token: %w", err)
	}

	return data, nil
}

// tokenExpired reports whether token is missing or expires within the
// expiration buffer. Tokens without an expiry never expire.
func tokenExpired(token *oauth2.Token, now time.Time) bool {
	if token == nil || token.AccessToken == "" {
		return true
	}

	if token.Expiry.IsZero() {
		return false
	}

	return now.Add(constants.TokenExpirationBuffer).After(token.Expiry)
}
