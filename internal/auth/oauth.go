package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/fivetwenty-io/minthcm-client/internal/constants"
	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

// OAuth2Config holds the client-credentials grant settings.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	// HTTPClient is used for token requests. Nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// OAuth2TokenManager owns the session token: it loads it from storage,
// fetches it with the client-credentials grant, refreshes it in place and
// persists every new token.
type OAuth2TokenManager struct {
	config  *OAuth2Config
	grant   *clientcredentials.Config
	storage minthcm.TokenStorage
	logger  minthcm.Logger

	mutex        sync.RWMutex
	refreshMutex sync.Mutex
	token        *oauth2.Token
}

// DeriveTokenURL builds the token endpoint from the API base URL by replacing
// the trailing two-character version segment with "access_token":
// "https://host/legacy/Api/V8" becomes "https://host/legacy/Api/access_token".
func DeriveTokenURL(baseURL string) (string, error) {
	if len(baseURL) <= constants.VersionSegmentLength {
		return "", minthcm.ErrBaseURLTooShort
	}

	return baseURL[:len(baseURL)-constants.VersionSegmentLength] + constants.TokenEndpointSuffix, nil
}

// NewOAuth2TokenManager creates a token manager. storage may be nil, in which
// case tokens live in memory only.
func NewOAuth2TokenManager(config *OAuth2Config, storage minthcm.TokenStorage, logger minthcm.Logger) *OAuth2TokenManager {
	if logger == nil {
		logger = minthcm.NopLogger()
	}

	return &OAuth2TokenManager{
		config: config,
		grant: &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		storage: storage,
		logger:  logger,
	}
}

// Initialize loads a previously stored token, or fetches a fresh one when
// nothing usable is stored. Loaded tokens are used even if expired; the first
// request then refreshes them.
func (m *OAuth2TokenManager) Initialize(ctx context.Context) error {
	token := m.load(ctx)
	if token != nil {
		m.mutex.Lock()
		m.token = token
		m.mutex.Unlock()

		m.logger.Info("loaded saved token", map[string]interface{}{
			"expiry":  token.Expiry,
			"expired": tokenExpired(token, time.Now()),
		})

		return nil
	}

	return m.fetch(ctx)
}

// GetToken returns the current access token. When the token is missing or
// expired, the stale value is returned together with minthcm.ErrTokenExpired.
func (m *OAuth2TokenManager) GetToken(_ context.Context) (string, error) {
	m.mutex.RLock()
	token := m.token
	m.mutex.RUnlock()

	if tokenExpired(token, time.Now()) {
		if token == nil {
			return "", minthcm.ErrTokenExpired
		}

		return token.AccessToken, minthcm.ErrTokenExpired
	}

	return token.AccessToken, nil
}

// RefreshToken fetches a new token to replace stale. Refreshes are
// serialized; if another caller already replaced stale with a usable token,
// no request is made.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context, stale string) error {
	m.refreshMutex.Lock()
	defer m.refreshMutex.Unlock()

	m.mutex.RLock()
	current := m.token
	m.mutex.RUnlock()

	if current != nil && current.AccessToken != stale && !tokenExpired(current, time.Now()) {
		m.logger.Debug("token already refreshed by a concurrent request", nil)

		return nil
	}

	return m.fetch(ctx)
}

// SetToken manually sets the token without persisting it.
func (m *OAuth2TokenManager) SetToken(token *oauth2.Token) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.token = token
}

// Token returns a copy of the current token, or nil.
func (m *OAuth2TokenManager) Token() *oauth2.Token {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.token == nil {
		return nil
	}

	token := *m.token

	return &token
}

// Clear drops the in-memory token and empties the storage.
func (m *OAuth2TokenManager) Clear(ctx context.Context) error {
	m.mutex.Lock()
	m.token = nil
	m.mutex.Unlock()

	if m.storage == nil {
		return nil
	}

	return m.storage.Clear(ctx)
}

// load reads the stored token. Storage errors are logged and treated as
// "nothing stored" so a corrupt file never blocks authentication.
func (m *OAuth2TokenManager) load(ctx context.Context) *oauth2.Token {
	if m.storage == nil {
		return nil
	}

	token, err := m.storage.Load(ctx)
	if err != nil {
		m.logger.Warn("ignoring unreadable stored token", map[string]interface{}{
			"error": err.Error(),
		})

		return nil
	}

	return token
}

// fetch performs the client-credentials grant and persists the result.
func (m *OAuth2TokenManager) fetch(ctx context.Context) error {
	if m.config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.config.HTTPClient)
	}

	token, err := m.grant.Token(ctx)
	if err != nil {
		m.logger.Warn("token request failed", map[string]interface{}{
			"token_url": m.config.TokenURL,
			"error":     err.Error(),
		})

		return classifyTokenError(err)
	}

	m.mutex.Lock()
	m.token = token
	m.mutex.Unlock()

	m.logger.Info("fetched new token", map[string]interface{}{
		"expiry": token.Expiry,
	})

	m.persist(ctx, token)

	return nil
}

// persist saves token. Failures are logged but never fail the request.
func (m *OAuth2TokenManager) persist(ctx context.Context, token *oauth2.Token) {
	if m.storage == nil {
		return
	}

	err := m.storage.Save(ctx, token)
	if err != nil {
		m.logger.Warn("failed to persist token", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// classifyTokenError maps a token endpoint failure to the client error kinds.
// Rejected credentials (invalid_client, or a bare 401) are authentication
// errors; every other failure is a request error.
func classifyTokenError(err error) error {
	retrieveErr := &oauth2.RetrieveError{}
	if !errors.As(err, &retrieveErr) {
		return minthcm.NewRequestError("failed to refresh token: "+err.Error(), 0, "", err)
	}

	code := 0
	if retrieveErr.Response != nil {
		code = retrieveErr.Response.StatusCode
	}

	details := retrieveErr.ErrorDescription
	if details == "" {
		details = retrieveErr.ErrorCode
	}

	if details == "" {
		details = strings.TrimSpace(string(retrieveErr.Body))
	}

	if retrieveErr.ErrorCode == "invalid_client" ||
		(retrieveErr.ErrorCode == "" && code == http.StatusUnauthorized) {
		return minthcm.NewAuthenticationError("invalid API client ID or secret", code, details, err)
	}

	return minthcm.NewRequestError("error accessing MintHCM API", code, details, err)
}
