package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/minthcm-client/internal/auth"
	"github.com/fivetwenty-io/minthcm-client/internal/constants"
	"github.com/fivetwenty-io/minthcm-client/internal/http"
	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

// TokenManager is the token side of a session.
type TokenManager interface {
	http.TokenProvider
	Initialize(ctx context.Context) error
	Clear(ctx context.Context) error
}

var _ minthcm.Client = (*Client)(nil)

// Client implements the minthcm.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager TokenManager
	baseURL      string
	logger       minthcm.Logger
	logoutOnExit bool
	natsConn     *nats.Conn

	mutex     sync.RWMutex
	state     minthcm.State
	closeOnce sync.Once
	closeErr  error
}

// NormalizeBaseURL trims trailing slashes and defaults the scheme to https.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}

func validateConfig(config *minthcm.Config) error {
	if config == nil {
		return minthcm.ErrConfigRequired
	}

	if strings.TrimSpace(config.BaseURL) == "" {
		return minthcm.ErrBaseURLRequired
	}

	if config.ClientID == "" {
		return minthcm.ErrClientIDRequired
	}

	if config.ClientSecret == "" {
		return minthcm.ErrClientSecretRequired
	}

	return nil
}

// getTokenURL returns the configured token URL or derives it from baseURL.
func getTokenURL(config *minthcm.Config, baseURL string) (string, error) {
	if config.TokenURL != "" {
		return config.TokenURL, nil
	}

	tokenURL, err := auth.DeriveTokenURL(baseURL)
	if err != nil {
		return "", fmt.Errorf("deriving token URL from %q: %w", baseURL, err)
	}

	return tokenURL, nil
}

// createTokenStorage picks the token storage. The returned connection, if
// any, is owned by the client.
func createTokenStorage(ctx context.Context, config *minthcm.Config) (minthcm.TokenStorage, *nats.Conn, error) {
	if config.TokenStorage != nil {
		return config.TokenStorage, nil, nil
	}

	if config.NATS != nil {
		natsURL := config.NATS.URL
		if natsURL == "" {
			natsURL = nats.DefaultURL
		}

		conn, err := nats.Connect(natsURL,
			nats.Name("minthcm-client"),
			nats.Timeout(constants.ShortHTTPTimeout))
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to NATS at %s: %w", natsURL, err)
		}

		storage, err := auth.NewNATSKVStorage(ctx, conn, config.NATS.Bucket, config.NATS.Key)
		if err != nil {
			conn.Close()

			return nil, nil, err
		}

		return storage, conn, nil
	}

	if config.DisableTokenPersistence {
		return nil, nil, nil
	}

	path := config.TokenPath
	if path == "" {
		path = constants.DefaultTokenPath
	}

	return auth.NewFileStorage(path), nil, nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *minthcm.Config, logger minthcm.Logger) []http.Option {
	httpOpts := []http.Option{http.WithLogger(logger)}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	chain := minthcm.NewInterceptorChain()

	if config.RateLimit > 0 {
		chain.AddRequestInterceptor(minthcm.RateLimitInterceptor(config.RateLimit))
	}

	for _, interceptor := range config.RequestInterceptors {
		chain.AddRequestInterceptor(interceptor)
	}

	for _, interceptor := range config.ResponseInterceptors {
		chain.AddResponseInterceptor(interceptor)
	}

	return append(httpOpts, http.WithInterceptors(chain))
}

// New creates an authenticated MintHCM API client. It loads the stored token,
// or fetches a new one, before returning.
func New(ctx context.Context, config *minthcm.Config) (*Client, error) {
	err := validateConfig(config)
	if err != nil {
		return nil, err
	}

	baseURL := NormalizeBaseURL(config.BaseURL)

	tokenURL, err := getTokenURL(config, baseURL)
	if err != nil {
		return nil, err
	}

	storage, natsConn, err := createTokenStorage(ctx, config)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = minthcm.NopLogger()
	}

	timeout := config.HTTPTimeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	tokenManager := auth.NewOAuth2TokenManager(&auth.OAuth2Config{
		TokenURL:     tokenURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		HTTPClient:   &nethttp.Client{Timeout: timeout},
	}, storage, logger)

	client := newClient(config, baseURL, tokenManager, logger)
	client.natsConn = natsConn

	err = tokenManager.Initialize(ctx)
	if err != nil {
		client.closeConn()

		return nil, err
	}

	client.setState(minthcm.StateAuthenticated)

	logger.Debug("MintHCM client initialized", map[string]interface{}{
		"base_url":  baseURL,
		"token_url": tokenURL,
	})

	return client, nil
}

// NewWithTokenManager creates a client around a caller-supplied token manager.
func NewWithTokenManager(ctx context.Context, config *minthcm.Config, tokenManager TokenManager) (*Client, error) {
	if config == nil {
		return nil, minthcm.ErrConfigRequired
	}

	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, minthcm.ErrBaseURLRequired
	}

	logger := config.Logger
	if logger == nil {
		logger = minthcm.NopLogger()
	}

	client := newClient(config, NormalizeBaseURL(config.BaseURL), tokenManager, logger)

	err := tokenManager.Initialize(ctx)
	if err != nil {
		return nil, err
	}

	client.setState(minthcm.StateAuthenticated)

	return client, nil
}

func newClient(config *minthcm.Config, baseURL string, tokenManager TokenManager, logger minthcm.Logger) *Client {
	httpClient := http.NewClient(baseURL, tokenManager, createHTTPClientOptions(config, logger)...)

	return &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      baseURL,
		logger:       logger,
		logoutOnExit: config.LogoutOnExit,
		state:        minthcm.StateUninitialized,
	}
}

// BaseURL implements minthcm.Client.BaseURL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// State implements minthcm.Client.State.
func (c *Client) State() minthcm.State {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.state
}

func (c *Client) setState(state minthcm.State) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.state = state
}

// Dispatch implements minthcm.Session.Dispatch.
func (c *Client) Dispatch(ctx context.Context, method, url string, payload any) (minthcm.Document, error) {
	if c.State() == minthcm.StateLoggedOut {
		return nil, minthcm.NewRequestError("session is logged out", 0, "", minthcm.ErrSessionClosed)
	}

	return c.httpClient.Dispatch(ctx, method, url, payload)
}

// Get implements minthcm.Session.Get.
func (c *Client) Get(ctx context.Context, url string) (minthcm.Document, error) {
	return c.Dispatch(ctx, nethttp.MethodGet, url, nil)
}

// Post implements minthcm.Session.Post.
func (c *Client) Post(ctx context.Context, url string, payload any) (minthcm.Document, error) {
	return c.Dispatch(ctx, nethttp.MethodPost, url, payload)
}

// Patch implements minthcm.Session.Patch.
func (c *Client) Patch(ctx context.Context, url string, payload any) (minthcm.Document, error) {
	return c.Dispatch(ctx, nethttp.MethodPatch, url, payload)
}

// Delete implements minthcm.Session.Delete.
func (c *Client) Delete(ctx context.Context, url string) (minthcm.Document, error) {
	return c.Dispatch(ctx, nethttp.MethodDelete, url, nil)
}

// GetModulesMetadata implements minthcm.MetadataClient.GetModulesMetadata.
func (c *Client) GetModulesMetadata(ctx context.Context) (minthcm.Document, error) {
	return c.Get(ctx, "/meta/modules")
}

// GetUserPreferences implements minthcm.MetadataClient.GetUserPreferences.
func (c *Client) GetUserPreferences(ctx context.Context, userID string) (minthcm.Document, error) {
	return c.Get(ctx, "/user-preferences/"+userID)
}

// Module implements minthcm.Client.Module.
func (c *Client) Module(name string) minthcm.ModuleClient {
	return NewModuleClient(name, c)
}

// Logout implements minthcm.Client.Logout. The stored token is cleared even
// when the logout request fails; clearing errors are only logged.
func (c *Client) Logout(ctx context.Context) error {
	if c.State() == minthcm.StateLoggedOut {
		return nil
	}

	_, err := c.httpClient.Post(ctx, "/logout", nil)

	clearErr := c.tokenManager.Clear(ctx)
	if clearErr != nil {
		c.logger.Debug("failed to clear stored token", map[string]interface{}{
			"error": clearErr.Error(),
		})
	}

	c.setState(minthcm.StateLoggedOut)

	if err != nil {
		c.logger.Warn("logout request failed", map[string]interface{}{
			"error": err.Error(),
		})

		return err
	}

	c.logger.Info("logged out", nil)

	return nil
}

// Close implements minthcm.Client.Close.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.logoutOnExit && c.State() == minthcm.StateAuthenticated {
			ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultHTTPTimeout)
			c.closeErr = c.Logout(ctx)

			cancel()
		}

		c.closeConn()
	})

	return c.closeErr
}

func (c *Client) closeConn() {
	if c.natsConn != nil {
		c.natsConn.Close()
		c.natsConn = nil
	}
}
