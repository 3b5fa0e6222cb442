// Package http implements the MintHCM request transport: URL sanitizing,
// request envelopes, bearer authentication with a single token-refresh retry,
// and response classification.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/minthcm-client/internal/constants"
	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

// TokenProvider supplies bearer tokens.
//
// GetToken returns minthcm.ErrTokenExpired, together with the stale token,
// when the current token is missing or expired. RefreshToken replaces stale
// with a fresh token.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context, stale string) error
}

// Client sends requests to the MintHCM API.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager TokenProvider
	userAgent    string
	logger       minthcm.Logger
	debug        bool
	interceptors *minthcm.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger minthcm.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds each HTTP round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithRetryConfig enables transport retries for connection failures. HTTP
// responses, error statuses included, are never retried by the transport.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithInterceptors sets the interceptor chain run around every attempt.
func WithInterceptors(chain *minthcm.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a transport for baseURL. tokenManager may be nil, in
// which case requests carry no Authorization header.
func NewClient(baseURL string, tokenManager TokenProvider, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.CheckRetry = retryConnectionErrors
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		userAgent:    constants.DefaultUserAgent,
		logger:       minthcm.NopLogger(),
		interceptors: minthcm.NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger == nil {
		client.logger = minthcm.NopLogger()
	}

	retryClient.Logger = &leveledLogger{logger: client.logger}

	return client
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, url string) (minthcm.Document, error) {
	return c.Dispatch(ctx, http.MethodGet, url, nil)
}

// Post sends a POST request with payload wrapped as {"data": payload}.
func (c *Client) Post(ctx context.Context, url string, payload any) (minthcm.Document, error) {
	return c.Dispatch(ctx, http.MethodPost, url, payload)
}

// Patch sends a PATCH request with payload wrapped as {"data": payload}.
func (c *Client) Patch(ctx context.Context, url string, payload any) (minthcm.Document, error) {
	return c.Dispatch(ctx, http.MethodPatch, url, payload)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, url string) (minthcm.Document, error) {
	return c.Dispatch(ctx, http.MethodDelete, url, nil)
}

// Dispatch sends one request and returns the parsed response object.
//
// A 401 response, or a token found expired before sending, triggers one
// token refresh and one retry. A second occurrence on the retry is an
// AuthenticationError. Any other status >= 400 is a RequestError.
func (c *Client) Dispatch(ctx context.Context, method, url string, payload any) (minthcm.Document, error) {
	method, err := normalizeMethod(method)
	if err != nil {
		return nil, err
	}

	target := SanitizeURL(c.resolve(url))

	body, err := encodeBody(method, payload)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= constants.MaxDispatchAttempts; attempt++ {
		lastAttempt := attempt == constants.MaxDispatchAttempts

		token, err := c.token(ctx)
		if errors.Is(err, minthcm.ErrTokenExpired) {
			if lastAttempt {
				return nil, minthcm.NewAuthenticationError("API token refresh failed", 0, "", err)
			}

			c.logger.Info("token expired, refreshing", map[string]interface{}{
				"method": method,
				"url":    target,
			})

			err = c.tokenManager.RefreshToken(ctx, token)
			if err != nil {
				return nil, err
			}

			continue
		}

		if err != nil {
			return nil, err
		}

		resp, err := c.send(ctx, method, target, body, token, attempt)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			if lastAttempt {
				return nil, minthcm.NewAuthenticationError("authentication failed - token rejected",
					http.StatusUnauthorized, errorDetail(resp.Body), nil)
			}

			c.logger.Info("token rejected, refreshing", map[string]interface{}{
				"method": method,
				"url":    target,
			})

			err = c.tokenManager.RefreshToken(ctx, token)
			if err != nil {
				return nil, err
			}

			continue
		}

		return c.parseResponse(method, target, resp)
	}

	return nil, minthcm.NewRequestError("request failed after retrying", 0, "", nil)
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", nil
	}

	return c.tokenManager.GetToken(ctx)
}

// resolve joins relative paths to the base URL.
func (c *Client) resolve(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}

	return c.baseURL + "/" + strings.TrimLeft(url, "/")
}

func (c *Client) send(ctx context.Context, method, url string, body []byte, token string, attempt int) (*minthcm.Response, error) {
	req := &minthcm.Request{
		Method:   method,
		URL:      url,
		Attempt:  attempt,
		Headers:  make(http.Header),
		Body:     body,
		Metadata: make(map[string]interface{}),
	}

	req.Headers.Set("Content-Type", constants.ContentTypeJSON)
	req.Headers.Set("User-Agent", c.userAgent)

	if token != "" {
		req.Headers.Set("Authorization", "Bearer "+token)
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, minthcm.NewRequestError("request interceptor failed", 0, err.Error(), err)
	}

	var rawBody interface{}
	if req.Body != nil {
		rawBody = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, rawBody)
	if err != nil {
		return nil, minthcm.NewRequestError("failed to create request", 0, err.Error(), err)
	}

	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     req.URL,
			"attempt": attempt,
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		resp := &minthcm.Response{Error: err}
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)

		return nil, minthcm.NewRequestError("failed to send request", 0, err.Error(), err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, minthcm.NewRequestError("failed to read response body", httpResp.StatusCode, err.Error(), err)
	}

	resp := &minthcm.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL,
			"status_code": resp.StatusCode,
			"duration":    time.Since(start).String(),
		})
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return nil, minthcm.NewRequestError("response interceptor failed", resp.StatusCode, err.Error(), err)
	}

	return resp, nil
}

func (c *Client) parseResponse(method, url string, resp *minthcm.Response) (minthcm.Document, error) {
	doc, err := decodeDocument(resp.Body)
	if err != nil {
		c.logger.Error("failed to decode JSON response", map[string]interface{}{
			"method":      method,
			"url":         url,
			"status_code": resp.StatusCode,
			"body":        string(resp.Body),
		})

		return nil, minthcm.NewRequestError("request failed", resp.StatusCode,
			"Invalid JSON response: "+string(resp.Body), err)
	}

	if resp.StatusCode >= constants.HTTPStatusBadRequest {
		return nil, minthcm.NewRequestError("request failed", resp.StatusCode, detailFromDocument(doc), nil)
	}

	return doc, nil
}

func normalizeMethod(method string) (string, error) {
	upper := strings.ToUpper(method)

	switch upper {
	case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
		return upper, nil
	default:
		return "", minthcm.NewRequestError("invalid HTTP method: "+method, 0, "", minthcm.ErrInvalidMethod)
	}
}

// encodeBody wraps payload as {"data": payload} for POST and PATCH.
func encodeBody(method string, payload any) ([]byte, error) {
	if method != http.MethodPost && method != http.MethodPatch {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{"data": payload})
	if err != nil {
		return nil, minthcm.NewRequestError("failed to encode request body", 0, err.Error(), err)
	}

	return body, nil
}

func decodeDocument(data []byte) (minthcm.Document, error) {
	var value any

	err := json.Unmarshal(data, &value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", minthcm.ErrInvalidJSON, err)
	}

	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not a JSON object", minthcm.ErrInvalidJSON)
	}

	return minthcm.Document(object), nil
}

// errorDetail extracts errors.detail from a raw error body, or "".
func errorDetail(data []byte) string {
	doc, err := decodeDocument(data)
	if err != nil {
		return ""
	}

	return detailFromDocument(doc)
}

// detailFromDocument reads errors.detail, where errors is either an object or
// a list whose first element carries the detail.
func detailFromDocument(doc minthcm.Document) string {
	var detail any

	switch errs := doc["errors"].(type) {
	case map[string]any:
		detail = errs["detail"]
	case []any:
		if len(errs) == 0 {
			return ""
		}

		if first, ok := errs[0].(map[string]any); ok {
			detail = first["detail"]
		}
	}

	if detail == nil {
		return ""
	}

	if s, ok := detail.(string); ok {
		return s
	}

	return fmt.Sprint(detail)
}

// retryConnectionErrors retries only when no response was received.
func retryConnectionErrors(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err == nil {
		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// SanitizeURL strips trailing slashes and percent-encodes every byte except
// ASCII letters and digits, "_.-~" and the separators "/:?=&".
func SanitizeURL(url string) string {
	url = strings.TrimRight(url, "/")

	const hex = "0123456789ABCDEF"

	var b strings.Builder

	b.Grow(len(url))

	for i := 0; i < len(url); i++ {
		ch := url[i]
		if isSafeURLByte(ch) {
			b.WriteByte(ch)

			continue
		}

		b.WriteByte('%')
		b.WriteByte(hex[ch>>4])
		b.WriteByte(hex[ch&0x0F])
	}

	return b.String()
}

func isSafeURLByte(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}

	return bytes.IndexByte([]byte("_.-~/:?=&"), ch) >= 0
}
