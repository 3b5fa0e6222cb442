package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration and token directories.
	ConfigDirPerm = 0o700

	// ConfigFilePerm is the permission for configuration and token files.
	ConfigFilePerm = 0o600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as connecting to NATS.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// MaxDispatchAttempts is the first attempt plus the single token-refresh retry.
	MaxDispatchAttempts = 2

	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between transport retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Authentication.
const (
	// DefaultTokenPath is the token file used when no storage is configured.
	DefaultTokenPath = "AccessToken.json"

	// TokenEndpointSuffix replaces the version segment of the API base URL.
	TokenEndpointSuffix = "access_token"

	// VersionSegmentLength is the length of the trailing version segment
	// ("V8", "v1") stripped from the base URL to derive the token endpoint.
	VersionSegmentLength = 2

	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second

	// DefaultNATSBucket is the JetStream key-value bucket holding tokens.
	DefaultNATSBucket = "minthcm_tokens"

	// DefaultNATSKey is the key the token is stored under.
	DefaultNATSKey = "access_token"
)

// HTTP headers.
const (
	// DefaultUserAgent is sent with every request. MintHCM instances behind
	// some proxies reject non-browser agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/97.0.4692.99 Safari/537.36"

	// ContentTypeJSON is the content type of every request.
	ContentTypeJSON = "application/json"
)

// HTTP status codes commonly used.
const (
	// HTTPStatusBadRequest is the first client error status.
	HTTPStatusBadRequest = 400
)
