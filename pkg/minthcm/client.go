package minthcm

import (
	"context"
	"time"
)

// Session is the transport a ModuleClient issues its requests through. Paths
// are relative to the API base URL; absolute URLs are used as given.
type Session interface {
	Dispatch(ctx context.Context, method, url string, payload any) (Document, error)
	Get(ctx context.Context, url string) (Document, error)
	Post(ctx context.Context, url string, payload any) (Document, error)
	Patch(ctx context.Context, url string, payload any) (Document, error)
	Delete(ctx context.Context, url string) (Document, error)
}

// MetadataClient provides access to instance-wide metadata endpoints.
type MetadataClient interface {
	GetModulesMetadata(ctx context.Context) (Document, error)
	GetUserPreferences(ctx context.Context, userID string) (Document, error)
}

// Client is an authenticated MintHCM API session.
//
// A Client must be closed when no longer needed. Close performs a logout when
// Config.LogoutOnExit is set.
type Client interface {
	Session
	MetadataClient

	// Module returns an accessor for the named module, e.g. "Employees".
	Module(name string) ModuleClient

	// Logout ends the session on the server and clears the stored token.
	Logout(ctx context.Context) error

	// Close releases the session, logging out first if configured to.
	Close() error

	State() State
	BaseURL() string
}

// ModuleClient maps record operations on one module onto the REST surface.
// Every method returns the parsed response unchanged.
type ModuleClient interface {
	Name() string
	Create(ctx context.Context, attributes Attributes) (Document, error)
	Update(ctx context.Context, recordID string, attributes Attributes) (Document, error)
	Delete(ctx context.Context, recordID string) (Document, error)
	Fields(ctx context.Context) (Document, error)
	Query(ctx context.Context, params *QueryParams) (Document, error)
	GetAllRecords(ctx context.Context) (Document, error)
	GetRelationship(ctx context.Context, recordID, relatedModule string) (Document, error)
	CreateRelationship(ctx context.Context, recordID, relatedModule, relatedID string) (Document, error)
	DeleteRelationship(ctx context.Context, recordID, relatedModule, relatedID string) (Document, error)
}

// NATSConfig selects a NATS JetStream key-value bucket as token storage.
type NATSConfig struct {
	// URL of the NATS server, e.g. "nats://127.0.0.1:4222".
	URL string
	// Bucket is the key-value bucket name. Created if missing.
	Bucket string
	// Key is the key the token is stored under.
	Key string
}

// Config represents client configuration for building a minthcm.Client.
//
// # Token storage
//
// The token is loaded from and persisted to exactly one storage:
//  1. TokenStorage, if set.
//  2. NATS, if set: a JetStream key-value bucket. The client owns the
//     connection and closes it on Close.
//  3. TokenPath, or "AccessToken.json" when empty, unless
//     DisableTokenPersistence is set.
//
// # Token endpoint
//
// TokenURL defaults to BaseURL with its last two characters (the version
// segment, e.g. "V8") replaced by "access_token". Set it explicitly for
// deployments whose base URL does not end in a two-character segment.
type Config struct {
	// BaseURL is the API root, e.g. "https://hcm.example.com/legacy/Api/V8".
	BaseURL string
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string
	// TokenURL overrides the derived OAuth2 token endpoint.
	TokenURL string

	// TokenPath is the token file location.
	TokenPath string
	// DisableTokenPersistence keeps the token in memory only.
	DisableTokenPersistence bool
	// TokenStorage replaces the file storage.
	TokenStorage TokenStorage
	// NATS stores the token in a JetStream key-value bucket.
	NATS *NATSConfig

	// LogoutOnExit makes Close log out and clear the stored token.
	LogoutOnExit bool

	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// HTTPTimeout bounds every HTTP round trip, token fetches included.
	HTTPTimeout time.Duration
	// RetryMax enables transport retries for connection failures. HTTP error
	// statuses are never retried by the transport. Default 0.
	RetryMax int
	// RetryWaitMin is the minimum backoff between transport retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum backoff between transport retries.
	RetryWaitMax time.Duration
	// RateLimit caps outgoing requests per second. 0 disables limiting.
	RateLimit float64

	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger receives structured log output. Nil discards.
	Logger Logger

	// RequestInterceptors run before every attempt.
	RequestInterceptors []RequestInterceptor
	// ResponseInterceptors run after every attempt.
	ResponseInterceptors []ResponseInterceptor
}
