package extrachill

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eshaffer321/extrachill-go/internal/metrics"
	"github.com/eshaffer321/extrachill-go/internal/session"
	"github.com/eshaffer321/extrachill-go/internal/storage"
	"github.com/eshaffer321/extrachill-go/internal/transport"
	internalTypes "github.com/eshaffer321/extrachill-go/internal/types"
	"github.com/eshaffer321/extrachill-go/pkg/extrachill/identity"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultBaseURL is the default Extra Chill REST API base URL
	DefaultBaseURL = internalTypes.DefaultBaseURL

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = internalTypes.DefaultTimeout

	// RefreshBuffer is how long before expiry an access token is refreshed
	RefreshBuffer = internalTypes.RefreshBuffer
)

// Client is the main Extra Chill API client
type Client struct {
	// Service interfaces
	Auth       AuthService
	Activity   ActivityService
	Onboarding OnboardingService
	Config     ConfigService

	// Internal fields
	baseURL    string
	httpClient *http.Client
	session    *session.Manager
	store      storage.Store
	options    *ClientOptions
}

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL overrides the default API base URL
	BaseURL string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// Store persists credentials and the device id. Takes precedence over SessionFile.
	Store Store

	// SessionFile persists credentials to a 0600 JSON file at this path
	SessionFile string

	// Logger for debug logging
	Logger Logger

	// RetryConfig configures retry of transient server errors
	RetryConfig *internalTypes.RetryConfig

	// RateLimiter for rate limiting
	RateLimiter RateLimiter

	// Hooks for observability
	Hooks *internalTypes.Hooks

	// IdentityProvider supplies ID tokens for LoginWithIdentity
	IdentityProvider identity.Provider

	// OnAuthFailure is called once each time the session is lost to a failed refresh
	OnAuthFailure func()

	// MetricsRegisterer registers session counters when set
	MetricsRegisterer prometheus.Registerer

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions

	// Clock overrides time.Now for token expiry checks
	Clock func() time.Time
}

// Store is a secure key/value store for credentials and the device id
type Store = storage.Store

// BatchStore is a Store that can write a whole credential pair at once.
// Stores that implement it never hold tokens from two different pairs.
type BatchStore = storage.BatchStore

// NewMemoryStore returns a Store that lives only as long as the process
func NewMemoryStore() Store {
	return storage.NewMemoryStore()
}

// NewFileStore returns a Store backed by a 0600 JSON file
func NewFileStore(path string) Store {
	return storage.NewFileStore(path)
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// NewClient creates a new Extra Chill client and loads any persisted session
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}

		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}

		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}

		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}

		// Log error but don't fail client creation
		if err := sentry.Init(sentryOpts); err != nil && opts.Logger != nil {
			opts.Logger.Error("Failed to initialize Sentry", "error", err)
		}
	}

	// Set defaults
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}

	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	store := opts.Store
	if store == nil {
		if opts.SessionFile != "" {
			store = storage.NewFileStore(opts.SessionFile)
		} else {
			store = storage.NewMemoryStore()
		}
	}

	var recorder *metrics.Recorder
	if opts.MetricsRegisterer != nil {
		var err error
		recorder, err = metrics.New(opts.MetricsRegisterer)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	// A nil Logger must stay a nil interface downstream
	var logger internalTypes.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}

	trans := transport.NewRESTTransport(&transport.Options{
		BaseURL:     opts.BaseURL,
		HTTPClient:  opts.HTTPClient,
		RetryConfig: opts.RetryConfig,
		Logger:      logger,
		Hooks:       opts.Hooks,
	})

	c := &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		store:      store,
		options:    opts,
		session: session.NewManager(&session.Options{
			Transport: trans,
			Store:     store,
			Logger:    logger,
			Metrics:   recorder,
			Now:       opts.Clock,
		}),
	}

	c.initServices()

	if err := c.Initialize(context.Background()); err != nil && opts.Logger != nil {
		opts.Logger.Warn("Failed to load session", "error", err)
	}

	return c, nil
}

// initServices initializes all service implementations
func (c *Client) initServices() {
	c.Auth = &authService{client: c}
	c.Activity = &activityService{client: c}
	c.Onboarding = &onboardingService{client: c}
	c.Config = &configService{client: c}
}

// Initialize reloads persisted credentials from the store. NewClient calls it once.
func (c *Client) Initialize(ctx context.Context) error {
	return c.session.Initialize(ctx, c.handleAuthFailure)
}

func (c *Client) handleAuthFailure() {
	if c.options.Logger != nil {
		c.options.Logger.Warn("Session expired, sign in again")
	}
	if c.options.OnAuthFailure != nil {
		c.options.OnAuthFailure()
	}
}

// authenticated runs an authenticated REST call with rate limiting and error capture
func (c *Client) authenticated(ctx context.Context, method, endpoint string, body, result interface{}) error {
	if err := c.wait(ctx, endpoint); err != nil {
		return err
	}

	start := time.Now()
	err := c.session.AuthenticatedRequest(ctx, method, endpoint, body, result)
	c.capture(ctx, method, endpoint, time.Since(start), err)
	return err
}

// unauthenticated runs a REST call that needs no session
func (c *Client) unauthenticated(ctx context.Context, method, endpoint string, body, result interface{}) error {
	if err := c.wait(ctx, endpoint); err != nil {
		return err
	}

	start := time.Now()
	err := c.session.Unauthenticated(ctx, method, endpoint, body, result)
	c.capture(ctx, method, endpoint, time.Since(start), err)
	return err
}

func (c *Client) wait(ctx context.Context, endpoint string) error {
	if c.options.RateLimiter == nil {
		return nil
	}
	if err := c.options.RateLimiter.Wait(ctx); err != nil {
		c.capture(ctx, "", endpoint, 0, err)
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// capture reports unexpected errors to Sentry. A missing session is routine.
func (c *Client) capture(ctx context.Context, method, endpoint string, duration time.Duration, err error) {
	if err == nil || errors.Is(err, ErrSessionMissing) {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("rest.endpoint", stripQuery(endpoint))
		if method != "" {
			scope.SetTag("rest.method", method)
		}
		scope.SetContext("rest", map[string]interface{}{
			"endpoint": stripQuery(endpoint),
			"duration": duration.String(),
		})
		hub.CaptureException(err)
	})
}

// Close flushes any pending Sentry events and performs cleanup
func (c *Client) Close() {
	// Flush Sentry events with a 2 second timeout
	sentry.Flush(2 * time.Second)
}

// stripQuery drops the query string so cursors don't fragment Sentry tags
func stripQuery(endpoint string) string {
	path, _, _ := strings.Cut(endpoint, "?")
	return path
}
