package livespace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/angelmondragon/livespace-sdk/pkg/config"
	pkgerrors "github.com/angelmondragon/livespace-sdk/pkg/errors"
	"github.com/angelmondragon/livespace-sdk/pkg/logger"
	"github.com/angelmondragon/livespace-sdk/pkg/metrics"
)

const (
	defaultOutputFormat = "json"
	defaultHTTPTimeout  = 30 * time.Second

	// maxAttempts bounds a call to the first POST plus one retry after the
	// session was renewed.
	maxAttempts = 2
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Caller is the only capability module facades need.
type Caller interface {
	Call(ctx context.Context, module, method string, params Params) (*Response, error)
}

// Client dispatches signed method calls and owns the session.
type Client struct {
	baseURL string
	format  string

	httpClient     *http.Client
	requestTimeout time.Duration
	limiter        *rate.Limiter
	store          CredentialStore
	logger         *logger.Logger
	metrics        *metrics.CallMetrics

	transport *transport
	sessions  *SessionManager
}

var _ Caller = (*Client)(nil)

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithOutputFormat sets the API output format segment. Only json is accepted.
func WithOutputFormat(format string) Option {
	return func(c *Client) {
		c.format = strings.ToLower(strings.TrimSpace(format))
	}
}

// WithRequestTimeout bounds every individual POST, including the retry.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCredentialStore shares sessions through an external store.
func WithCredentialStore(store CredentialStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithLogger sets the logger used for session and call events.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logger = logg
		}
	}
}

// WithMetrics records attempts, durations and session refreshes.
func WithMetrics(m *metrics.CallMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

type clientParams struct {
	BaseURL      string `json:"base_url" validate:"required,url"`
	APIKey       string `json:"api_key" validate:"required"`
	APISecret    string `json:"api_secret" validate:"required"`
	OutputFormat string `json:"output_format" validate:"oneof=json"`
}

// NewClient builds a client for the API at baseURL.
func NewClient(baseURL, apiKey, apiSecret string, opts ...Option) (*Client, error) {
	client := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		format:  defaultOutputFormat,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	params := clientParams{
		BaseURL:      client.baseURL,
		APIKey:       strings.TrimSpace(apiKey),
		APISecret:    strings.TrimSpace(apiSecret),
		OutputFormat: client.format,
	}
	if err := validate.Struct(params); err != nil {
		return nil, formatValidationErrors(err)
	}
	if _, err := url.ParseRequestURI(client.baseURL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "invalid base url")
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if client.logger == nil {
		client.logger = logger.Nop()
	}

	client.transport = &transport{
		httpClient: client.httpClient,
		limiter:    client.limiter,
		timeout:    client.requestTimeout,
	}
	client.sessions = &SessionManager{
		apiKey:    params.APIKey,
		apiSecret: params.APISecret,
		authURL:   authEndpoint(client.baseURL, client.format),
		transport: client.transport,
		store:     client.store,
		logger:    client.logger,
		metrics:   client.metrics,
	}

	return client, nil
}

// NewClientFromConfig builds a client from environment configuration.
func NewClientFromConfig(cfg config.LivespaceConfig, opts ...Option) (*Client, error) {
	base := []Option{
		WithOutputFormat(cfg.OutputFormat),
		WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		WithRequestTimeout(cfg.HTTPTimeout),
		WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	return NewClient(cfg.APIURL, cfg.APIKey, cfg.APISecret, append(base, opts...)...)
}

// Sessions exposes the session manager, mainly to invalidate a session
// explicitly.
func (c *Client) Sessions() *SessionManager {
	return c.sessions
}

// Call invokes module.method with params. A SESSION_EXPIRED answer renews the
// session and repeats the request once; a second expiry is reported as
// AUTH_ERROR. Transport failures are returned as they are and never retried.
func (c *Client) Call(ctx context.Context, module, method string, params Params) (*Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "livespace client not configured")
	}
	module = strings.TrimSpace(module)
	method = strings.TrimSpace(method)
	if module == "" || method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "module and method are required")
	}

	ctx = c.logger.WithCall(ctx, module, method)
	ctx = c.logger.WithRequestID(ctx, uuid.NewString())
	start := time.Now()
	defer func() {
		c.metrics.ObserveDuration(module, method, time.Since(start))
	}()

	endpoint := methodEndpoint(c.baseURL, c.format, module, method)

	creds, err := c.sessions.Credentials(ctx, false)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		resp, err := c.send(ctx, endpoint, params, creds)
		if err == nil {
			err = resp.Err()
		}
		c.metrics.IncAttempt(module, method, outcome(err))
		c.logger.Debug(c.logger.WithFields(ctx, map[string]any{
			"attempt": attempt,
			"outcome": outcome(err),
		}), "livespace call attempt")

		if err == nil {
			return resp, nil
		}
		if pkgerrors.CodeOf(err) != pkgerrors.CodeSessionExpired {
			return nil, err
		}
		if attempt >= maxAttempts {
			typed := pkgerrors.As(err)
			return nil, pkgerrors.NewResult(pkgerrors.CodeAuth, typed.Result(), typed.Message()).
				WithDetails(typed.Details())
		}

		c.logger.Info(ctx, "livespace session expired, renewing")
		creds, err = c.sessions.Renew(ctx, creds)
		if err != nil {
			return nil, err
		}
	}
}

func (c *Client) send(ctx context.Context, endpoint string, params Params, creds Credentials) (*Response, error) {
	payload, err := json.Marshal(creds.apply(params))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "encode params")
	}
	form := url.Values{}
	form.Set("data", string(payload))

	body, err := c.transport.postForm(ctx, endpoint, form)
	if err != nil {
		return nil, err
	}
	return ParseResponse(body)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(pkgerrors.CodeOf(err))
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeConfig, "invalid client configuration").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeConfig, err, "invalid client configuration")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be an absolute url"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}
