package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Header = http.Header

// Client is the high-level wrapper over a Transport. The zero value is not
// usable; construct it with NewClient.
type Client struct {
	Transport
	BaseURL string

	opts    *Options
	Headers Header
}

type Options struct {
	Headers                    Header
	httpClient                 *http.Client
	timeout                    time.Duration
	enableAutoPersistedQueries bool
	useGETForPersistedQueries  bool
	hashOperations             bool
	logger                     logrus.FieldLogger
}

type Option func(*Options) error

// SetHeader sets a header for every request. Note, duplicate headers are
// replaced with the newest value provided.
func SetHeader(key, value string) Option {
	return func(options *Options) error {
		if options.Headers == nil {
			options.Headers = make(Header)
		}
		options.Headers.Set(key, value)
		return nil
	}
}

// SetHTTPClient replaces the default underlying http.Client.
func SetHTTPClient(c *http.Client) Option {
	return func(o *Options) error {
		if c == nil {
			return errors.New("http client must not be nil")
		}

		o.httpClient = c
		return nil
	}
}

// SetTimeout sets the round-trip timeout of the default underlying client.
// It is ignored when SetHTTPClient is used.
func SetTimeout(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}

		o.timeout = d
		return nil
	}
}

// EnableAutoPersistedQueries sends queries hash-first, falling back to the
// full document only when the server does not know the hash.
func EnableAutoPersistedQueries() Option {
	return func(o *Options) error {
		o.enableAutoPersistedQueries = true
		return nil
	}
}

// UseGETForPersistedQueries issues hash-only attempts as GET requests so
// they are cacheable by intermediaries. Only meaningful together with
// EnableAutoPersistedQueries.
func UseGETForPersistedQueries() Option {
	return func(o *Options) error {
		o.useGETForPersistedQueries = true
		return nil
	}
}

// ApplyOperationHashing derives operation identifiers from the query
// document with sha256 when none is provided. Without it, a persisted-query
// attempt for an operation without an identifier fails fast.
func ApplyOperationHashing() Option {
	return func(o *Options) error {
		o.hashOperations = true
		return nil
	}
}

// SetLogger replaces the default logrus standard logger.
func SetLogger(l logrus.FieldLogger) Option {
	return func(o *Options) error {
		if l == nil {
			return errors.New("logger must not be nil")
		}

		o.logger = l
		return nil
	}
}

// NewClient creates a new GraphQL-over-HTTP client for the given endpoint.
func NewClient(endpoint string, options ...Option) (*Client, error) {
	opts := &Options{Headers: make(Header)}

	for _, option := range options {
		if err := option(opts); err != nil {
			return nil, errors.Wrap(err, "failed to apply client option")
		}
	}

	if strings.TrimSpace(endpoint) == "" {
		return nil, ErrEndpointRequired
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "malformed graphql endpoint")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported graphql endpoint scheme: %q", u.Scheme)
	}

	hc := opts.httpClient
	if hc == nil {
		timeout := opts.timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		Transport: &HTTP{
			URL:                        u.String(),
			Client:                     hc,
			EnableAutoPersistedQueries: opts.enableAutoPersistedQueries,
			UseGETForPersistedQueries:  opts.useGETForPersistedQueries,
			HashOperations:             opts.hashOperations,
			Headers:                    opts.Headers,
			Logger:                     opts.logger,
		},
		BaseURL: u.String(),
		opts:    opts,
		Headers: opts.Headers,
	}, nil
}

func (c *Client) exec(req Request, t interface{}) (*OperationResponse, error) {
	res := c.Request(req)
	defer res.Close()

	if !res.Next() {
		if err := res.Err(); err != nil {
			return nil, err
		}

		return nil, errors.New("response closed before a result arrived")
	}

	opres := res.Get()

	if err := opres.UnmarshalData(t); err != nil {
		return nil, err
	}

	if len(opres.Errors) > 0 {
		return &opres, opres.Errors
	}

	return &opres, nil
}

// Query runs a query.
// operationName is optional
func (c *Client) Query(ctx context.Context, operationName string, query string, variables map[string]interface{}, t interface{}, headers Header) (*OperationResponse, error) {
	return c.exec(Request{
		Context:       ctx,
		Operation:     Query,
		OperationName: operationName,
		Query:         query,
		Variables:     variables,
		Headers:       headers,
	}, t)
}

// Mutation runs a mutation.
// operationName is optional
func (c *Client) Mutation(ctx context.Context, operationName string, query string, variables map[string]interface{}, t interface{}, headers Header) (*OperationResponse, error) {
	return c.exec(Request{
		Context:       ctx,
		Operation:     Mutation,
		OperationName: operationName,
		Query:         query,
		Variables:     variables,
		Headers:       headers,
	}, t)
}

// Execute runs a fully-specified operation, for callers that carry their own
// stable operation identifiers.
func (c *Client) Execute(req Request, t interface{}) (*OperationResponse, error) {
	return c.exec(req, t)
}
