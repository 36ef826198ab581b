package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "pokedex/0.1.0 (+https://github.com/Sternrassler/pokedex)"

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to the Doer interface.
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do calls f(req).
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// RequestOptions is the caller-supplied request configuration.
// Method, headers and body override the defaults; the request context is
// always owned by the controller.
type RequestOptions struct {
	// Method defaults to GET.
	Method string

	// Header values replace default headers with the same key.
	Header http.Header

	// Body is re-sent on every issued request.
	Body []byte
}

// Config holds controller dependencies.
type Config struct {
	// HTTPClient performs requests (default: *http.Client with a 30s timeout)
	HTTPClient Doer

	// UserAgent header (default: DefaultUserAgent)
	UserAgent string

	// Logger for request lifecycle events (nil uses the global logger)
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration with a 30 second HTTP client.
func DefaultConfig() Config {
	return Config{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		UserAgent:  DefaultUserAgent,
	}
}

// State is a snapshot of a controller's fetch state.
type State[T any] struct {
	// Data is the last successfully decoded body, nil until one arrives.
	// A failed attempt leaves a previously committed value in place.
	Data *T

	// Err is the normalized failure of the most recent attempt.
	Err error

	// IsLoading is true while the active request is in flight.
	IsLoading bool

	// Generation identifies the most recently issued request.
	Generation uint64
}

// Controller tracks the fetch state of a single resource.
// Only the outcome of the most recently issued request may mutate state.
type Controller[T any] struct {
	url       string
	opts      RequestOptions
	client    Doer
	userAgent string
	logger    zerolog.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu          sync.Mutex
	state       State[T]
	generation  uint64
	cancel      context.CancelFunc
	initialized bool
	closed      bool
	changed     chan struct{}

	inflight sync.WaitGroup
}

// New creates a controller for url and performs its first activation,
// which issues one request. ctx bounds every request the controller issues.
func New[T any](ctx context.Context, url string, opts RequestOptions, cfg Config) *Controller[T] {
	client := cfg.HTTPClient
	if client == nil {
		client = DefaultConfig().HTTPClient
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "fetch").Logger()
	}

	opts.Header = opts.Header.Clone()

	rootCtx, stop := context.WithCancel(ctx)

	c := &Controller[T]{
		url:       url,
		opts:      opts,
		client:    client,
		userAgent: userAgent,
		logger:    logger.With().Str("url", url).Logger(),
		ctx:       rootCtx,
		stop:      stop,
		state:     State[T]{IsLoading: true},
		changed:   make(chan struct{}),
	}

	c.Activate()
	return c
}

// URL returns the resource locator the controller fetches.
func (c *Controller[T]) URL() string {
	return c.url
}

// State returns a snapshot of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updated returns a channel that is closed on the next state change.
// After Close the returned channel is already closed.
func (c *Controller[T]) Updated() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Closed reports whether Close has been called.
func (c *Controller[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Activate runs one activation cycle: if no request has been issued since
// creation or the last Refetch, it issues one and returns true.
func (c *Controller[T]) Activate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.initialized {
		return false
	}
	c.initialized = true
	c.issueLocked()
	return true
}

// Refetch marks the controller for re-issue. The request itself is issued
// by the next Activate.
func (c *Controller[T]) Refetch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = false
}

// Reload re-issues the request immediately.
func (c *Controller[T]) Reload() {
	c.Refetch()
	c.Activate()
}

// Abort cancels the active request. Its outcome is discarded and the
// state settles without an error.
func (c *Controller[T]) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	c.generation++
	c.state.IsLoading = false

	c.logger.Debug().Uint64("generation", c.state.Generation).Msg("Fetch aborted")
	c.notifyLocked()
}

// Wait blocks until the state is settled (not loading) and returns it.
// It returns ErrClosed if the controller is closed first.
func (c *Controller[T]) Wait(ctx context.Context) (State[T], error) {
	for {
		c.mu.Lock()
		state, changed, closed := c.state, c.changed, c.closed
		c.mu.Unlock()

		if closed {
			return state, ErrClosed
		}
		if !state.IsLoading {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-changed:
		}
	}
}

// Close invalidates the active request and releases the controller.
// Outcomes arriving afterwards are discarded. Close is idempotent.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.stop()

	c.logger.Debug().Msg("Controller closed")
	c.notifyLocked()
}

// issueLocked supersedes any active request and starts a new one.
// c.mu must be held.
func (c *Controller[T]) issueLocked() {
	if c.cancel != nil {
		c.cancel()
		fetchSupersededTotal.Inc()
		c.logger.Debug().
			Uint64("generation", c.generation).
			Msg("Superseding in-flight request")
	}

	c.generation++
	gen := c.generation
	reqCtx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel

	c.state.Generation = gen
	c.state.IsLoading = true
	c.state.Err = nil

	requestID := uuid.NewString()
	c.logger.Debug().
		Uint64("generation", gen).
		Str("request_id", requestID).
		Str("method", c.method()).
		Msg("Issuing fetch request")

	c.notifyLocked()

	c.inflight.Add(1)
	fetchInFlight.Inc()
	go c.run(reqCtx, cancel, gen, requestID)
}

// run performs one request and commits its outcome if gen is still current.
func (c *Controller[T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64, requestID string) {
	defer c.inflight.Done()
	defer fetchInFlight.Dec()
	defer cancel()

	start := time.Now()
	data, err := c.attempt(ctx, requestID)
	elapsed := time.Since(start)
	fetchRequestDuration.WithLabelValues(methodLabel(c.method())).Observe(elapsed.Seconds())

	c.commit(gen, requestID, data, err, elapsed)
}

// attempt executes the request and decodes the body. Panics raised by the
// Doer are recovered and normalized.
func (c *Controller[T]) attempt(ctx context.Context, requestID string) (data *T, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = normalize(c.url, r)
		}
	}()

	req, err := c.newRequest(ctx, requestID)
	if err != nil {
		return nil, &TransportError{URL: c.url, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, normalize(c.url, err)
	}
	if resp == nil {
		return nil, normalize(c.url, nil)
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.Body != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
		}
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        c.url,
		}
	}

	if resp.Body == nil {
		return nil, &DecodeError{URL: c.url, Err: io.ErrUnexpectedEOF}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: c.url, Err: err}
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &DecodeError{URL: c.url, Err: err}
	}
	return &v, nil
}

// commit applies an outcome to the state when gen is still the active token.
func (c *Controller[T]) commit(gen uint64, requestID string, data *T, err error, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	method := methodLabel(c.method())

	if c.closed || gen != c.generation {
		fetchRequestsTotal.WithLabelValues(method, outcomeDiscarded).Inc()
		c.logger.Debug().
			Uint64("generation", gen).
			Str("request_id", requestID).
			Msg("Discarding stale fetch outcome")
		return
	}

	if err != nil {
		class := Classify(err)
		c.state.Err = err
		fetchErrorsTotal.WithLabelValues(string(class)).Inc()
		fetchRequestsTotal.WithLabelValues(method, outcomeError).Inc()

		event := c.logger.Warn().
			Err(err).
			Uint64("generation", gen).
			Str("request_id", requestID).
			Str("error_class", string(class)).
			Dur("duration", elapsed)
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			event = event.Int("status", statusErr.StatusCode)
		}
		event.Msg("Fetch failed")
	} else {
		c.state.Data = data
		fetchRequestsTotal.WithLabelValues(method, outcomeSuccess).Inc()

		c.logger.Debug().
			Uint64("generation", gen).
			Str("request_id", requestID).
			Dur("duration", elapsed).
			Msg("Fetch succeeded")
	}

	c.state.IsLoading = false
	c.cancel = nil
	c.notifyLocked()
}

// newRequest builds the outbound request with defaults merged under the
// caller's options.
func (c *Controller[T]) newRequest(ctx context.Context, requestID string) (*http.Request, error) {
	var body io.Reader
	if c.opts.Body != nil {
		body = bytes.NewReader(c.opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, c.method(), c.url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	for key, values := range c.opts.Header {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	return req, nil
}

func (c *Controller[T]) method() string {
	if c.opts.Method == "" {
		return http.MethodGet
	}
	return c.opts.Method
}

// notifyLocked wakes everything waiting on Updated. c.mu must be held.
func (c *Controller[T]) notifyLocked() {
	close(c.changed)
	if !c.closed {
		c.changed = make(chan struct{})
	}
}
