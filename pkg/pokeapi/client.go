// Package pokeapi binds fetch controllers to the PokeAPI list and species
// resources used by the pokedex views.
package pokeapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/pokedex/pkg/fetch"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client creates controllers for PokeAPI resources. It holds no state
// between controllers: every call returns an independent instance.
type Client struct {
	baseURL    string
	httpClient fetch.Doer
	userAgent  string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://pokeapi.co/api/v2
	BaseURL string

	// UserAgent header sent with every request
	UserAgent string

	// HTTPClient performs requests (default: *http.Client with Timeout)
	HTTPClient fetch.Doer

	// Timeout for the default HTTP client
	Timeout time.Duration
}

// DefaultConfig returns a configuration for the public PokeAPI.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: fetch.DefaultUserAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new PokeAPI client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := resourceURL(cfg.BaseURL); err != nil {
		return nil, err
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.Timeout <= 0 {
			return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
		}
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		userAgent:  cfg.UserAgent,
		logger:     log.With().Str("component", "pokeapi").Logger(),
	}, nil
}

// SetLogger replaces the logger passed to controllers.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListController starts fetching one page of the /pokemon collection.
func (c *Client) ListController(ctx context.Context, limit, offset int) (*fetch.Controller[ResourceList], error) {
	url, err := ListURL(c.baseURL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("build list url: %w", err)
	}

	c.logger.Debug().
		Int("limit", limit).
		Int("offset", offset).
		Msg("Creating list controller")

	return fetch.New[ResourceList](ctx, url, fetch.RequestOptions{}, c.fetchConfig("list")), nil
}

// SpeciesController starts fetching /pokemon-species/{name}.
func (c *Client) SpeciesController(ctx context.Context, name string) (*fetch.Controller[PokemonSpecies], error) {
	url, err := SpeciesURL(c.baseURL, name)
	if err != nil {
		return nil, fmt.Errorf("build species url: %w", err)
	}

	return fetch.New[PokemonSpecies](ctx, url, fetch.RequestOptions{}, c.fetchConfig("species")), nil
}

func (c *Client) fetchConfig(view string) fetch.Config {
	logger := c.logger.With().Str("view", view).Logger()
	return fetch.Config{
		HTTPClient: c.httpClient,
		UserAgent:  c.userAgent,
		Logger:     &logger,
	}
}
