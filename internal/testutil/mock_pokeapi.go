// Package testutil provides testing utilities for the pokedex client.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// APIPrefix is the path prefix the mock serves, matching PokeAPI's.
const APIPrefix = "/api/v2"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration

	// Gate, when set, holds the response until it is closed or receives.
	Gate <-chan struct{}
}

// RecordedRequest is a request as seen by the mock server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// MockPokeAPI is a configurable mock PokeAPI server for testing.
type MockPokeAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	requests []RecordedRequest
}

// NewMockPokeAPI creates a new mock PokeAPI server.
func NewMockPokeAPI() *MockPokeAPI {
	mock := &MockPokeAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockPokeAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the API base URL (root URL + APIPrefix).
func (m *MockPokeAPI) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockPokeAPI) Close() {
	m.server.Close()
}

// Reset clears recorded requests.
func (m *MockPokeAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetHandler sets a custom handler for a path relative to APIPrefix.
func (m *MockPokeAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[APIPrefix+path] = handler
}

// SetResponse configures a simple response for a path relative to APIPrefix.
func (m *MockPokeAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, ResponseHandler(resp))
}

// SetSequence serves responses in order for a path; the last one repeats.
func (m *MockPokeAPI) SetSequence(path string, resps ...MockResponse) {
	var mu sync.Mutex
	next := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := resps[next]
		if next < len(resps)-1 {
			next++
		}
		mu.Unlock()
		ResponseHandler(resp)(w, r)
	})
}

// SetPokemonList configures the /pokemon list endpoint to return names.
func (m *MockPokeAPI) SetPokemonList(names ...string) {
	m.SetResponse("/pokemon", NewJSONResponse(m.ListBody(names...)))
}

// SetSpecies configures /pokemon-species/{name} with a generated species body.
func (m *MockPokeAPI) SetSpecies(id int, name string) {
	m.SetResponse("/pokemon-species/"+name, NewJSONResponse(SpeciesBody(id, name)))
}

// Requests returns a copy of all recorded requests.
func (m *MockPokeAPI) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockPokeAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// GetPathCount returns the number of requests made to a path relative to APIPrefix.
func (m *MockPokeAPI) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, req := range m.requests {
		if req.Path == APIPrefix+path {
			count++
		}
	}
	return count
}

// ListBody renders a /pokemon list body whose entries point at this server.
func (m *MockPokeAPI) ListBody(names ...string) string {
	type entry struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	results := make([]entry, 0, len(names))
	for i, name := range names {
		results = append(results, entry{
			Name: name,
			URL:  fmt.Sprintf("%s/pokemon/%d/", m.BaseURL(), i+1),
		})
	}
	body, _ := json.Marshal(map[string]any{
		"count":    len(names),
		"next":     nil,
		"previous": nil,
		"results":  results,
	})
	return string(body)
}

// defaultHandler mirrors PokeAPI's plain-text 404 for unknown resources.
func (m *MockPokeAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Not Found"))
}

// ResponseHandler turns a MockResponse into an http handler.
func ResponseHandler(resp MockResponse) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp.Gate != nil {
			select {
			case <-resp.Gate:
			case <-r.Context().Done():
				return
			}
		}

		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}
}

// NewJSONResponse creates a standard 200 OK JSON response.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       "Not Found",
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// SpeciesBody renders a minimal /pokemon-species body.
func SpeciesBody(id int, name string) string {
	display := strings.ToUpper(name[:1]) + name[1:]
	body, _ := json.Marshal(map[string]any{
		"id":           id,
		"name":         name,
		"order":        id,
		"capture_rate": 45,
		"is_legendary": false,
		"is_mythical":  false,
		"color":        map[string]string{"name": "green", "url": ""},
		"habitat":      map[string]string{"name": "grassland", "url": ""},
		"generation":   map[string]string{"name": "generation-i", "url": ""},
		"names": []map[string]any{
			{"name": display, "language": map[string]string{"name": "en", "url": ""}},
		},
		"genera": []map[string]any{
			{"genus": "Seed Pokémon", "language": map[string]string{"name": "en", "url": ""}},
		},
		"flavor_text_entries": []map[string]any{
			{
				"flavor_text": "A strange seed was\nplanted on its\fback at birth.",
				"language":    map[string]string{"name": "en", "url": ""},
				"version":     map[string]string{"name": "red", "url": ""},
			},
		},
	})
	return string(body)
}
