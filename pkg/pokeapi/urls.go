package pokeapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the public PokeAPI v2 root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// ListURL builds {base}/pokemon?limit={limit}&offset={offset}.
func ListURL(base string, limit, offset int) (string, error) {
	if limit < 0 {
		return "", fmt.Errorf("limit must be >= 0 (got %d)", limit)
	}
	if offset < 0 {
		return "", fmt.Errorf("offset must be >= 0 (got %d)", offset)
	}

	u, err := resourceURL(base, "pokemon")
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// SpeciesURL builds {base}/pokemon-species/{name}.
func SpeciesURL(base, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("species name is required")
	}

	u, err := resourceURL(base, "pokemon-species", strings.ToLower(name))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// resourceURL parses base and appends escaped path segments.
func resourceURL(base string, segments ...string) (*url.URL, error) {
	if base == "" {
		return nil, fmt.Errorf("base url is required")
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", base)
	}

	return u.JoinPath(segments...), nil
}
