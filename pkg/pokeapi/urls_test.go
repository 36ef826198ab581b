package pokeapi

import "testing"

func TestListURL(t *testing.T) {
	tests := []struct {
		name        string
		base        string
		limit       int
		offset      int
		expected    string
		expectError bool
	}{
		{
			name:     "default api",
			base:     DefaultBaseURL,
			limit:    9,
			offset:   0,
			expected: "https://pokeapi.co/api/v2/pokemon?limit=9&offset=0",
		},
		{
			name:     "trailing slash",
			base:     "https://pokeapi.co/api/v2/",
			limit:    20,
			offset:   40,
			expected: "https://pokeapi.co/api/v2/pokemon?limit=20&offset=40",
		},
		{
			name:     "local mirror",
			base:     "http://127.0.0.1:8080/api/v2",
			limit:    1,
			offset:   0,
			expected: "http://127.0.0.1:8080/api/v2/pokemon?limit=1&offset=0",
		},
		{name: "negative limit", base: DefaultBaseURL, limit: -1, expectError: true},
		{name: "negative offset", base: DefaultBaseURL, limit: 9, offset: -3, expectError: true},
		{name: "empty base", base: "", limit: 9, expectError: true},
		{name: "relative base", base: "/api/v2", limit: 9, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListURL(tt.base, tt.limit, tt.offset)
			if tt.expectError {
				if err == nil {
					t.Errorf("ListURL() = %q, expected error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListURL() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("ListURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSpeciesURL(t *testing.T) {
	tests := []struct {
		name        string
		species     string
		expected    string
		expectError bool
	}{
		{name: "simple", species: "bulbasaur", expected: "https://pokeapi.co/api/v2/pokemon-species/bulbasaur"},
		{name: "hyphenated", species: "mr-mime", expected: "https://pokeapi.co/api/v2/pokemon-species/mr-mime"},
		{name: "normalized", species: "  Pikachu ", expected: "https://pokeapi.co/api/v2/pokemon-species/pikachu"},
		{name: "empty", species: "   ", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SpeciesURL(DefaultBaseURL, tt.species)
			if tt.expectError {
				if err == nil {
					t.Errorf("SpeciesURL() = %q, expected error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SpeciesURL() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("SpeciesURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}
