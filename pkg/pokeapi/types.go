package pokeapi

import (
	"strconv"
	"strings"
)

// DefaultLanguage is used by the localized helpers when lang is empty.
const DefaultLanguage = "en"

// NamedResource is PokeAPI's reference to another resource.
type NamedResource struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// ID returns the numeric ID at the end of the resource URL, or 0.
//
// Example:
//
//	https://pokeapi.co/api/v2/pokemon/25/ -> 25
func (r NamedResource) ID() int {
	trimmed := strings.TrimRight(r.URL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0
	}
	id, err := strconv.Atoi(trimmed[idx+1:])
	if err != nil {
		return 0
	}
	return id
}

// ResourceList is a page of a named resource collection (e.g. /pokemon).
type ResourceList struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// Names returns the result names in order.
func (l ResourceList) Names() []string {
	names := make([]string, 0, len(l.Results))
	for _, r := range l.Results {
		names = append(names, r.Name)
	}
	return names
}

// Name is a localized name.
type Name struct {
	Name     string        `json:"name"`
	Language NamedResource `json:"language"`
}

// Genus is a localized genus ("Seed Pokémon").
type Genus struct {
	Genus    string        `json:"genus"`
	Language NamedResource `json:"language"`
}

// FlavorText is a localized Pokédex entry.
type FlavorText struct {
	FlavorText string        `json:"flavor_text"`
	Language   NamedResource `json:"language"`
	Version    NamedResource `json:"version"`
}

// PokemonSpecies is the subset of /pokemon-species/{name} the cards render.
type PokemonSpecies struct {
	ID                int            `json:"id"`
	Name              string         `json:"name"`
	Order             int            `json:"order"`
	CaptureRate       int            `json:"capture_rate"`
	BaseHappiness     *int           `json:"base_happiness"`
	IsBaby            bool           `json:"is_baby"`
	IsLegendary       bool           `json:"is_legendary"`
	IsMythical        bool           `json:"is_mythical"`
	Color             NamedResource  `json:"color"`
	Habitat           *NamedResource `json:"habitat"`
	Generation        NamedResource  `json:"generation"`
	Names             []Name         `json:"names"`
	Genera            []Genus        `json:"genera"`
	FlavorTextEntries []FlavorText   `json:"flavor_text_entries"`
}

// DisplayName returns the localized name, falling back to the resource name.
func (s PokemonSpecies) DisplayName(lang string) string {
	lang = languageOrDefault(lang)
	for _, n := range s.Names {
		if n.Language.Name == lang && n.Name != "" {
			return n.Name
		}
	}
	return s.Name
}

// GenusText returns the localized genus, or "".
func (s PokemonSpecies) GenusText(lang string) string {
	lang = languageOrDefault(lang)
	for _, g := range s.Genera {
		if g.Language.Name == lang {
			return g.Genus
		}
	}
	return ""
}

// FlavorTextFor returns the first localized flavor text with its hard line
// breaks and form feeds collapsed to single spaces, or "".
func (s PokemonSpecies) FlavorTextFor(lang string) string {
	lang = languageOrDefault(lang)
	for _, f := range s.FlavorTextEntries {
		if f.Language.Name == lang {
			return strings.Join(strings.Fields(f.FlavorText), " ")
		}
	}
	return ""
}

// HabitatName returns the habitat name, or "unknown" (PokeAPI uses null).
func (s PokemonSpecies) HabitatName() string {
	if s.Habitat == nil || s.Habitat.Name == "" {
		return "unknown"
	}
	return s.Habitat.Name
}

// Rarity returns "mythical", "legendary", "baby" or "".
func (s PokemonSpecies) Rarity() string {
	switch {
	case s.IsMythical:
		return "mythical"
	case s.IsLegendary:
		return "legendary"
	case s.IsBaby:
		return "baby"
	default:
		return ""
	}
}

func languageOrDefault(lang string) string {
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}
