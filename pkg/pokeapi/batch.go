package pokeapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/pokedex/pkg/fetch"
	"github.com/rs/zerolog/log"
)

// BatchConfig holds batch loader configuration.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of species controllers alive at once
	MaxConcurrency int

	// Timeout per card
	Timeout time.Duration
}

// DefaultBatchConfig returns a polite default for the public API.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// SpeciesSource creates species controllers. *Client implements it.
type SpeciesSource interface {
	SpeciesController(ctx context.Context, name string) (*fetch.Controller[PokemonSpecies], error)
}

// CardResult is the settled outcome of one card.
type CardResult struct {
	Index   int             `json:"-" yaml:"-"`
	Name    string          `json:"name" yaml:"name"`
	Species *PokemonSpecies `json:"species,omitempty" yaml:"species,omitempty"`
	Err     error           `json:"-" yaml:"-"`
}

// BatchLoader settles one species controller per card with a worker pool.
type BatchLoader struct {
	source SpeciesSource
	config BatchConfig
}

// NewBatchLoader creates a new batch loader.
func NewBatchLoader(source SpeciesSource, config BatchConfig) *BatchLoader {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchLoader{
		source: source,
		config: config,
	}
}

// LoadCards loads every name and returns one result per name, in input
// order. A failed card is reported in its CardResult; the returned error is
// only non-nil when ctx ends before every card was attempted.
func (bl *BatchLoader) LoadCards(ctx context.Context, names []string) ([]CardResult, error) {
	start := time.Now()
	results := make([]CardResult, len(names))
	for i, name := range names {
		results[i] = CardResult{Index: i, Name: name}
	}

	if len(names) == 0 {
		return results, nil
	}

	log.Info().
		Int("cards", len(names)).
		Int("workers", bl.config.MaxConcurrency).
		Msg("Starting card fetch")

	queue := make(chan int, len(names))
	for i := range names {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	workers := bl.config.MaxConcurrency
	if workers > len(names) {
		workers = len(names)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go bl.worker(ctx, queue, results, &wg, w)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	log.Info().
		Int("cards", len(names)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Card fetch complete")

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("card fetch interrupted: %w", err)
	}
	return results, nil
}

// worker settles cards from the queue. Each index is written by exactly one worker.
func (bl *BatchLoader) worker(ctx context.Context, queue <-chan int, results []CardResult, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for i := range queue {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		species, err := bl.loadOne(ctx, results[i].Name)
		results[i].Species = species
		results[i].Err = err

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Str("name", results[i].Name).
				Msg("Card fetch failed")
		}
		processed++
	}

	log.Debug().
		Int("worker_id", workerID).
		Int("cards_processed", processed).
		Msg("Worker completed")
}

// loadOne runs a species controller to a settled state and releases it.
func (bl *BatchLoader) loadOne(ctx context.Context, name string) (*PokemonSpecies, error) {
	cardCtx, cancel := context.WithTimeout(ctx, bl.config.Timeout)
	defer cancel()

	ctrl, err := bl.source.SpeciesController(cardCtx, name)
	if err != nil {
		return nil, err
	}
	defer ctrl.Close()

	state, err := ctrl.Wait(cardCtx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", name, err)
	}
	if state.Err != nil {
		return nil, state.Err
	}
	if state.Data == nil {
		return nil, fmt.Errorf("no data for %s", name)
	}
	return state.Data, nil
}
