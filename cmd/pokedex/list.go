package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// cardOutput is one printed card.
type cardOutput struct {
	Name        string `json:"name" yaml:"name"`
	ID          int    `json:"id,omitempty" yaml:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Genus       string `json:"genus,omitempty" yaml:"genus,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Habitat     string `json:"habitat,omitempty" yaml:"habitat,omitempty"`
	Rarity      string `json:"rarity,omitempty" yaml:"rarity,omitempty"`
	FlavorText  string `json:"flavor_text,omitempty" yaml:"flavor_text,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newListCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a species card for every listed Pokémon",
		Long: `Fetch one page of the Pokémon list, then every species on it, and print
the cards as text, JSON or YAML.

The command fails if the list cannot be loaded or any card fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			closeLog, err := a.setupLogging(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			stopMetrics, err := a.startMetrics(cmd.Context())
			if err != nil {
				return err
			}
			defer stopMetrics()

			return a.runList(cmd.Context(), format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json, yaml")

	return cmd
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func (a *app) runList(ctx context.Context, format string, out io.Writer) error {
	client, err := pokeapi.New(a.cfg.ClientConfig())
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctrl, err := client.ListController(ctx, a.cfg.List.Limit, a.cfg.List.Offset)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	state, err := ctrl.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for list: %w", err)
	}
	if state.Err != nil {
		log.Error().Err(state.Err).Str("url", ctrl.URL()).Msg("List fetch failed")
		return fmt.Errorf("fetch list: %w", state.Err)
	}

	loader := pokeapi.NewBatchLoader(client, a.cfg.BatchLoaderConfig())
	results, err := loader.LoadCards(ctx, state.Data.Names())
	if err != nil {
		return err
	}

	cards := make([]cardOutput, len(results))
	failed := 0
	for i, r := range results {
		cards[i] = toCardOutput(r)
		if r.Err != nil {
			failed++
		}
	}

	if err := writeCards(out, format, cards); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d cards failed", failed, len(cards))
	}
	return nil
}

func toCardOutput(r pokeapi.CardResult) cardOutput {
	if r.Err != nil {
		return cardOutput{Name: r.Name, Error: r.Err.Error()}
	}
	if r.Species == nil {
		return cardOutput{Name: r.Name}
	}

	sp := r.Species
	return cardOutput{
		Name:        r.Name,
		ID:          sp.ID,
		DisplayName: sp.DisplayName(pokeapi.DefaultLanguage),
		Genus:       sp.GenusText(pokeapi.DefaultLanguage),
		Color:       sp.Color.Name,
		Habitat:     sp.HabitatName(),
		Rarity:      sp.Rarity(),
		FlavorText:  sp.FlavorTextFor(pokeapi.DefaultLanguage),
	}
}

func writeCards(out io.Writer, format string, cards []cardOutput) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cards); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil

	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cards); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()

	default:
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, c := range cards {
			if c.Error != "" {
				fmt.Fprintf(tw, "-\t%s\tsomething went wrong (%s)\n", c.Name, c.Error)
				continue
			}
			line := fmt.Sprintf("#%03d\t%s\t%s\t%s", c.ID, c.DisplayName, c.Genus, c.Habitat)
			if c.Rarity != "" {
				line += "\t" + c.Rarity
			}
			fmt.Fprintln(tw, line)
		}
		return tw.Flush()
	}
}
