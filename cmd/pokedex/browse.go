package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/pokedex/internal/tui"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

func newBrowseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse Pokémon cards interactively",
		Long: `Open the interactive browser. Logs go to log.file when set and are
discarded otherwise, so they do not draw over the screen.

Keys: ↑/k ↓/j select, r refetch list, c refetch selected card, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := a.setupLogging(io.Discard)
			if err != nil {
				return err
			}
			defer closeLog()

			stopMetrics, err := a.startMetrics(cmd.Context())
			if err != nil {
				return err
			}
			defer stopMetrics()

			client, err := pokeapi.New(a.cfg.ClientConfig())
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}

			m, err := tui.New(cmd.Context(), client, tui.Options{
				Limit:  a.cfg.List.Limit,
				Offset: a.cfg.List.Offset,
			})
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), m)
		},
	}
}
