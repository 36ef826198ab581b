package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/pokedex/internal/config"
	"github.com/Sternrassler/pokedex/pkg/logging"
	"github.com/Sternrassler/pokedex/pkg/metrics"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries what the persistent pre-run resolved for the subcommands.
type app struct {
	configPath string
	cfg        config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "pokedex",
		Short: "Browse Pokémon species from PokeAPI",
		Long: `pokedex lists Pokémon from PokeAPI and shows a species card for each.

Settings come from defaults, an optional config file, POKEDEX_* environment
variables and flags, in increasing order of precedence. For example
POKEDEX_API_URL points the client at a PokeAPI mirror.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: <user config dir>/pokedex/config.yaml)")
	flags.String("base-url", "", "PokeAPI base URL (env POKEDEX_API_URL)")
	flags.Int("limit", 0, "Number of Pokémon to list")
	flags.Int("offset", 0, "Offset into the Pokémon list")
	flags.String("log-level", "", "Log level: debug, info, warn, error, disabled")
	flags.Bool("log-pretty", false, "Human-readable log output")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newBrowseCommand(a))

	return rootCmd
}

// setupLogging points the global logger at log.file when set, otherwise at
// fallback. The returned func releases the file.
func (a *app) setupLogging(fallback io.Writer) (func(), error) {
	cfg := a.cfg.LoggingConfig()
	cfg.Output = fallback

	closer := func() {}
	if a.cfg.Log.File != "" {
		f, err := logging.OpenFile(a.cfg.Log.File)
		if err != nil {
			return nil, err
		}
		cfg.Output = f
		closer = func() { f.Close() }
	}

	logging.Setup(cfg)
	return closer, nil
}

// startMetrics serves /metrics until ctx ends when metrics.addr is set.
func (a *app) startMetrics(ctx context.Context) (func(), error) {
	if a.cfg.Metrics.Addr == "" {
		return func() {}, nil
	}

	srv, err := metrics.Listen(a.cfg.Metrics.Addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx); err != nil {
			log.Error().Err(err).Msg("Metrics listener failed")
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}
