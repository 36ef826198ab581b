// Package tui is the interactive pokedex browser. Every view is bound to its
// own fetch controller; each Update is one activation cycle for all of them.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex/pkg/fetch"
	"github.com/Sternrassler/pokedex/pkg/logging"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

// Source creates the controllers the browser binds to. *pokeapi.Client implements it.
type Source interface {
	ListController(ctx context.Context, limit, offset int) (*fetch.Controller[pokeapi.ResourceList], error)
	SpeciesController(ctx context.Context, name string) (*fetch.Controller[pokeapi.PokemonSpecies], error)
}

// Options configures the browser.
type Options struct {
	Limit    int
	Offset   int
	Language string
}

type listUpdatedMsg struct {
	ctrl *fetch.Controller[pokeapi.ResourceList]
}

type cardUpdatedMsg struct {
	ctrl *fetch.Controller[pokeapi.PokemonSpecies]
}

type card struct {
	name  string
	ctrl  *fetch.Controller[pokeapi.PokemonSpecies]
	state fetch.State[pokeapi.PokemonSpecies]
	err   error // controller could not be created
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx    context.Context
	source Source
	opts   Options
	logger zerolog.Logger
	keys   keyMap

	list      *fetch.Controller[pokeapi.ResourceList]
	listState fetch.State[pokeapi.ResourceList]
	listData  *pokeapi.ResourceList // data the cards were reconciled against

	cards  []*card
	cursor int
	width  int
	closed bool
}

// New creates the model and starts the list request.
func New(ctx context.Context, source Source, opts Options) (*Model, error) {
	list, err := source.ListController(ctx, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("create list controller: %w", err)
	}

	return &Model{
		ctx:       ctx,
		source:    source,
		opts:      opts,
		logger:    logging.NewLogger("tui"),
		keys:      newKeyMap(),
		list:      list,
		listState: list.State(),
	}, nil
}

// SetLogger replaces the model logger.
func (m *Model) SetLogger(logger zerolog.Logger) {
	m.logger = logger
}

func (m *Model) Init() tea.Cmd {
	return watchList(m.list)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.closed {
		return m, nil
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.cards)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Refetch):
			m.logger.Debug().Msg("Refetching list")
			m.list.Refetch()
		case key.Matches(msg, m.keys.RefetchCard):
			if c := m.selected(); c != nil && c.ctrl != nil {
				m.logger.Debug().Str("name", c.name).Msg("Refetching card")
				c.ctrl.Refetch()
			}
		}

	case listUpdatedMsg:
		if msg.ctrl != m.list {
			break
		}
		cmds = append(cmds, watchList(m.list))
		m.listState = m.list.State()
		if data := m.listState.Data; data != nil && data != m.listData {
			cmds = append(cmds, m.reconcileCards(data)...)
		}

	case cardUpdatedMsg:
		for _, c := range m.cards {
			if c.ctrl == msg.ctrl {
				cmds = append(cmds, watchCard(c.ctrl))
				c.state = c.ctrl.State()
				break
			}
		}
	}

	m.activate()
	return m, tea.Batch(cmds...)
}

// activate runs the activation cycle: pending refetches are issued here.
func (m *Model) activate() {
	m.list.Activate()
	for _, c := range m.cards {
		if c.ctrl != nil {
			c.ctrl.Activate()
		}
	}
}

// reconcileCards keeps the cards whose names are still listed, closes the
// rest and creates controllers for new names, preserving list order.
func (m *Model) reconcileCards(data *pokeapi.ResourceList) []tea.Cmd {
	m.listData = data

	existing := make(map[string]*card, len(m.cards))
	for _, c := range m.cards {
		existing[c.name] = c
	}

	var cmds []tea.Cmd
	cards := make([]*card, 0, len(data.Results))
	for _, r := range data.Results {
		if c, ok := existing[r.Name]; ok {
			delete(existing, r.Name)
			cards = append(cards, c)
			continue
		}

		c := &card{name: r.Name}
		ctrl, err := m.source.SpeciesController(m.ctx, r.Name)
		if err != nil {
			m.logger.Warn().Err(err).Str("name", r.Name).Msg("Cannot create card controller")
			c.err = err
		} else {
			c.ctrl = ctrl
			c.state = ctrl.State()
			cmds = append(cmds, watchCard(ctrl))
		}
		cards = append(cards, c)
	}

	for _, c := range existing {
		if c.ctrl != nil {
			c.ctrl.Close()
		}
	}

	m.cards = cards
	if m.cursor >= len(m.cards) {
		m.cursor = max(0, len(m.cards)-1)
	}
	return cmds
}

func (m *Model) selected() *card {
	if m.cursor < 0 || m.cursor >= len(m.cards) {
		return nil
	}
	return m.cards[m.cursor]
}

// Close destroys every controller. It is safe to call more than once.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.list.Close()
	for _, c := range m.cards {
		if c.ctrl != nil {
			c.ctrl.Close()
		}
	}
	m.logger.Debug().Int("cards", len(m.cards)).Msg("Browser closed")
}

// watchList waits for the next list change. The channel is taken now so a
// change between this call and the command running is not missed.
func watchList(ctrl *fetch.Controller[pokeapi.ResourceList]) tea.Cmd {
	ch := ctrl.Updated()
	return func() tea.Msg {
		<-ch
		return listUpdatedMsg{ctrl: ctrl}
	}
}

func watchCard(ctrl *fetch.Controller[pokeapi.PokemonSpecies]) tea.Cmd {
	ch := ctrl.Updated()
	return func() tea.Msg {
		<-ch
		return cardUpdatedMsg{ctrl: ctrl}
	}
}

// Run starts the browser full screen and closes every controller on exit.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) error {
	defer m.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
