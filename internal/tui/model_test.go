package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex/internal/testutil"
	"github.com/Sternrassler/pokedex/pkg/fetch"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestModel(t *testing.T, mock *testutil.MockPokeAPI, limit int) *Model {
	t.Helper()

	cfg := pokeapi.DefaultConfig()
	cfg.BaseURL = mock.BaseURL()
	client, err := pokeapi.New(cfg)
	if err != nil {
		t.Fatalf("pokeapi.New: %v", err)
	}
	client.SetLogger(zerolog.Nop())

	m, err := New(context.Background(), client, Options{Limit: limit})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.SetLogger(zerolog.Nop())
	t.Cleanup(m.Close)
	return m
}

func settle[T any](t *testing.T, ctrl *fetch.Controller[T]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := ctrl.Wait(ctx); err != nil {
		t.Fatalf("controller did not settle: %v", err)
	}
}

func apply(t *testing.T, m *Model, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := m.Update(msg)
	if next != m {
		t.Fatalf("Update returned a different model")
	}
	return cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadAll settles the list and every card, delivering the update messages
// the watch commands would produce.
func loadAll(t *testing.T, m *Model) {
	t.Helper()
	settle(t, m.list)
	apply(t, m, listUpdatedMsg{ctrl: m.list})
	for _, c := range m.cards {
		if c.ctrl == nil {
			continue
		}
		settle(t, c.ctrl)
		apply(t, m, cardUpdatedMsg{ctrl: c.ctrl})
	}
}

// ---------------------------------------------------------------------------
// List rendering
// ---------------------------------------------------------------------------

func TestListShowsLoadingFirst(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	gate := make(chan struct{})
	defer close(gate)
	resp := testutil.NewJSONResponse(mock.ListBody("bulbasaur"))
	resp.Gate = gate
	mock.SetResponse("/pokemon", resp)

	m := newTestModel(t, mock, 1)

	if !strings.Contains(m.View(), msgListLoading) {
		t.Errorf("expected %q before the list settles, got:\n%s", msgListLoading, m.View())
	}
}

func TestListRendersCards(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemonList("bulbasaur", "charmander")
	mock.SetSpecies(1, "bulbasaur")
	mock.SetSpecies(4, "charmander")

	m := newTestModel(t, mock, 2)
	loadAll(t, m)

	if len(m.cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(m.cards))
	}
	view := m.View()
	for _, want := range []string{"#001 Bulbasaur", "#004 Charmander", "Seed Pokémon", "grassland"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, msgListLoading) {
		t.Errorf("view still loading:\n%s", view)
	}
}

func TestCardShowsLoadingUntilSettled(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemonList("bulbasaur")
	gate := make(chan struct{})
	defer close(gate)
	resp := testutil.NewJSONResponse(testutil.SpeciesBody(1, "bulbasaur"))
	resp.Gate = gate
	mock.SetResponse("/pokemon-species/bulbasaur", resp)

	m := newTestModel(t, mock, 1)
	settle(t, m.list)
	apply(t, m, listUpdatedMsg{ctrl: m.list})

	view := m.View()
	if !strings.Contains(view, msgCardLoading) || strings.Contains(view, msgListLoading) {
		t.Errorf("expected card loading state, got:\n%s", view)
	}
}

func TestListError(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetResponse("/pokemon", testutil.NewServerErrorResponse())

	m := newTestModel(t, mock, 9)
	settle(t, m.list)
	apply(t, m, listUpdatedMsg{ctrl: m.list})

	if !strings.Contains(m.View(), msgWrong) {
		t.Errorf("expected %q, got:\n%s", msgWrong, m.View())
	}
	if len(m.cards) != 0 {
		t.Errorf("expected no cards, got %d", len(m.cards))
	}
}

func TestListEmpty(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemonList()

	m := newTestModel(t, mock, 9)
	settle(t, m.list)
	apply(t, m, listUpdatedMsg{ctrl: m.list})

	if !strings.Contains(m.View(), msgEmpty) {
		t.Errorf("expected %q, got:\n%s", msgEmpty, m.View())
	}
}

func TestCardError(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemonList("bulbasaur", "missingno")
	mock.SetSpecies(1, "bulbasaur")

	m := newTestModel(t, mock, 2)
	loadAll(t, m)

	view := m.View()
	if !strings.Contains(view, "#001 Bulbasaur") || !strings.Contains(view, msgWrong) {
		t.Errorf("expected one card and one error, got:\n%s", view)
	}
}

// ---------------------------------------------------------------------------
// Keys and activation
// ---------------------------------------------------------------------------

func TestNavigation(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemonList("bulbasaur", "ivysaur", "venusaur")

	m := newTestModel(t, mock, 3)
	settle(t, m.list)
	apply(t, m, listUpdatedMsg{ctrl: m.list})

	steps := []struct {
		msg  tea.KeyMsg
		want int
	}{
		{keyRunes("k"), 0},
		{keyRunes("j"), 1},
		{tea.KeyMsg{Type: tea.KeyDown}, 2},
		{keyRunes("j"), 2},
		{tea.KeyMsg{Type: tea.KeyUp}, 1},
	}
	for i, s := range steps {
		apply(t, m, s.msg)
		if m.cursor != s.want {
			t.Errorf("step %d: cursor = %d, want %d", i, m.cursor, s.want)
		}
	}
}

func TestRefetchListKey(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemonList("bulbasaur")
	mock.SetSpecies(1, "bulbasaur")

	m := newTestModel(t, mock, 1)
	loadAll(t, m)
	first := m.cards[0]

	apply(t, m, keyRunes("r"))

	if !m.list.State().IsLoading {
		t.Fatal("expected list to be reissued within the same update")
	}
	settle(t, m.list)
	apply(t, m, listUpdatedMsg{ctrl: m.list})

	if got := mock.GetPathCount("/pokemon"); got != 2 {
		t.Errorf("list requests = %d, want 2", got)
	}
	if len(m.cards) != 1 || m.cards[0] != first {
		t.Errorf("expected the bulbasaur card to be kept across refetch")
	}
	if first.ctrl.Closed() {
		t.Error("kept card controller must stay open")
	}
}

func TestRefetchCardKey(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemonList("bulbasaur", "charmander")
	mock.SetSpecies(1, "bulbasaur")
	mock.SetSpecies(4, "charmander")

	m := newTestModel(t, mock, 2)
	loadAll(t, m)

	apply(t, m, keyRunes("j"))
	apply(t, m, keyRunes("c"))

	selected := m.cards[1]
	settle(t, selected.ctrl)

	if got := mock.GetPathCount("/pokemon-species/charmander"); got != 2 {
		t.Errorf("charmander requests = %d, want 2", got)
	}
	if got := mock.GetPathCount("/pokemon-species/bulbasaur"); got != 1 {
		t.Errorf("bulbasaur requests = %d, want 1", got)
	}
}

func TestRefetchedListReconcilesCards(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetSequence("/pokemon",
		testutil.NewJSONResponse(mock.ListBody("bulbasaur", "ivysaur")),
		testutil.NewJSONResponse(mock.ListBody("ivysaur", "venusaur")),
	)

	m := newTestModel(t, mock, 2)
	settle(t, m.list)
	apply(t, m, listUpdatedMsg{ctrl: m.list})
	removed, kept := m.cards[0], m.cards[1]

	apply(t, m, keyRunes("r"))
	settle(t, m.list)
	apply(t, m, listUpdatedMsg{ctrl: m.list})

	if len(m.cards) != 2 || m.cards[0] != kept || m.cards[1].name != "venusaur" {
		t.Fatalf("unexpected cards after refetch: %v, %v", m.cards[0].name, m.cards[1].name)
	}
	if !removed.ctrl.Closed() {
		t.Error("card for a name no longer listed must be closed")
	}

	// a late message from the removed card is ignored
	if cmd := apply(t, m, cardUpdatedMsg{ctrl: removed.ctrl}); cmd != nil {
		t.Error("expected no watch command for a removed card")
	}
}

func TestQuitClosesControllers(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemonList("bulbasaur", "charmander")
	mock.SetSpecies(1, "bulbasaur")
	mock.SetSpecies(4, "charmander")

	m := newTestModel(t, mock, 2)
	loadAll(t, m)

	cmd := apply(t, m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	if !m.list.Closed() {
		t.Error("list controller not closed")
	}
	for _, c := range m.cards {
		if !c.ctrl.Closed() {
			t.Errorf("card %s not closed", c.name)
		}
	}

	// updates after quit are ignored
	if cmd := apply(t, m, listUpdatedMsg{ctrl: m.list}); cmd != nil {
		t.Error("expected no command after close")
	}
}

func TestWatchDeliversUpdate(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	gate := make(chan struct{})
	resp := testutil.NewJSONResponse(mock.ListBody("bulbasaur"))
	resp.Gate = gate
	mock.SetResponse("/pokemon", resp)

	m := newTestModel(t, mock, 1)

	cmd := m.Init()
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	close(gate)

	select {
	case msg := <-done:
		if got, ok := msg.(listUpdatedMsg); !ok || got.ctrl != m.list {
			t.Errorf("unexpected message %#v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch command did not fire")
	}
}

func TestHelpLine(t *testing.T) {
	line := newKeyMap().helpLine()
	for _, want := range []string{"↑/k up", "↓/j down", "r refetch list", "c refetch card", "q quit"} {
		if !strings.Contains(line, want) {
			t.Errorf("help line %q missing %q", line, want)
		}
	}
}
