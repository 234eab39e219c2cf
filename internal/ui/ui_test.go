package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/session"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
	tu "github.com/desertthunder/pitchlog/internal/testing"
	"github.com/desertthunder/pitchlog/internal/wizard"
)

var awayPlayer = models.Player{ID: "away-4", Name: "Away Defender", Number: 4, Team: "Away"}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	logger := shared.NewLogger(io.Discard)
	sess := session.New(session.FixedClock(75*time.Second), session.NewEventLog(nil, logger))

	m := NewModel(context.Background(), Deps{
		Snapshot: taxonomy.Normalize(tu.SampleLabels(), tu.SampleFlags()),
		Session:  sess,
		Rules:    wizard.DefaultRules(),
		Roster:   []models.Player{tu.SamplePlayer(), awayPlayer},
		Logger:   logger,
	})
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	return m
}

func press(m *Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func runes(s string) []tea.KeyMsg {
	keys := make([]tea.KeyMsg, 0, len(s))
	for _, r := range s {
		keys = append(keys, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return keys
}

var (
	enter     = tea.KeyMsg{Type: tea.KeyEnter}
	tab       = tea.KeyMsg{Type: tea.KeyTab}
	esc       = tea.KeyMsg{Type: tea.KeyEsc}
	backspace = tea.KeyMsg{Type: tea.KeyBackspace}
	right     = tea.KeyMsg{Type: tea.KeyRight}
	down      = tea.KeyMsg{Type: tea.KeyDown}
)

// deliver runs cmd and feeds its message back into the model.
func deliver(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

func TestLogEvent(t *testing.T) {
	m := newTestModel(t)

	press(m, enter)
	if m.session.SelectedPlayer == nil || m.session.SelectedTeam != "Home" {
		t.Fatalf("expected home player selected, got %+v", m.session.SelectedPlayer)
	}
	if m.focus != focusPitch {
		t.Fatalf("expected focus to move to pitch, got %s", m.focus)
	}

	press(m, right, down, enter)
	if loc := m.session.SelectedLocation; loc == nil || loc.String() != "B2" {
		t.Fatalf("expected location B2, got %v", loc)
	}
	if m.focus != focusWizard {
		t.Fatalf("expected focus to move to wizard, got %s", m.focus)
	}

	press(m, runes("rqq")...)
	if got := m.wizard.Draft().Details(); got != "Reception (Pressure) - Left Foot" {
		t.Fatalf("Details() = %q", got)
	}

	deliver(t, m, press(m, enter))

	events, _ := m.session.Log.Events(context.Background(), nil)
	if len(events) != 1 {
		t.Fatalf("expected 1 logged event, got %d", len(events))
	}
	if events[0].EventDetails != "Reception (Pressure) - Left Foot" || events[0].Location != "B2" {
		t.Errorf("unexpected event %+v", events[0])
	}
	if len(m.events) != 1 {
		t.Errorf("expected recent events panel to show 1 event, got %d", len(m.events))
	}
	if m.session.SelectedPlayer != nil || m.wizard.Selection().HasEvent() {
		t.Error("expected selections cleared after save")
	}
	if m.focus != focusRoster {
		t.Errorf("expected focus back on roster, got %s", m.focus)
	}
}

func TestWizardKeys(t *testing.T) {
	t.Run("SaveWithoutPlayer", func(t *testing.T) {
		m := newTestModel(t)
		press(m, tab, tab)
		press(m, runes("r")...)

		if cmd := press(m, runes("b")...); cmd != nil {
			t.Error("rejected save should not fetch events")
		}
		if !strings.Contains(m.warning, "player") || m.focus != focusRoster {
			t.Errorf("expected player warning and roster focus, got %q on %s", m.warning, m.focus)
		}
		if !m.wizard.Selection().HasEvent() {
			t.Error("rejected save should keep the selection")
		}
	})

	t.Run("Back", func(t *testing.T) {
		m := newTestModel(t)
		press(m, tab, tab)
		press(m, runes("r")...)
		if m.wizard.Step() != wizard.StepPressure {
			t.Fatalf("expected pressure step, got %s", m.wizard.Step())
		}

		press(m, backspace)
		if m.wizard.Selection().HasEvent() {
			t.Error("expected back from pressure to clear the event")
		}
	})

	t.Run("Cancel", func(t *testing.T) {
		m := newTestModel(t)
		press(m, enter, enter)
		press(m, runes("r")...)

		press(m, esc)
		if m.session.SelectedPlayer != nil || m.session.SelectedLocation != nil || m.wizard.Selection().HasEvent() {
			t.Error("expected cancel to clear player, location, and event")
		}
	})

	t.Run("CustomSaveKeys", func(t *testing.T) {
		m := newTestModel(t)
		m.keys = newKeyMap([]string{"ctrl+s"}, nil)
		press(m, tab, tab)

		press(m, runes("b")...)
		if m.warning != "" {
			t.Errorf("b should not save when save keys are overridden, got warning %q", m.warning)
		}
	})
}

func TestReloads(t *testing.T) {
	t.Run("FailureKeepsSnapshot", func(t *testing.T) {
		m := newTestModel(t)
		before := m.wizard.Snapshot()

		m.OnReload(before, errors.Join(shared.ErrDataFetch, shared.ErrServiceUnavailable))
		deliver(t, m, m.waitForReload())

		if m.wizard.Snapshot() != before {
			t.Error("expected stale snapshot kept")
		}
		if !strings.Contains(m.warning, "keeping previous") {
			t.Errorf("expected reload warning, got %q", m.warning)
		}
	})

	t.Run("RemovedEventCleared", func(t *testing.T) {
		m := newTestModel(t)
		press(m, tab, tab)
		press(m, runes("r")...)

		labels := tu.SampleLabels()
		var kept []models.RawLabel
		for _, l := range labels {
			if l.ID != "reception" {
				kept = append(kept, l)
			}
		}
		m.OnReload(taxonomy.Normalize(kept, tu.SampleFlags()), nil)
		deliver(t, m, m.waitForReload())

		if m.wizard.Selection().HasEvent() {
			t.Error("expected removed event cleared")
		}
		if !strings.Contains(m.warning, "removed") {
			t.Errorf("expected removal warning, got %q", m.warning)
		}
	})

	t.Run("NonBlocking", func(t *testing.T) {
		m := newTestModel(t)
		for range 10 {
			m.OnReload(nil, shared.ErrDataFetch)
		}
	})
}

func TestRecentEvents(t *testing.T) {
	m := newTestModel(t)
	ctx := context.Background()
	for _, id := range []string{"e1", "e2"} {
		if _, err := m.session.Log.Append(ctx, models.GameEvent{
			ID: id, Player: awayPlayer, Team: "Away", EventName: "Tackle", EventDetails: "Tackle",
		}); err != nil {
			t.Fatalf("failed to seed event: %v", err)
		}
	}
	deliver(t, m, m.fetchEvents())

	press(m, tab, tab, tab)
	press(m, down)
	deliver(t, m, press(m, runes("x")...))

	events, _ := m.session.Log.Events(ctx, nil)
	if len(events) != 1 || events[0].ID != "e1" {
		t.Fatalf("expected e2 removed, got %v", events)
	}
	if m.status != "removed event e2" {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	press(m, enter, right, enter)

	view := m.View()
	for _, want := range []string{"Roster", "Pitch", "Event", "Recent", "B1", "F3", "Attacking", "01:15"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}
