package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/session"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
	"github.com/desertthunder/pitchlog/internal/wizard"
)

// recentEvents is how many log entries the events panel shows.
const recentEvents = 10

// focus is the panel receiving keys.
type focus int

const (
	focusRoster focus = iota
	focusPitch
	focusWizard
	focusEvents
	focusCount
)

func (f focus) String() string {
	switch f {
	case focusRoster:
		return "Roster"
	case focusPitch:
		return "Pitch"
	case focusWizard:
		return "Event"
	case focusEvents:
		return "Recent"
	default:
		return ""
	}
}

// Deps are the collaborators the TUI drives.
type Deps struct {
	Snapshot *taxonomy.Snapshot
	Session  *session.Session
	Rules    wizard.Rules
	Roster   []models.Player
	Observer wizard.Observer

	SaveKeys   []string // default enter and b
	CancelKeys []string // default esc

	Logger *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	session *session.Session
	wizard  *wizard.Controller
	logger  *log.Logger
	reloads chan reloadResult

	focus  focus
	roster list.Model
	pitch  models.Location
	events []models.GameEvent
	cursor int

	status  string
	warning string
	width   int
	height  int
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	m := &Model{
		ctx:     ctx,
		session: deps.Session,
		logger:  logger,
		reloads: make(chan reloadResult, 4),
		focus:   focusRoster,
		help:    help.New(),
		keys:    newKeyMap(deps.SaveKeys, deps.CancelKeys),
	}

	m.wizard = wizard.NewController(deps.Snapshot, deps.Session, deps.Rules,
		wizard.WithLogger(logger),
		wizard.WithObserver(deps.Observer),
		wizard.WithNotifier(func(msg string) { m.warning = msg }),
	)

	m.roster = list.New(rosterItems(deps.Roster), list.NewDefaultDelegate(), 0, 0)
	m.roster.Title = "Roster"
	m.roster.SetShowHelp(false)
	m.roster.SetFilteringEnabled(false)
	m.roster.SetShowStatusBar(false)
	return m
}

// OnReload forwards a taxonomy load result to the program; it has the shape of [taxonomy.ReloadFunc].
//
// Results arriving faster than the UI consumes them are dropped, the next one carries the latest snapshot anyway.
func (m *Model) OnReload(snap *taxonomy.Snapshot, err error) {
	select {
	case m.reloads <- reloadResult{snap: snap, err: err}:
	default:
		m.logger.Debug("dropping taxonomy reload notification, UI is behind")
	}
}

// Wizard exposes the controller driving the event panel.
func (m *Model) Wizard() *wizard.Controller {
	return m.wizard
}

// Init starts the clock and listens for taxonomy reloads.
func (m *Model) Init() tea.Cmd {
	if m.wizard.Snapshot().Empty() {
		m.warning = "taxonomy not loaded, events cannot be chosen"
	}
	return tea.Batch(m.fetchEvents(), m.waitForReload(), tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.roster.SetSize(max(msg.Width/4, 20), max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case Msg:
		return m.handleMsg(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTaxonomyReloaded:
		r := msg.data.(reloadResult)
		if r.err != nil {
			m.warning = fmt.Sprintf("taxonomy reload failed, keeping previous: %v", r.err)
		} else if r.snap != nil {
			m.warning = ""
			m.wizard.SetSnapshot(r.snap)
			m.status = fmt.Sprintf("taxonomy reloaded: %d events", len(r.snap.Labels))
		}
		return m, m.waitForReload()

	case MsgEventsFetched:
		r := msg.data.(eventsResult)
		if r.err != nil {
			m.warning = fmt.Sprintf("failed to load events: %v", r.err)
			return m, nil
		}
		m.events = r.events
		m.cursor = min(m.cursor, max(len(m.events)-1, 0))
		return m, nil

	case MsgEventRemoved:
		r := msg.data.(struct {
			id  string
			err error
		})
		if r.err != nil {
			m.warning = fmt.Sprintf("failed to remove event: %v", r.err)
			return m, nil
		}
		m.status = "removed event " + r.id
		return m, m.fetchEvents()

	case MsgTick:
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case msg.String() == "tab":
		m.focus = (m.focus + 1) % focusCount
		return m, nil
	case msg.String() == "shift+tab":
		m.focus = (m.focus + focusCount - 1) % focusCount
		return m, nil
	case key.Matches(msg, m.keys.clock):
		m.toggleClock()
		return m, nil
	}

	switch m.focus {
	case focusRoster:
		return m.handleRosterKeys(msg)
	case focusPitch:
		return m.handlePitchKeys(msg)
	case focusEvents:
		return m.handleEventsKeys(msg)
	default:
		return m.handleWizardKeys(msg)
	}
}

func (m *Model) handleRosterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) {
		if item, ok := m.roster.SelectedItem().(playerItem); ok {
			m.session.SelectPlayer(item.player)
			m.status = "player " + item.player.String()
			m.focus = focusPitch
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.roster, cmd = m.roster.Update(msg)
	return m, cmd
}

func (m *Model) handlePitchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.up):
		m.pitch.Row = max(m.pitch.Row-1, 0)
	case key.Matches(msg, m.keys.down):
		m.pitch.Row = min(m.pitch.Row+1, models.PitchRows-1)
	case key.Matches(msg, m.keys.left):
		m.pitch.Col = max(m.pitch.Col-1, 0)
	case key.Matches(msg, m.keys.right):
		m.pitch.Col = min(m.pitch.Col+1, models.PitchCols-1)
	case key.Matches(msg, m.keys.enter):
		m.session.SelectLocation(m.pitch)
		m.status = "location " + m.pitch.String()
		m.focus = focusWizard
	}
	return m, nil
}

func (m *Model) handleWizardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.wizard.Back()
		return m, nil
	case key.Matches(msg, m.keys.cancel):
		m.wizard.Cancel()
		m.status = "event cancelled"
		m.warning = ""
		return m, nil
	case key.Matches(msg, m.keys.save):
		return m, m.save()
	}

	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return m, nil
	}
	m.warning = ""
	if ch, ok := m.wizard.HandleKey(string(msg.Runes)); ok {
		m.status = ch.Label
	}
	return m, nil
}

func (m *Model) handleEventsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.cursor = min(m.cursor+1, max(len(m.events)-1, 0))
	case key.Matches(msg, m.keys.remove):
		if m.cursor < len(m.events) {
			return m, m.removeEvent(m.events[m.cursor].ID)
		}
	}
	return m, nil
}

// save appends the wizard's event; a rejected save names the missing selection and moves focus to its panel.
func (m *Model) save() tea.Cmd {
	saved, err := m.wizard.Save(m.ctx)
	if err != nil {
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			m.warning = fmt.Sprintf("cannot save: %v", verr)
			switch verr.Field {
			case session.FieldPlayer, session.FieldTeam:
				m.focus = focusRoster
			case session.FieldLocation:
				m.focus = focusPitch
			}
			return nil
		}
		m.warning = fmt.Sprintf("save failed: %v", err)
		return nil
	}

	m.warning = ""
	m.status = fmt.Sprintf("saved #%d %s", saved.Sequence, saved.EventDetails)
	m.focus = focusRoster
	return m.fetchEvents()
}

func (m *Model) toggleClock() {
	if sw, ok := m.session.Clock.(interface{ Toggle() }); ok {
		sw.Toggle()
	}
}

func (m *Model) fetchEvents() tea.Cmd {
	eventLog := m.session.Log
	ctx := m.ctx
	return func() tea.Msg {
		if eventLog == nil {
			return eventsFetchedMsg(nil, nil)
		}
		events, err := eventLog.Events(ctx, map[string]any{"limit": recentEvents})
		return eventsFetchedMsg(events, err)
	}
}

func (m *Model) removeEvent(id string) tea.Cmd {
	eventLog := m.session.Log
	ctx := m.ctx
	return func() tea.Msg {
		return eventRemovedMsg(id, eventLog.Remove(ctx, id))
	}
}

func (m *Model) waitForReload() tea.Cmd {
	reloads := m.reloads
	return func() tea.Msg {
		r := <-reloads
		return taxonomyReloadedMsg(r.snap, r.err)
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// View renders the panels, the status line, and contextual help.
func (m *Model) View() string {
	left := m.panel(focusRoster, m.roster.View())
	middle := lipgloss.JoinVertical(lipgloss.Left,
		m.panel(focusPitch, m.renderPitch()),
		m.panel(focusWizard, m.renderWizard()),
	)
	right := m.panel(focusEvents, m.renderEvents())

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, middle, right)
	helpView := m.help.ShortHelpView(m.keys.helpFor(m.focus))
	return fmt.Sprintf("%s\n%s\n%s", body, m.renderStatus(), helpView)
}

func (m *Model) panel(f focus, content string) string {
	style := styles.panel
	if m.focus == f {
		style = styles.focused
	}
	return style.Render(styles.title.Render(f.String()) + "\n" + content)
}

func (m *Model) renderPitch() string {
	var b strings.Builder
	selected := m.session.SelectedLocation
	for row := range models.PitchRows {
		for col := range models.PitchCols {
			loc := models.Location{Col: col, Row: row}
			cell := fmt.Sprintf(" %s ", loc)
			switch {
			case m.focus == focusPitch && loc == m.pitch:
				cell = styles.cursor.Render(cell)
			case selected != nil && *selected == loc:
				cell = styles.selected.Render(cell)
			default:
				cell = styles.zone.Render(cell)
			}
			b.WriteString(cell)
		}
		if row < models.PitchRows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) renderWizard() string {
	sel := m.wizard.Selection()

	var header string
	switch sel.Step {
	case wizard.StepFlag:
		if flag, ok := sel.CurrentFlag(); ok {
			header = fmt.Sprintf("%s (%d/%d)", flag.Name, sel.CurrentFlagIndex+1, len(sel.VisibleFlags))
		}
	case wizard.StepPressure:
		header = "Pressure"
	case wizard.StepBodyPart:
		header = "Body part"
	default:
		header = "Category / event"
		if sel.Category != "" {
			header = sel.Category
		}
	}

	lines := []string{styles.help.Render(header)}
	for _, ch := range m.wizard.Choices() {
		hotkey := " "
		if ch.Hotkey != "" {
			hotkey = ch.Hotkey
		}
		label := ch.Label
		if ch.Selected {
			label = styles.selected.Render(label)
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", styles.hotkey.Render(hotkey), label))
	}

	if details := m.wizard.Draft().Details(); details != "" {
		lines = append(lines, "", styles.ok.Render(details))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderEvents() string {
	if len(m.events) == 0 {
		return styles.help.Render("no events logged yet")
	}

	lines := make([]string, len(m.events))
	for i, e := range m.events {
		line := eventLine(e)
		if m.focus == focusEvents && i == m.cursor {
			line = styles.cursor.Render(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderStatus() string {
	parts := []string{session.FormatGameTime(m.session.VideoTime())}
	if p := m.session.SelectedPlayer; p != nil {
		parts = append(parts, fmt.Sprintf("%s (%s)", p, m.session.SelectedTeam))
	}
	if loc := m.session.SelectedLocation; loc != nil {
		parts = append(parts, loc.String())
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}

	line := strings.Join(parts, " • ")
	if m.warning != "" {
		line += "  " + styles.warn.Render(m.warning)
	}
	return line
}
