package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTaxonomyReloaded MsgKind = iota
	MsgEventsFetched
	MsgEventRemoved
	MsgTick
)

type reloadResult struct {
	snap *taxonomy.Snapshot
	err  error
}

type eventsResult struct {
	events []models.GameEvent
	err    error
}

// taxonomyReloadedMsg is the constructor for [MsgTaxonomyReloaded]
func taxonomyReloadedMsg(snap *taxonomy.Snapshot, err error) Msg {
	return Msg{kind: MsgTaxonomyReloaded, data: reloadResult{snap, err}}
}

// eventsFetchedMsg is the constructor for [MsgEventsFetched]
func eventsFetchedMsg(events []models.GameEvent, err error) Msg {
	return Msg{kind: MsgEventsFetched, data: eventsResult{events, err}}
}

// eventRemovedMsg is the constructor for [MsgEventRemoved]
func eventRemovedMsg(id string, err error) Msg {
	return Msg{
		kind: MsgEventRemoved,
		data: struct {
			id  string
			err error
		}{id, err},
	}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}
