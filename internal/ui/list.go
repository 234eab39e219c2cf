package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/pitchlog/internal/models"
)

var (
	_ list.Item = playerItem{}
)

// playerItem wraps [models.Player] to implement [list.Item].
type playerItem struct {
	player models.Player
}

func (i playerItem) FilterValue() string { return i.player.Name }
func (i playerItem) Title() string       { return i.player.String() }
func (i playerItem) Description() string { return i.player.Team }

// rosterItems builds the roster list in the order the teams and players are given.
func rosterItems(players []models.Player) []list.Item {
	items := make([]list.Item, len(players))
	for i, p := range players {
		items[i] = playerItem{player: p}
	}
	return items
}

// eventLine renders one logged event for the recent events panel.
func eventLine(e models.GameEvent) string {
	line := fmt.Sprintf("%3d %s %-4s %s", e.Sequence, e.GameTime, e.Team, e.Player.String())
	if e.Location != "" {
		line += " @" + e.Location
	}
	return line + "  " + e.EventDetails
}
