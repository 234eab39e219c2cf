// Package ui implements the match logging terminal interface using bubbletea's Elm architecture.
//
// The screen is split into panels that take focus in turn with tab:
//  1. roster : pick the player, which also picks the team
//  2. pitch : pick the zone on the 6x3 grid
//  3. wizard : choose category, event, pressure, body part, and flag values by hotkey
//  4. events : the most recent entries of the match log
//
// In the wizard panel letters dispatch hotkeys, backspace steps back, enter or b saves, and esc cancels.
// Taxonomy reloads arrive on a channel fed by [taxonomy.Store.OnReload]; a failed reload keeps the previous snapshot
// and shows a warning on the status line.
package ui
