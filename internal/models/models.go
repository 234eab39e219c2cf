// package models defines the data model for the match logger
package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// hotkeyAlphabet is keyboard order, used to synthesize shortcuts for legacy flag values.
// B is left out since the wizard saves on it by default.
const hotkeyAlphabet = "QWERTYUIOPASDFGHJKLZXCVNM"

// HotkeyFromIndex returns the synthesized hotkey for the i-th value of a flag: Q, W, E, R, ...
//
// Indices past the alphabet wrap around.
func HotkeyFromIndex(i int) string {
	if i < 0 {
		i = -i
	}
	return string(hotkeyAlphabet[i%len(hotkeyAlphabet)])
}

// NormalizeKey uppercases a single-character key for case-insensitive hotkey matching.
func NormalizeKey(k string) string {
	return strings.ToUpper(strings.TrimSpace(k))
}

// FlagValue is one answer option of a [Flag].
type FlagValue struct {
	Value  string `json:"value"`
	Hotkey string `json:"hotkey"`
}

// Flag is a follow-up question attached to one or more labels.
type Flag struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	OrderPriority int         `json:"orderPriority"`
	Values        []FlagValue `json:"values"`
}

// Usable reports whether the flag can be asked.
func (f Flag) Usable() bool {
	return len(f.Values) > 0
}

// ValueByHotkey returns the value bound to key, compared case-insensitively.
func (f Flag) ValueByHotkey(key string) (FlagValue, bool) {
	key = NormalizeKey(key)
	for _, v := range f.Values {
		if NormalizeKey(v.Hotkey) == key {
			return v, true
		}
	}
	return FlagValue{}, false
}

// Validate enforces authoring-time rules: a name, non-empty values, single-character hotkeys unique within the flag.
func (f Flag) Validate() error {
	if f.ID == "" || f.Name == "" {
		return fmt.Errorf("flag id and name are required")
	}
	if len(f.Values) == 0 {
		return fmt.Errorf("flag %s has no values", f.ID)
	}

	seen := make(map[string]string, len(f.Values))
	for _, v := range f.Values {
		if v.Value == "" {
			return fmt.Errorf("flag %s has an empty value", f.ID)
		}
		key := NormalizeKey(v.Hotkey)
		if len([]rune(key)) != 1 {
			return fmt.Errorf("flag %s value %q: hotkey must be a single character", f.ID, v.Value)
		}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("flag %s: hotkey %s used by both %q and %q", f.ID, key, other, v.Value)
		}
		seen[key] = v.Value
	}
	return nil
}

// FlagCondition hides FlagsToHideIDs once the flag FlagID has been answered with Value.
type FlagCondition struct {
	FlagID         string   `json:"flagId"`
	Value          string   `json:"value"`
	FlagsToHideIDs []string `json:"flagsToHideIds"`
}

// Matches reports whether the condition fires for the given answers.
func (c FlagCondition) Matches(answers map[string]string) bool {
	v, ok := answers[c.FlagID]
	return ok && v == c.Value
}

// EventLabel is a selectable soccer action with its flags fully attached.
type EventLabel struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Hotkey         string          `json:"hotkey"`
	Description    string          `json:"description,omitempty"`
	Flags          []Flag          `json:"flags"`
	FlagConditions []FlagCondition `json:"flagConditions"`

	// nil means the row predates these columns; eligibility then falls back to the built-in event id sets.
	RequiresPressure *bool `json:"requiresPressure,omitempty"`
	RequiresBodyPart *bool `json:"requiresBodyPart,omitempty"`
}

// FlagIDs returns the ids of the attached flags in ask order.
func (l EventLabel) FlagIDs() []string {
	ids := make([]string, len(l.Flags))
	for i, f := range l.Flags {
		ids[i] = f.ID
	}
	return ids
}

// HasFlag reports whether id is attached to the label.
func (l EventLabel) HasFlag(id string) bool {
	for _, f := range l.Flags {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Validate enforces authoring-time rules on a label and its conditions.
func (l EventLabel) Validate() error {
	if l.ID == "" || l.Name == "" {
		return fmt.Errorf("label id and name are required")
	}
	if l.Hotkey != "" && len([]rune(l.Hotkey)) != 1 {
		return fmt.Errorf("label %s: hotkey must be a single character", l.ID)
	}
	for _, c := range l.FlagConditions {
		if !l.HasFlag(c.FlagID) {
			return fmt.Errorf("label %s: condition references unattached flag %q", l.ID, c.FlagID)
		}
		for _, id := range c.FlagsToHideIDs {
			if !l.HasFlag(id) {
				return fmt.Errorf("label %s: condition hides unattached flag %q", l.ID, id)
			}
		}
	}
	return nil
}

// RawLabel is a label row as stored: flag ids and conditions are unparsed JSON that may hold legacy shapes.
type RawLabel struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	Hotkey           string          `json:"hotkey"`
	Description      string          `json:"description"`
	Flags            json.RawMessage `json:"flags"`
	FlagConditions   json.RawMessage `json:"flag_conditions"`
	RequiresPressure *bool           `json:"requires_pressure"`
	RequiresBodyPart *bool           `json:"requires_body_part"`
}

// RawFlag is a flag row as stored: values are unparsed JSON that may hold legacy shapes.
type RawFlag struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	OrderPriority int             `json:"order_priority"`
	Values        json.RawMessage `json:"values"`
}

// ToRaw converts a normalized flag back into its stored row form.
func (f Flag) ToRaw() (RawFlag, error) {
	values := f.Values
	if values == nil {
		values = []FlagValue{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return RawFlag{}, fmt.Errorf("failed to encode flag values: %w", err)
	}
	return RawFlag{
		ID:            f.ID,
		Name:          f.Name,
		Description:   f.Description,
		OrderPriority: f.OrderPriority,
		Values:        data,
	}, nil
}

// ToRaw converts a normalized label back into its stored row form, storing flags by id.
func (l EventLabel) ToRaw() (RawLabel, error) {
	flags, err := json.Marshal(l.FlagIDs())
	if err != nil {
		return RawLabel{}, fmt.Errorf("failed to encode label flags: %w", err)
	}
	conds := l.FlagConditions
	if conds == nil {
		conds = []FlagCondition{}
	}
	condData, err := json.Marshal(conds)
	if err != nil {
		return RawLabel{}, fmt.Errorf("failed to encode flag conditions: %w", err)
	}
	return RawLabel{
		ID:               l.ID,
		Name:             l.Name,
		Category:         l.Category,
		Hotkey:           l.Hotkey,
		Description:      l.Description,
		Flags:            flags,
		FlagConditions:   condData,
		RequiresPressure: l.RequiresPressure,
		RequiresBodyPart: l.RequiresBodyPart,
	}, nil
}

// Option is a fixed pressure or body-part answer.
type Option struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hotkey string `json:"hotkey"`
}

// Player is a rostered player.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number"`
	Team   string `json:"team"`
}

// String renders "#9 Name".
func (p Player) String() string {
	if p.Number > 0 {
		return fmt.Sprintf("#%d %s", p.Number, p.Name)
	}
	return p.Name
}

// Pitch zone grid dimensions.
const (
	PitchCols = 6
	PitchRows = 3
)

// Location is a pitch zone: columns run goal to goal, rows run touchline to touchline.
type Location struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// String renders the zone as a column letter and row number, e.g. "C2".
func (l Location) String() string {
	return fmt.Sprintf("%c%d", 'A'+rune(l.Col), l.Row+1)
}

// ParseLocation parses a zone produced by [Location.String].
func ParseLocation(s string) (Location, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return Location{}, fmt.Errorf("invalid location %q", s)
	}
	loc := Location{Col: int(s[0] - 'A'), Row: int(s[1] - '1')}
	if loc.Col < 0 || loc.Col >= PitchCols || loc.Row < 0 || loc.Row >= PitchRows {
		return Location{}, fmt.Errorf("location %q outside the %dx%d pitch grid", s, PitchCols, PitchRows)
	}
	return loc, nil
}

// GameEvent is one appended entry of the match log.
type GameEvent struct {
	ID                string         `json:"id"`
	Sequence          int            `json:"sequence"`
	GameTime          string         `json:"gameTime"`
	VideoTime         float64        `json:"videoTime"`
	Player            Player         `json:"player"`
	Team              string         `json:"team"`
	Location          string         `json:"location"`
	EventName         string         `json:"eventName"`
	EventDetails      string         `json:"eventDetails"`
	Category          string         `json:"category"`
	AdditionalDetails map[string]any `json:"additionalDetails"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// Validate checks the fields every logged event must carry.
func (e GameEvent) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("event id is required")
	case e.Player.ID == "":
		return fmt.Errorf("event player is required")
	case e.Team == "":
		return fmt.Errorf("event team is required")
	case e.EventDetails == "":
		return fmt.Errorf("event details are required")
	}
	return nil
}

// Repository defines the CRUD surface of a persisted collection keyed by string id.
type Repository[T any] interface {
	Get(ctx context.Context, id string) (T, error)                  // Get retrieves a row by id
	Delete(ctx context.Context, id string) error                    // Delete removes a row by id
	List(ctx context.Context, criteria map[string]any) ([]T, error) // List retrieves all rows matching the criteria
}
