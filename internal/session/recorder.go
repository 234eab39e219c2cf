package session

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
)

// Fields named by a [ValidationError].
const (
	FieldPlayer   = "player"
	FieldTeam     = "team"
	FieldLocation = "location"
	FieldEvent    = "event"
)

// ValidationError reports the selection missing from a save. It matches [shared.ErrValidation].
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == shared.ErrValidation
}

// FlagAnswer is one answered flag, in ask order.
type FlagAnswer struct {
	FlagID string `json:"flagId"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

// Draft is the wizard's finished description of an event.
type Draft struct {
	Category  string
	EventID   string
	EventName string
	Pressure  string
	BodyPart  string
	Flags     []FlagAnswer
}

var (
	uuidPattern    = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	stampedPattern = regexp.MustCompile(`\b[A-Za-z]+_\d{10,}\b`)
)

// Details renders the draft as "Name (Pressure) - Body Part | Flag: Value | ...", with id-looking substrings removed.
func (d Draft) Details() string {
	if d.EventName == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(d.EventName)
	if d.Pressure != "" {
		fmt.Fprintf(&b, " (%s)", d.Pressure)
	}
	if d.BodyPart != "" {
		fmt.Fprintf(&b, " - %s", d.BodyPart)
	}
	for _, f := range d.Flags {
		fmt.Fprintf(&b, " | %s: %s", f.Name, f.Value)
	}

	return StripIDs(b.String())
}

// StripIDs removes UUIDs and "prefix_<timestamp>" ids, then collapses whitespace.
func StripIDs(s string) string {
	s = uuidPattern.ReplaceAllString(s, "")
	s = stampedPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// additional is the structured form of the draft stored alongside the rendered details.
func (d Draft) additional(loc *models.Location) map[string]any {
	out := map[string]any{"eventId": d.EventID}
	if d.Pressure != "" {
		out["pressure"] = d.Pressure
	}
	if d.BodyPart != "" {
		out["bodyPart"] = d.BodyPart
	}
	if len(d.Flags) > 0 {
		flags := make(map[string]any, len(d.Flags))
		for _, f := range d.Flags {
			flags[f.FlagID] = f.Value
		}
		out["flags"] = flags
	}
	if loc != nil {
		out["zone"] = map[string]any{"col": loc.Col, "row": loc.Row}
	}
	return out
}

// CreateEventPayload builds the log entry for the session's current selection.
//
// It is rejected with a [ValidationError] when the player, the team, or the event description is missing.
func CreateEventPayload(s *Session, d Draft) (models.GameEvent, error) {
	if s.SelectedPlayer == nil {
		return models.GameEvent{}, &ValidationError{Field: FieldPlayer}
	}

	team := s.SelectedTeam
	if team == "" {
		team = s.SelectedPlayer.Team
	}
	if team == "" {
		return models.GameEvent{}, &ValidationError{Field: FieldTeam}
	}

	details := d.Details()
	if details == "" {
		return models.GameEvent{}, &ValidationError{Field: FieldEvent}
	}

	var location string
	if s.SelectedLocation != nil {
		location = s.SelectedLocation.String()
	}

	vt := s.VideoTime()
	return models.GameEvent{
		ID:                shared.GenerateID(),
		GameTime:          FormatGameTime(vt),
		VideoTime:         vt.Round(time.Millisecond).Seconds(),
		Player:            *s.SelectedPlayer,
		Team:              team,
		Location:          location,
		EventName:         d.EventName,
		EventDetails:      details,
		Category:          d.Category,
		AdditionalDetails: d.additional(s.SelectedLocation),
	}, nil
}
