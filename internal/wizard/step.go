package wizard

import (
	"maps"
	"slices"

	"github.com/desertthunder/pitchlog/internal/models"
)

// Step is the stage of the event wizard.
type Step int

const (
	StepDefault  Step = iota // choosing a category or event; also the state after a reset
	StepPressure             // choosing a pressure option
	StepBodyPart             // choosing a body part
	StepFlag                 // answering the visible flag at CurrentFlagIndex
)

func (s Step) String() string {
	switch s {
	case StepDefault:
		return "default"
	case StepPressure:
		return "pressure"
	case StepBodyPart:
		return "bodyPart"
	case StepFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// ResetScope selects how much state a reset clears.
type ResetScope int

const (
	// ResetWizard clears the wizard selection and the session's event fields.
	ResetWizard ResetScope = iota
	// ResetWizardAndSession also clears the session's player, team, and location.
	ResetWizardAndSession
)

// Selection is the operator's in-progress choices.
type Selection struct {
	Step             Step
	Category         string
	EventID          string
	EventName        string
	PressureID       string
	BodyPartID       string
	FlagValues       map[string]string
	VisibleFlags     []models.Flag
	CurrentFlagIndex int
}

func newSelection() Selection {
	return Selection{Step: StepDefault, FlagValues: map[string]string{}}
}

// Clone returns a copy that shares no maps or slices with s.
func (s Selection) Clone() Selection {
	out := s
	out.FlagValues = maps.Clone(s.FlagValues)
	if out.FlagValues == nil {
		out.FlagValues = map[string]string{}
	}
	out.VisibleFlags = slices.Clone(s.VisibleFlags)
	return out
}

// CurrentFlag returns the visible flag at CurrentFlagIndex.
func (s Selection) CurrentFlag() (models.Flag, bool) {
	if s.Step != StepFlag || s.CurrentFlagIndex < 0 || s.CurrentFlagIndex >= len(s.VisibleFlags) {
		return models.Flag{}, false
	}
	return s.VisibleFlags[s.CurrentFlagIndex], true
}

// HasEvent reports whether an event has been chosen.
func (s Selection) HasEvent() bool {
	return s.EventID != ""
}
