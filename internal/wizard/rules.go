package wizard

import (
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
)

// Rules are the fixed answer sets, shortcuts, and eligibility lists the wizard runs with.
type Rules struct {
	QuickEvents []string
	Categories  []models.Option // ID and Name are the category name
	Pressure    []models.Option
	BodyParts   []models.Option

	// Used for labels that do not set RequiresPressure / RequiresBodyPart.
	PressureEvents map[string]bool
	BodyPartEvents map[string]bool
}

// RulesFromConfig builds [Rules] from the wizard section of the config.
func RulesFromConfig(cfg shared.WizardConfig) Rules {
	r := Rules{
		QuickEvents:    append([]string(nil), cfg.QuickEvents...),
		PressureEvents: set(cfg.PressureEvents),
		BodyPartEvents: set(cfg.BodyPartEvents),
	}
	for _, c := range cfg.CategoryHotkeys {
		r.Categories = append(r.Categories, models.Option{ID: c.Name, Name: c.Name, Hotkey: c.Hotkey})
	}
	for _, o := range cfg.PressureOptions {
		r.Pressure = append(r.Pressure, models.Option(o))
	}
	for _, o := range cfg.BodyPartOptions {
		r.BodyParts = append(r.BodyParts, models.Option(o))
	}
	return r
}

// DefaultRules returns the rules of the embedded default config.
func DefaultRules() Rules {
	return RulesFromConfig(shared.DefaultConfig().Wizard)
}

func set(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// NeedsPressure reports whether l asks for pressure. The label's own field wins over the event id list.
func (r Rules) NeedsPressure(l models.EventLabel) bool {
	if l.RequiresPressure != nil {
		return *l.RequiresPressure
	}
	return r.PressureEvents[l.ID]
}

// NeedsBodyPart reports whether l asks for a body part. The label's own field wins over the event id list.
func (r Rules) NeedsBodyPart(l models.EventLabel) bool {
	if l.RequiresBodyPart != nil {
		return *l.RequiresBodyPart
	}
	return r.BodyPartEvents[l.ID]
}

func findOption(opts []models.Option, id string) (models.Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return models.Option{}, false
}

func categoryKey(cats []models.Option, name string) string {
	for _, c := range cats {
		if c.Name == name {
			return c.Hotkey
		}
	}
	return ""
}
