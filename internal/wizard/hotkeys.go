package wizard

import (
	"github.com/desertthunder/pitchlog/internal/models"
)

// ChoiceKind says which handler a [Choice] feeds.
type ChoiceKind int

const (
	ChoiceQuickEvent ChoiceKind = iota
	ChoiceCategory
	ChoiceEvent
	ChoicePressure
	ChoiceBodyPart
	ChoiceFlagValue
)

// Choice is one option offered at the current step, with the key that picks it.
type Choice struct {
	Kind     ChoiceKind
	ID       string
	Label    string
	Hotkey   string
	Selected bool
}

// Choices lists the options of the current step in dispatch order:
//   - default, no category: quick events, then categories
//   - default, category chosen: that category's events, then categories
//   - pressure and body part: the configured options
//   - flag: the values of the visible flag being asked
func (c *Controller) Choices() []Choice {
	switch c.sel.Step {
	case StepPressure:
		return optionChoices(ChoicePressure, c.rules.Pressure, c.sel.PressureID)
	case StepBodyPart:
		return optionChoices(ChoiceBodyPart, c.rules.BodyParts, c.sel.BodyPartID)
	case StepFlag:
		flag, ok := c.sel.CurrentFlag()
		if !ok {
			return nil
		}
		choices := make([]Choice, 0, len(flag.Values))
		for _, v := range flag.Values {
			choices = append(choices, Choice{
				Kind:     ChoiceFlagValue,
				ID:       v.Value,
				Label:    v.Value,
				Hotkey:   v.Hotkey,
				Selected: c.sel.FlagValues[flag.ID] == v.Value,
			})
		}
		return choices
	}

	var choices []Choice
	if c.sel.Category == "" {
		for _, id := range c.rules.QuickEvents {
			if l, ok := c.snap.Label(id); ok {
				choices = append(choices, c.eventChoice(ChoiceQuickEvent, l))
			}
		}
	} else {
		for _, l := range c.snap.LabelsInCategory(c.sel.Category) {
			choices = append(choices, c.eventChoice(ChoiceEvent, l))
		}
	}
	for _, cat := range c.snap.Categories() {
		choices = append(choices, Choice{
			Kind:     ChoiceCategory,
			ID:       cat,
			Label:    cat,
			Hotkey:   categoryKey(c.rules.Categories, cat),
			Selected: c.sel.Category == cat,
		})
	}
	return choices
}

func (c *Controller) eventChoice(kind ChoiceKind, l models.EventLabel) Choice {
	return Choice{Kind: kind, ID: l.ID, Label: l.Name, Hotkey: l.Hotkey, Selected: c.sel.EventID == l.ID}
}

func optionChoices(kind ChoiceKind, opts []models.Option, selected string) []Choice {
	choices := make([]Choice, 0, len(opts))
	for _, o := range opts {
		choices = append(choices, Choice{Kind: kind, ID: o.ID, Label: o.Name, Hotkey: o.Hotkey, Selected: o.ID == selected})
	}
	return choices
}

// Choose applies a choice returned by [Controller.Choices].
func (c *Controller) Choose(ch Choice) error {
	switch ch.Kind {
	case ChoiceCategory:
		return c.SelectCategory(ch.ID)
	case ChoicePressure:
		return c.SelectPressure(ch.ID)
	case ChoiceBodyPart:
		return c.SelectBodyPart(ch.ID)
	case ChoiceFlagValue:
		return c.SelectFlagValue(ch.ID)
	default:
		return c.SelectEvent(ch.ID)
	}
}

// HandleKey dispatches a keypress against the current step's choices, case-insensitively.
//
// The first choice bound to the key is applied; an unbound key does nothing and reports false.
func (c *Controller) HandleKey(key string) (Choice, bool) {
	key = models.NormalizeKey(key)
	if len([]rune(key)) != 1 {
		return Choice{}, false
	}

	for _, ch := range c.Choices() {
		if ch.Hotkey == "" || models.NormalizeKey(ch.Hotkey) != key {
			continue
		}
		if err := c.Choose(ch); err != nil {
			c.logger.Warn("hotkey choice failed", "key", key, "choice", ch.ID, "error", err)
			return ch, false
		}
		return ch, true
	}
	return Choice{}, false
}
