package wizard

import "github.com/desertthunder/pitchlog/internal/models"

// HiddenFlagIDs returns the union of the hide lists of every condition matched by answers.
func HiddenFlagIDs(conds []models.FlagCondition, answers map[string]string) map[string]bool {
	hidden := map[string]bool{}
	for _, c := range conds {
		if !c.Matches(answers) {
			continue
		}
		for _, id := range c.FlagsToHideIDs {
			hidden[id] = true
		}
	}
	return hidden
}

// VisibleFlags filters all down to the flags no matched condition hides, keeping their order.
//
// Adding answers can only hide more flags. Answers for flags that are now hidden are left alone.
func VisibleFlags(all []models.Flag, conds []models.FlagCondition, answers map[string]string) []models.Flag {
	hidden := HiddenFlagIDs(conds, answers)

	visible := make([]models.Flag, 0, len(all))
	for _, f := range all {
		if !hidden[f.ID] {
			visible = append(visible, f)
		}
	}
	return visible
}
