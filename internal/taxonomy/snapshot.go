package taxonomy

import (
	"time"

	"github.com/desertthunder/pitchlog/internal/models"
)

// Snapshot is one fully normalized load of the taxonomy. It is never mutated after it is built.
type Snapshot struct {
	Labels   []models.EventLabel
	Flags    []models.Flag
	Issues   []Issue
	LoadedAt time.Time
}

// Label finds a label by id.
func (s *Snapshot) Label(id string) (models.EventLabel, bool) {
	if s == nil {
		return models.EventLabel{}, false
	}
	for _, l := range s.Labels {
		if l.ID == id {
			return l, true
		}
	}
	return models.EventLabel{}, false
}

// Flag finds a flag by id.
func (s *Snapshot) Flag(id string) (models.Flag, bool) {
	if s == nil {
		return models.Flag{}, false
	}
	for _, f := range s.Flags {
		if f.ID == id {
			return f, true
		}
	}
	return models.Flag{}, false
}

// Categories returns the distinct label categories in first-seen order.
func (s *Snapshot) Categories() []string {
	if s == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, l := range s.Labels {
		if l.Category == "" || seen[l.Category] {
			continue
		}
		seen[l.Category] = true
		out = append(out, l.Category)
	}
	return out
}

// LabelsInCategory returns the labels of one category in stored order.
func (s *Snapshot) LabelsInCategory(category string) []models.EventLabel {
	if s == nil {
		return nil
	}
	var out []models.EventLabel
	for _, l := range s.Labels {
		if l.Category == category {
			out = append(out, l)
		}
	}
	return out
}

// Empty reports whether the snapshot holds no labels.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Labels) == 0
}
