package wizard

import (
	"reflect"
	"testing"

	"github.com/desertthunder/pitchlog/internal/models"
)

func ids(flags []models.Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = f.ID
	}
	return out
}

func TestVisibleFlags(t *testing.T) {
	all := []models.Flag{{ID: "outcome"}, {ID: "direction"}, {ID: "height"}, {ID: "speed"}}
	conds := []models.FlagCondition{
		{FlagID: "outcome", Value: "Unsuccessful", FlagsToHideIDs: []string{"direction"}},
		{FlagID: "height", Value: "Air", FlagsToHideIDs: []string{"speed", "direction"}},
		{FlagID: "outcome", Value: "Successful", FlagsToHideIDs: []string{}},
	}

	tt := []struct {
		name    string
		answers map[string]string
		want    []string
	}{
		{name: "no answers", answers: map[string]string{}, want: []string{"outcome", "direction", "height", "speed"}},
		{name: "nil answers", answers: nil, want: []string{"outcome", "direction", "height", "speed"}},
		{name: "matching answer hides", answers: map[string]string{"outcome": "Unsuccessful"}, want: []string{"outcome", "height", "speed"}},
		{name: "non-matching answer", answers: map[string]string{"outcome": "Successful"}, want: []string{"outcome", "direction", "height", "speed"}},
		{
			name:    "union of hides",
			answers: map[string]string{"outcome": "Unsuccessful", "height": "Air"},
			want:    []string{"outcome", "height"},
		},
		{name: "answer for unknown flag", answers: map[string]string{"ghost": "Unsuccessful"}, want: []string{"outcome", "direction", "height", "speed"}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := ids(VisibleFlags(all, conds, tc.answers)); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("VisibleFlags() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVisibleFlagsMonotonic(t *testing.T) {
	all := []models.Flag{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	conds := []models.FlagCondition{
		{FlagID: "a", Value: "1", FlagsToHideIDs: []string{"c"}},
		{FlagID: "b", Value: "1", FlagsToHideIDs: []string{"d"}},
		{FlagID: "c", Value: "1", FlagsToHideIDs: []string{"a"}},
	}

	// every answer sequence over two values per flag
	var walk func(answers map[string]string, hidden map[string]bool, depth int)
	walk = func(answers map[string]string, hidden map[string]bool, depth int) {
		visible := map[string]bool{}
		for _, f := range VisibleFlags(all, conds, answers) {
			visible[f.ID] = true
		}
		for id := range hidden {
			if visible[id] {
				t.Fatalf("flag %s un-hidden by answers %v", id, answers)
			}
		}
		if depth == len(all) {
			return
		}

		nowHidden := map[string]bool{}
		for _, f := range all {
			if !visible[f.ID] {
				nowHidden[f.ID] = true
			}
		}
		for _, v := range []string{"0", "1"} {
			next := map[string]string{}
			for k, val := range answers {
				next[k] = val
			}
			next[all[depth].ID] = v
			walk(next, nowHidden, depth+1)
		}
	}
	walk(map[string]string{}, map[string]bool{}, 0)
}
