package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
	tu "github.com/desertthunder/pitchlog/internal/testing"
)

func TestDraftDetails(t *testing.T) {
	tt := []struct {
		name  string
		draft Draft
		want  string
	}{
		{
			name:  "event only",
			draft: Draft{EventName: "Tackle"},
			want:  "Tackle",
		},
		{
			name:  "pressure and body part",
			draft: Draft{EventName: "Pass", Pressure: "Pressure", BodyPart: "Left Foot"},
			want:  "Pass (Pressure) - Left Foot",
		},
		{
			name: "flags in order",
			draft: Draft{EventName: "Pass", BodyPart: "Head", Flags: []FlagAnswer{
				{FlagID: "outcome", Name: "Outcome", Value: "Successful"},
				{FlagID: "direction", Name: "Direction", Value: "Forward"},
			}},
			want: "Pass - Head | Outcome: Successful | Direction: Forward",
		},
		{
			name:  "ids are stripped",
			draft: Draft{EventName: "Pass 3f2b1c9e-8d4a-4e1b-9c2d-7a6b5c4d3e2f", Flags: []FlagAnswer{{Name: "Target", Value: "label_1714570000000 Wing"}}},
			want:  "Pass | Target: Wing",
		},
		{
			name:  "no event",
			draft: Draft{Pressure: "Pressure"},
			want:  "",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.draft.Details(); got != tc.want {
				t.Errorf("Details() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCreateEventPayload(t *testing.T) {
	draft := Draft{Category: "Attacking", EventID: "pass", EventName: "Pass", Pressure: "Pressure", BodyPart: "Left Foot"}

	t.Run("Success", func(t *testing.T) {
		s := New(FixedClock(95*time.Second), nil)
		s.SelectPlayer(tu.SamplePlayer())
		s.SelectLocation(models.Location{Col: 2, Row: 1})

		e, err := CreateEventPayload(s, draft)
		if err != nil {
			t.Fatalf("CreateEventPayload() error = %v", err)
		}
		if e.ID == "" {
			t.Error("expected a generated id")
		}
		if e.EventDetails != "Pass (Pressure) - Left Foot" {
			t.Errorf("unexpected details %q", e.EventDetails)
		}
		if e.GameTime != "01:35" || e.VideoTime != 95 {
			t.Errorf("unexpected times %s %v", e.GameTime, e.VideoTime)
		}
		if e.Team != "Home" || e.Location != "C2" || e.Category != "Attacking" {
			t.Errorf("unexpected event %+v", e)
		}
		if e.AdditionalDetails["eventId"] != "pass" {
			t.Errorf("unexpected additional details %v", e.AdditionalDetails)
		}
	})

	t.Run("UsesFrozenVideoTime", func(t *testing.T) {
		clock := &movableClock{at: 10 * time.Second}
		s := New(clock, nil)
		s.SelectPlayer(tu.SamplePlayer())

		s.FreezeVideoTime()
		clock.at = 40 * time.Second

		e, err := CreateEventPayload(s, draft)
		if err != nil {
			t.Fatalf("CreateEventPayload() error = %v", err)
		}
		if e.VideoTime != 10 {
			t.Errorf("expected frozen time 10s, got %v", e.VideoTime)
		}

		s.ClearEvent()
		if s.Frozen() || s.VideoTime() != 40*time.Second {
			t.Error("expected live time after clearing the event")
		}
	})

	t.Run("Rejections", func(t *testing.T) {
		tt := []struct {
			name    string
			setup   func(s *Session)
			draft   Draft
			wantFld string
		}{
			{name: "no player", setup: func(s *Session) {}, draft: draft, wantFld: FieldPlayer},
			{
				name:    "no team",
				setup:   func(s *Session) { s.SelectedPlayer = &models.Player{ID: "p1", Name: "Free Agent"} },
				draft:   draft,
				wantFld: FieldTeam,
			},
			{
				name:    "no event",
				setup:   func(s *Session) { s.SelectPlayer(tu.SamplePlayer()) },
				draft:   Draft{},
				wantFld: FieldEvent,
			},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				s := New(FixedClock(0), nil)
				tc.setup(s)

				_, err := CreateEventPayload(s, tc.draft)
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Field != tc.wantFld {
					t.Fatalf("expected validation error on %s, got %v", tc.wantFld, err)
				}
				if !errors.Is(err, shared.ErrValidation) {
					t.Error("validation error should match ErrValidation")
				}
			})
		}
	})
}

type movableClock struct{ at time.Duration }

func (c *movableClock) Elapsed() time.Duration { return c.at }

func TestSessionClear(t *testing.T) {
	s := New(FixedClock(0), nil)
	s.SelectPlayer(tu.SamplePlayer())
	s.SelectLocation(models.Location{Col: 1, Row: 1})
	s.SelectedEventCategory = "Attacking"
	s.SelectedEventType = "Pass"
	s.SelectedEventDetails = &Draft{EventName: "Pass"}
	s.FreezeVideoTime()

	s.ClearEvent()
	if s.SelectedEventType != "" || s.SelectedEventDetails != nil || s.SelectedEventCategory != "" || s.Frozen() {
		t.Error("ClearEvent() should clear event selections")
	}
	if s.SelectedPlayer == nil || s.SelectedLocation == nil {
		t.Error("ClearEvent() should keep player and location")
	}

	s.Clear()
	if s.SelectedPlayer != nil || s.SelectedTeam != "" || s.SelectedLocation != nil {
		t.Error("Clear() should clear player, team, and location")
	}
}

func TestStopwatch(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	sw := NewStopwatch()
	sw.now = func() time.Time { return now }

	if sw.Elapsed() != 0 || sw.Running() {
		t.Fatal("new stopwatch should be stopped at zero")
	}

	sw.Start()
	now = now.Add(30 * time.Second)
	if sw.Elapsed() != 30*time.Second {
		t.Errorf("expected 30s, got %v", sw.Elapsed())
	}

	sw.Pause()
	now = now.Add(time.Minute)
	if sw.Elapsed() != 30*time.Second {
		t.Errorf("paused stopwatch should not advance, got %v", sw.Elapsed())
	}

	sw.Seek(-45 * time.Second)
	if sw.Elapsed() != 0 {
		t.Errorf("seek should clamp at zero, got %v", sw.Elapsed())
	}

	sw.Seek(10 * time.Second)
	sw.Toggle()
	now = now.Add(5 * time.Second)
	if !sw.Running() || sw.Elapsed() != 15*time.Second {
		t.Errorf("expected running at 15s, got %v", sw.Elapsed())
	}
}

func TestFormatGameTime(t *testing.T) {
	tt := map[time.Duration]string{
		0:                                     "00:00",
		59 * time.Second:                      "00:59",
		95*time.Second + 900*time.Millisecond: "01:35",
		75 * time.Minute:                      "75:00",
		-time.Second:                          "00:00",
	}
	for d, want := range tt {
		if got := FormatGameTime(d); got != want {
			t.Errorf("FormatGameTime(%v) = %s, want %s", d, got, want)
		}
	}
}

func TestEventLog(t *testing.T) {
	ctx := context.Background()
	l := NewEventLog(nil, shared.NewLogger(io.Discard))

	event := func(id, team string) models.GameEvent {
		return models.GameEvent{ID: id, Player: models.Player{ID: "p-" + id, Name: "P"}, Team: team, EventDetails: "Pass"}
	}

	first, err := l.Append(ctx, event("a", "Home"))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if first.Sequence != 1 || first.CreatedAt.IsZero() {
		t.Errorf("expected sequence 1 and a creation time, got %+v", first)
	}

	if _, err := l.Append(ctx, event("b", "Away")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := l.Append(ctx, event("a", "Home")); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected duplicate id error, got %v", err)
	}
	if _, err := l.Append(ctx, models.GameEvent{ID: "c"}); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	home, _ := l.Events(ctx, map[string]any{"team": "Home"})
	if len(home) != 1 || home[0].ID != "a" {
		t.Errorf("unexpected Home events %v", home)
	}

	last, _ := l.Events(ctx, map[string]any{"limit": 1})
	if len(last) != 1 || last[0].ID != "b" {
		t.Errorf("limit should keep the most recent event, got %v", last)
	}

	if err := l.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := l.Remove(ctx, "a"); !errors.Is(err, shared.ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}

	all, _ := l.Events(ctx, nil)
	if len(all) != 1 || all[0].ID != "b" || all[0].Sequence != 2 {
		t.Errorf("unexpected events after removal %v", all)
	}
}
