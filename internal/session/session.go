// package session holds the operator's per-event selections, the video clock, and the event log
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/pitchlog/internal/models"
)

// Clock reports the current position of the match video.
type Clock interface {
	Elapsed() time.Duration
}

// FixedClock is a [Clock] stopped at one position.
type FixedClock time.Duration

func (c FixedClock) Elapsed() time.Duration { return time.Duration(c) }

// Stopwatch is a [Clock] that runs in wall time and can be paused and seeked along with the video.
type Stopwatch struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	offset  time.Duration
	running bool
}

func NewStopwatch() *Stopwatch {
	return &Stopwatch{now: time.Now}
}

// Start resumes the stopwatch; starting a running stopwatch does nothing.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.started = s.now()
	s.running = true
}

// Pause stops the stopwatch at its current position.
func (s *Stopwatch) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.offset += s.now().Sub(s.started)
	s.running = false
}

// Toggle pauses a running stopwatch and starts a paused one.
func (s *Stopwatch) Toggle() {
	if s.Running() {
		s.Pause()
	} else {
		s.Start()
	}
}

// Seek moves the stopwatch by d, clamped at zero.
func (s *Stopwatch) Seek(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += d
	if s.elapsed() < 0 {
		s.offset -= s.elapsed()
	}
}

func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

func (s *Stopwatch) elapsed() time.Duration {
	if !s.running {
		return s.offset
	}
	return s.offset + s.now().Sub(s.started)
}

// FormatGameTime renders a video position as MM:SS; minutes are not wrapped at the hour.
func FormatGameTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Session is the shared context the wizard and the event log work against.
//
// The Selected* fields are what the operator has chosen for the event being logged. The wizard keeps
// SelectedEventCategory, SelectedEventType and SelectedEventDetails in step with its own selection.
type Session struct {
	SelectedPlayer        *models.Player
	SelectedTeam          string
	SelectedLocation      *models.Location
	SelectedEventCategory string
	SelectedEventType     string
	SelectedEventDetails  *Draft

	Clock Clock
	Log   *EventLog

	frozen *time.Duration
}

// New creates a session. A nil clock starts a fresh [Stopwatch].
func New(clock Clock, log *EventLog) *Session {
	if clock == nil {
		sw := NewStopwatch()
		sw.Start()
		clock = sw
	}
	return &Session{Clock: clock, Log: log}
}

// SelectPlayer selects p and the team p plays for.
func (s *Session) SelectPlayer(p models.Player) {
	s.SelectedPlayer = &p
	s.SelectedTeam = p.Team
}

// SelectLocation selects a pitch zone.
func (s *Session) SelectLocation(loc models.Location) {
	s.SelectedLocation = &loc
}

// FreezeVideoTime captures the current video position as the time the event happened.
func (s *Session) FreezeVideoTime() {
	t := s.Clock.Elapsed()
	s.frozen = &t
}

// VideoTime returns the frozen position if one was captured, else the live one.
func (s *Session) VideoTime() time.Duration {
	if s.frozen != nil {
		return *s.frozen
	}
	return s.Clock.Elapsed()
}

// Frozen reports whether a video position has been captured.
func (s *Session) Frozen() bool {
	return s.frozen != nil
}

// ClearEvent clears the event selections and the frozen video time, keeping player, team, and location.
func (s *Session) ClearEvent() {
	s.SelectedEventCategory = ""
	s.SelectedEventType = ""
	s.SelectedEventDetails = nil
	s.frozen = nil
}

// Clear clears every per-event selection.
func (s *Session) Clear() {
	s.ClearEvent()
	s.SelectedPlayer = nil
	s.SelectedTeam = ""
	s.SelectedLocation = nil
}
