package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/session"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
)

// ValidationError names the selection a save is missing.
type ValidationError = session.ValidationError

// Observer is told about wizard outcomes.
type Observer interface {
	EventRecorded(e models.GameEvent)
	SaveRejected(field string)
	Cancelled()
}

type nopObserver struct{}

func (nopObserver) EventRecorded(models.GameEvent) {}
func (nopObserver) SaveRejected(string)            {}
func (nopObserver) Cancelled()                     {}

// Controller drives the event wizard's step transitions.
//
// A Controller is not safe for concurrent use; callers serialize input on one goroutine.
type Controller struct {
	snap     *taxonomy.Snapshot
	rules    Rules
	session  *session.Session
	logger   *log.Logger
	observer Observer
	notify   func(msg string)

	sel   Selection
	label models.EventLabel
}

// ControllerOption configures a [Controller].
type ControllerOption func(*Controller)

func WithLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithObserver(o Observer) ControllerOption {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithNotifier sets the function that shows warnings to the operator.
func WithNotifier(fn func(msg string)) ControllerOption {
	return func(c *Controller) {
		if fn != nil {
			c.notify = fn
		}
	}
}

func NewController(snap *taxonomy.Snapshot, sess *session.Session, rules Rules, opts ...ControllerOption) *Controller {
	c := &Controller{
		snap:     snap,
		rules:    rules,
		session:  sess,
		logger:   log.Default(),
		observer: nopObserver{},
		notify:   func(string) {},
		sel:      newSelection(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Selection returns a copy of the current selection.
func (c *Controller) Selection() Selection {
	return c.sel.Clone()
}

// Step returns the current step.
func (c *Controller) Step() Step {
	return c.sel.Step
}

// Label returns the label of the chosen event.
func (c *Controller) Label() (models.EventLabel, bool) {
	return c.label, c.sel.HasEvent()
}

func (c *Controller) Snapshot() *taxonomy.Snapshot {
	return c.snap
}

func (c *Controller) Rules() Rules {
	return c.rules
}

// SetSnapshot swaps in a reloaded taxonomy.
//
// A chosen event keeps the label it was chosen with. If the event no longer exists it is cleared, and a chosen
// category with no labels left is cleared too.
func (c *Controller) SetSnapshot(snap *taxonomy.Snapshot) {
	c.snap = snap

	if c.sel.HasEvent() {
		if _, ok := snap.Label(c.sel.EventID); !ok {
			c.warn(fmt.Sprintf("event %q was removed from the taxonomy", c.sel.EventName))
			c.clearEvent()
		}
	}
	if c.sel.Category != "" && len(snap.LabelsInCategory(c.sel.Category)) == 0 {
		c.warn(fmt.Sprintf("category %q no longer has any events", c.sel.Category))
		c.sel.Category = ""
		c.sync()
	}
}

// Reset returns the wizard to its initial state. Resetting is idempotent.
func (c *Controller) Reset(scope ResetScope) {
	c.sel = newSelection()
	c.label = models.EventLabel{}

	switch scope {
	case ResetWizardAndSession:
		c.session.Clear()
	default:
		c.session.ClearEvent()
	}
}

// SelectCategory chooses a category. Only valid at [StepDefault]; a chosen event is cleared.
func (c *Controller) SelectCategory(category string) error {
	if c.sel.Step != StepDefault {
		return fmt.Errorf("%w: cannot choose a category at step %s", shared.ErrInvalidState, c.sel.Step)
	}
	if len(c.snap.LabelsInCategory(category)) == 0 {
		return fmt.Errorf("%w: category %q has no events", shared.ErrInvalidInput, category)
	}

	if c.sel.HasEvent() {
		c.clearEvent()
	}
	c.sel.Category = category
	c.sync()
	return nil
}

// SelectEvent chooses an event from any step, discarding answers given for a previous event.
func (c *Controller) SelectEvent(id string) error {
	label, ok := c.snap.Label(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrLabelNotFound, id)
	}

	c.label = label
	c.sel.EventID = label.ID
	c.sel.EventName = label.Name
	c.sel.PressureID = ""
	c.sel.BodyPartID = ""
	c.sel.FlagValues = map[string]string{}
	c.sel.VisibleFlags = VisibleFlags(label.Flags, label.FlagConditions, c.sel.FlagValues)
	c.sel.CurrentFlagIndex = 0
	c.sel.Step = c.stepAfterEvent(true)

	c.session.FreezeVideoTime()
	c.sync()
	c.checkActiveFlag()
	return nil
}

// SelectPressure records a pressure option. Only valid at [StepPressure].
func (c *Controller) SelectPressure(id string) error {
	if c.sel.Step != StepPressure {
		return fmt.Errorf("%w: not choosing pressure", shared.ErrInvalidState)
	}
	if _, ok := findOption(c.rules.Pressure, id); !ok {
		return fmt.Errorf("%w: unknown pressure option %q", shared.ErrInvalidInput, id)
	}

	c.sel.PressureID = id
	c.sel.Step = c.stepAfterEvent(false)
	c.sync()
	return nil
}

// SelectBodyPart records a body-part option. Only valid at [StepBodyPart].
func (c *Controller) SelectBodyPart(id string) error {
	if c.sel.Step != StepBodyPart {
		return fmt.Errorf("%w: not choosing a body part", shared.ErrInvalidState)
	}
	if _, ok := findOption(c.rules.BodyParts, id); !ok {
		return fmt.Errorf("%w: unknown body part option %q", shared.ErrInvalidInput, id)
	}

	c.sel.BodyPartID = id
	c.sel.Step = c.stepAfterEvent(false)
	c.sync()
	return nil
}

// SelectFlagValue answers the current flag and moves to the next flag still visible, or past the flags.
func (c *Controller) SelectFlagValue(value string) error {
	flag, ok := c.sel.CurrentFlag()
	if !ok {
		return fmt.Errorf("%w: no flag is being asked", shared.ErrInvalidState)
	}
	if !hasValue(flag, value) {
		return fmt.Errorf("%w: %q is not a value of flag %s", shared.ErrInvalidInput, value, flag.ID)
	}

	c.sel.FlagValues[flag.ID] = value
	c.refreshVisible()

	if next := c.nextUsableAfter(flag.ID); next >= 0 {
		c.sel.CurrentFlagIndex = next
	} else {
		c.sel.CurrentFlagIndex = 0
		c.sel.Step = c.stepAfterEvent(false)
	}

	c.sync()
	return nil
}

// Back undoes the most recent choice.
func (c *Controller) Back() {
	switch c.sel.Step {
	case StepFlag:
		if prev := c.lastUsableBefore(c.sel.CurrentFlagIndex); prev >= 0 {
			c.reopenFlag(c.sel.VisibleFlags[prev].ID)
		} else {
			c.sel.Step = c.stepAfterEvent(false)
		}
	case StepBodyPart:
		c.sel.BodyPartID = ""
		switch {
		case c.rules.NeedsPressure(c.label):
			c.sel.Step = StepPressure
		case c.lastUsableBefore(len(c.sel.VisibleFlags)) >= 0:
			c.reopenFlag(c.sel.VisibleFlags[c.lastUsableBefore(len(c.sel.VisibleFlags))].ID)
		default:
			c.clearEvent()
		}
	case StepPressure:
		c.clearEvent()
	case StepDefault:
		switch {
		case c.sel.BodyPartID != "":
			c.sel.BodyPartID = ""
			c.sel.Step = StepBodyPart
		case c.sel.PressureID != "":
			c.sel.PressureID = ""
			c.sel.Step = StepPressure
		case c.sel.HasEvent() && c.lastUsableBefore(len(c.sel.VisibleFlags)) >= 0:
			c.reopenFlag(c.sel.VisibleFlags[c.lastUsableBefore(len(c.sel.VisibleFlags))].ID)
		case c.sel.HasEvent():
			c.clearEvent()
		case c.sel.Category != "":
			c.sel.Category = ""
		}
	}
	c.sync()
}

// Cancel discards the event being logged along with the player, team, and location.
func (c *Controller) Cancel() {
	c.observer.Cancelled()
	c.Reset(ResetWizardAndSession)
}

// Save appends the finished event to the session log and resets the wizard and the session selections.
//
// A missing player or location is rejected with a [ValidationError] and nothing changes.
func (c *Controller) Save(ctx context.Context) (models.GameEvent, error) {
	if c.session.SelectedPlayer == nil {
		return models.GameEvent{}, c.reject(session.FieldPlayer)
	}
	if c.session.SelectedLocation == nil {
		return models.GameEvent{}, c.reject(session.FieldLocation)
	}

	event, err := session.CreateEventPayload(c.session, c.Draft())
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.observer.SaveRejected(verr.Field)
		}
		return models.GameEvent{}, err
	}

	if c.session.Log == nil {
		return models.GameEvent{}, fmt.Errorf("%w: session has no event log", shared.ErrInvalidState)
	}
	saved, err := c.session.Log.Append(ctx, event)
	if err != nil {
		return models.GameEvent{}, err
	}

	c.observer.EventRecorded(saved)
	c.Reset(ResetWizardAndSession)
	return saved, nil
}

func (c *Controller) reject(field string) error {
	c.observer.SaveRejected(field)
	return &ValidationError{Field: field}
}

// Draft describes the current selection. Flags are listed in ask order, including answers to flags a later answer
// hid.
func (c *Controller) Draft() session.Draft {
	d := session.Draft{
		Category:  c.sel.Category,
		EventID:   c.sel.EventID,
		EventName: c.sel.EventName,
	}
	if c.sel.HasEvent() && c.label.Category != "" {
		d.Category = c.label.Category
	}
	if o, ok := findOption(c.rules.Pressure, c.sel.PressureID); ok {
		d.Pressure = o.Name
	}
	if o, ok := findOption(c.rules.BodyParts, c.sel.BodyPartID); ok {
		d.BodyPart = o.Name
	}
	for _, f := range c.label.Flags {
		if v, ok := c.sel.FlagValues[f.ID]; ok {
			d.Flags = append(d.Flags, session.FlagAnswer{FlagID: f.ID, Name: f.Name, Value: v})
		}
	}
	return d
}

// stepAfterEvent is the step entered once an event is chosen and each earlier stage is done:
// flags, then pressure, then body part, then back to default.
func (c *Controller) stepAfterEvent(includeFlags bool) Step {
	switch {
	case includeFlags && len(c.sel.VisibleFlags) > 0:
		return StepFlag
	case c.rules.NeedsPressure(c.label) && c.sel.PressureID == "":
		return StepPressure
	case c.rules.NeedsBodyPart(c.label) && c.sel.BodyPartID == "":
		return StepBodyPart
	default:
		return StepDefault
	}
}

func (c *Controller) refreshVisible() {
	c.sel.VisibleFlags = VisibleFlags(c.label.Flags, c.label.FlagConditions, c.sel.FlagValues)
}

// nextVisibleAfter returns the index in the visible flags of the first flag ordered after id, or -1.
func (c *Controller) nextVisibleAfter(id string) int {
	pos := flagPosition(c.label.Flags, id)
	for i, f := range c.sel.VisibleFlags {
		if flagPosition(c.label.Flags, f.ID) > pos {
			return i
		}
	}
	return -1
}

// nextUsableAfter is like nextVisibleAfter but skips flags with no values, warning about each one skipped.
func (c *Controller) nextUsableAfter(id string) int {
	for {
		next := c.nextVisibleAfter(id)
		if next < 0 || c.sel.VisibleFlags[next].Usable() {
			return next
		}
		skipped := c.sel.VisibleFlags[next]
		c.warn(fmt.Sprintf("flag %q has no values, skipping it", skipped.Name))
		id = skipped.ID
	}
}

// lastUsableBefore returns the index of the last visible flag with values before index i, or -1.
func (c *Controller) lastUsableBefore(i int) int {
	for i = min(i, len(c.sel.VisibleFlags)) - 1; i >= 0; i-- {
		if c.sel.VisibleFlags[i].Usable() {
			return i
		}
	}
	return -1
}

// reopenFlag forgets the answer to id and asks it again.
func (c *Controller) reopenFlag(id string) {
	delete(c.sel.FlagValues, id)
	c.refreshVisible()
	c.sel.Step = StepFlag
	c.sel.CurrentFlagIndex = flagPosition(c.sel.VisibleFlags, id)
	if c.sel.CurrentFlagIndex < 0 {
		c.sel.CurrentFlagIndex = 0
	}
}

// clearEvent drops the event and every answer given for it, keeping the category.
func (c *Controller) clearEvent() {
	category := c.sel.Category
	c.sel = newSelection()
	c.sel.Category = category
	c.label = models.EventLabel{}
	c.session.ClearEvent()
}

// checkActiveFlag backs out of a first flag that cannot be answered.
func (c *Controller) checkActiveFlag() {
	flag, ok := c.sel.CurrentFlag()
	if !ok || flag.Usable() {
		return
	}
	c.warn(fmt.Sprintf("flag %q has no values", flag.Name))
	c.Back()
}

// sync mirrors the selection onto the session.
func (c *Controller) sync() {
	c.session.SelectedEventCategory = c.sel.Category
	if !c.sel.HasEvent() {
		c.session.SelectedEventType = ""
		c.session.SelectedEventDetails = nil
		return
	}

	d := c.Draft()
	c.session.SelectedEventCategory = d.Category
	c.session.SelectedEventType = d.EventName
	c.session.SelectedEventDetails = &d
}

func (c *Controller) warn(msg string) {
	c.logger.Warn(msg, "step", c.sel.Step, "event", c.sel.EventID)
	c.notify(msg)
}

func flagPosition(flags []models.Flag, id string) int {
	for i, f := range flags {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func hasValue(f models.Flag, value string) bool {
	for _, v := range f.Values {
		if v.Value == value {
			return true
		}
	}
	return false
}
