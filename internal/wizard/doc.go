// Package wizard implements the event-logging wizard: a state machine that walks the operator from a category
// and event through pressure, body part, and the event's flags.
//
// # Steps
//
// Choosing an event enters the first step the event needs, in the order flags, pressure, body part. Flags are
// asked one at a time in order priority; an answer can hide later flags through the label's conditions (see
// [VisibleFlags]). When nothing is left to ask the wizard is back at [StepDefault] and the event can be saved.
//
// # Keys
//
// [Controller.HandleKey] matches a single key against the current step's [Choice] list only. Save and cancel keys
// belong to the surrounding UI.
package wizard
