// Package models defines the domain entities of the pitchlog match logger.
//
// The package contains two categories of types:
//
// 1. Taxonomy: the authored decision tree the event wizard walks
//   - [EventLabel] : A selectable soccer action (e.g. "Pass") with its attached flags and hide conditions
//   - [Flag] : A follow-up question (e.g. "Outcome") with ordered answer options
//   - [FlagValue] : One answer option paired with a single-key shortcut
//   - [FlagCondition] : A rule hiding other flags once a flag/value pair is chosen
//   - [RawLabel], [RawFlag] : Rows as stored, before legacy shapes are normalized
//
// 2. Match log: what the operator records
//   - [GameEvent] : An appended, immutable log entry
//   - [Player], [Location], [Option] : Selections feeding a [GameEvent]
//
// The [Repository] interface defines the CRUD surface shared by the SQLite repositories.
package models
