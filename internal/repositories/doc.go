// Package repositories implements SQLite persistence for the taxonomy collections and the game event log.
//
// Key Implementations:
//   - [LabelRepository] : label rows with flag ids and conditions as JSON text
//   - [FlagRepository] : flag rows with values stored as authored
//   - [TaxonomyBackend] : both collections behind the taxonomy Backend interface
//   - [EventRepository] : the append-only match log, ordered by sequence
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
