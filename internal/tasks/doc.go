// Package tasks runs maintenance over the stored taxonomy with real-time progress reporting.
//
// # Operations
//
//  1. [Engine.Diagnose] : classify every row problem by severity (low, medium, high) without writing
//  2. [Engine.Repair] : rewrite affected rows into normalized form, rate limited, one row at a time
//  3. [Engine.Import] : validate a JSON [Document] and upsert its flags, then its labels
//
// Repair and import are not transactional. A failed row is logged, reported as a [RowResult], and skipped.
// Flags whose values cannot be salvaged are left for a manual fix.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates. Updates use select with default so a slow
// consumer drops updates instead of stalling the operation.
package tasks
