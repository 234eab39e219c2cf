package tasks

import (
	"fmt"

	"github.com/desertthunder/pitchlog/internal/taxonomy"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, a [RowResult] for row writes
}

// Operation phase enumeration
type Phase int

const (
	FetchRows Phase = iota
	DiagnoseRows
	RepairRows
	ImportRows
)

func (p Phase) String() string {
	switch p {
	case FetchRows:
		return "fetch_rows"
	case DiagnoseRows:
		return "diagnose_rows"
	case RepairRows:
		return "repair_rows"
	case ImportRows:
		return "import_rows"
	default:
		return ""
	}
}

func fetchUpdate(step, total int, c taxonomy.Collection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s...", c),
	}
}

func diagnoseUpdate(step, total int, c taxonomy.Collection, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DiagnoseRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking %s %s", step, total, c, id),
	}
}

func repairUpdate(step, total int, res RowResult, dryRun bool) ProgressUpdate {
	verb := "Repaired"
	if dryRun {
		verb = "Would repair"
	}
	msg := fmt.Sprintf("[%d/%d] ✓ %s %s %s", step, total, verb, res.Collection, res.ID)
	if res.Error != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s %s: %v", step, total, res.Collection, res.ID, res.Error)
	}
	return ProgressUpdate{Phase: RepairRows, Step: step, Total: total, Message: msg, Data: res}
}

func importUpdate(step, total int, res RowResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s %s", step, total, res.Collection, res.ID)
	if res.Error != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s %s: %v", step, total, res.Collection, res.ID, res.Error)
	}
	return ProgressUpdate{Phase: ImportRows, Step: step, Total: total, Message: msg, Data: res}
}
