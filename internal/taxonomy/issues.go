package taxonomy

import "fmt"

// Severity ranks a taxonomy data problem.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return ""
	}
}

// IssueKind classifies a taxonomy data problem.
type IssueKind string

const (
	IssueLegacyStringValues   IssueKind = "legacy_string_values"
	IssueObjectValues         IssueKind = "object_values"
	IssueEncodedValues        IssueKind = "string_encoded_values"
	IssueMalformedValue       IssueKind = "malformed_value"
	IssueMissingValues        IssueKind = "missing_values"
	IssueInvalidValuesJSON    IssueKind = "invalid_values_json"
	IssueLegacyCondition      IssueKind = "legacy_condition"
	IssueMalformedCondition   IssueKind = "malformed_condition"
	IssueInvalidConditionJSON IssueKind = "invalid_condition_json"
	IssueDanglingCondition    IssueKind = "dangling_condition_reference"
	IssueMissingFlag          IssueKind = "missing_flag_reference"
	IssueInvalidFlagList      IssueKind = "invalid_flag_list"
)

// Issue is one problem found in a stored taxonomy row.
type Issue struct {
	Collection Collection
	RowID      string
	Kind       IssueKind
	Severity   Severity
	Message    string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s %s: %s (%s)", i.Severity, i.Collection, i.RowID, i.Message, i.Kind)
}

// severityOf is the fixed severity of each issue kind.
var severityOf = map[IssueKind]Severity{
	IssueLegacyStringValues:   SeverityLow,
	IssueLegacyCondition:      SeverityLow,
	IssueEncodedValues:        SeverityLow,
	IssueObjectValues:         SeverityMedium,
	IssueMalformedValue:       SeverityMedium,
	IssueMalformedCondition:   SeverityMedium,
	IssueMissingFlag:          SeverityMedium,
	IssueMissingValues:        SeverityHigh,
	IssueInvalidValuesJSON:    SeverityHigh,
	IssueInvalidConditionJSON: SeverityHigh,
	IssueDanglingCondition:    SeverityHigh,
	IssueInvalidFlagList:      SeverityHigh,
}

// issueLog accumulates issues for one row.
type issueLog struct {
	collection Collection
	rowID      string
	issues     []Issue
}

func (l *issueLog) add(kind IssueKind, format string, args ...any) {
	l.issues = append(l.issues, Issue{
		Collection: l.collection,
		RowID:      l.rowID,
		Kind:       kind,
		Severity:   severityOf[kind],
		Message:    fmt.Sprintf(format, args...),
	})
}

// CountBySeverity tallies issues per severity.
func CountBySeverity(issues []Issue) map[Severity]int {
	counts := map[Severity]int{}
	for _, i := range issues {
		counts[i.Severity]++
	}
	return counts
}
