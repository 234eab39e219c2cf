// package formatter exports the match log to various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
)

// Format names a supported export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat maps a user-supplied name (or file extension) to a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Export renders events in format f.
func Export(f Format, title string, events []models.GameEvent) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(events)
	case FormatJSON:
		return ExportToJSON(events)
	case FormatMarkdown:
		return ExportToMarkdown(title, events)
	case FormatText:
		return ExportToText(title, events)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV converts events to CSV with columns: Seq, Game Time, Video Time, Team, Player, Number, Location, Event, Details, Category
func ExportToCSV(events []models.GameEvent) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Seq", "Game Time", "Video Time", "Team", "Player", "Number", "Location", "Event", "Details", "Category"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range events {
		record := []string{
			strconv.Itoa(e.Sequence),
			e.GameTime,
			strconv.FormatFloat(e.VideoTime, 'f', 3, 64),
			e.Team,
			e.Player.Name,
			strconv.Itoa(e.Player.Number),
			e.Location,
			e.EventName,
			e.EventDetails,
			e.Category,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts events to an indented JSON array.
func ExportToJSON(events []models.GameEvent) ([]byte, error) {
	if events == nil {
		events = []models.GameEvent{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode events: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToMarkdown converts events to a Markdown document with a per-team summary and an event table
func ExportToMarkdown(title string, events []models.GameEvent) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Match Log"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Events**: %d\n", len(events)))

	teams, counts := countByTeam(events)
	for _, team := range teams {
		buf.WriteString(fmt.Sprintf("**%s**: %d\n", team, counts[team]))
	}

	buf.WriteString("\n## Events\n\n")
	buf.WriteString("| # | Time | Team | Player | Zone | Details |\n")
	buf.WriteString("|---|------|------|--------|------|---------|\n")
	for _, e := range events {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			e.Sequence, e.GameTime, cell(e.Team), cell(e.Player.String()), e.Location, cell(e.EventDetails)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts events to plain text, one event per line
func ExportToText(title string, events []models.GameEvent) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		buf.WriteString(fmt.Sprintf("Match: %s\n", title))
	}
	buf.WriteString(fmt.Sprintf("Events: %d\n\n", len(events)))

	for _, e := range events {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s %s @ %s: %s\n", e.Sequence, e.GameTime, e.Team, e.Player, e.Location, e.EventDetails))
	}

	return buf.Bytes(), nil
}

// WriteExport renders events in format f to path.
//
// Defaults to match_log.{ext} as the filename.
func WriteExport(f Format, title string, events []models.GameEvent, path string) (string, error) {
	if path == "" {
		ext := string(f)
		if f == FormatMarkdown {
			ext = "md"
		}
		path = "match_log." + ext
	}

	data, err := Export(f, title, events)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// countByTeam returns team names in first-seen order with their event counts.
func countByTeam(events []models.GameEvent) ([]string, map[string]int) {
	var teams []string
	counts := map[string]int{}
	for _, e := range events {
		if _, ok := counts[e.Team]; !ok {
			teams = append(teams, e.Team)
		}
		counts[e.Team]++
	}
	return teams, counts
}

// cell escapes pipes so a value cannot break the table row.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
