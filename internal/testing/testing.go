// package testing contains shared testing utilities
package testing

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
)

// MustOpenDB opens an in-memory database with all migrations applied and closes it on cleanup.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func ptr[T any](v T) *T { return &v }

// SampleFlags returns flag rows in the mix of shapes found in real data: structured values, bare strings, and a
// string-encoded document.
func SampleFlags() []models.RawFlag {
	return []models.RawFlag{
		{
			ID: "outcome", Name: "Outcome", OrderPriority: 1,
			Values: json.RawMessage(`[{"value":"Successful","hotkey":"Q"},{"value":"Unsuccessful","hotkey":"W"}]`),
		},
		{
			ID: "direction", Name: "Direction", OrderPriority: 2,
			Values: json.RawMessage(`["Forward","Backward","Lateral"]`),
		},
		{
			ID: "height", Name: "Height", OrderPriority: 3,
			Values: json.RawMessage(`"[{\"value\":\"Ground\",\"hotkey\":\"Q\"},{\"value\":\"Air\",\"hotkey\":\"W\"}]"`),
		},
	}
}

// SampleLabels returns label rows across three categories. Pass hides Direction when Outcome is Unsuccessful.
func SampleLabels() []models.RawLabel {
	return []models.RawLabel{
		{
			ID: "pass", Name: "Pass", Category: "Attacking", Hotkey: "P",
			Flags:          json.RawMessage(`["height","outcome","direction"]`),
			FlagConditions: json.RawMessage(`[{"flagId":"outcome","value":"Unsuccessful","flagsToHideIds":["direction"]}]`),
		},
		{
			ID: "shot", Name: "Shot", Category: "Attacking", Hotkey: "S",
			Flags:          json.RawMessage(`["outcome"]`),
			FlagConditions: json.RawMessage(`[]`),
		},
		{
			ID: "reception", Name: "Reception", Category: "Attacking", Hotkey: "R",
			Flags:          json.RawMessage(`[]`),
			FlagConditions: json.RawMessage(`[]`),
		},
		{
			ID: "tackle", Name: "Tackle", Category: "Defending", Hotkey: "T",
			Flags:          json.RawMessage(`["outcome"]`),
			FlagConditions: json.RawMessage(`[]`),
		},
		{
			ID: "header", Name: "Header", Category: "Defending", Hotkey: "H",
			Flags:          json.RawMessage(`[]`),
			FlagConditions: json.RawMessage(`[]`),
		},
		{
			ID: "corner", Name: "Corner", Category: "Set Piece", Hotkey: "C",
			Flags:            json.RawMessage(`["height"]`),
			FlagConditions:   json.RawMessage(`[]`),
			RequiresBodyPart: ptr(true),
		},
	}
}

// SamplePlayer returns a rostered home player.
func SamplePlayer() models.Player {
	return models.Player{ID: "home-9", Name: "Striker", Number: 9, Team: "Home"}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
