package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/pitchlog/internal/metrics"
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/repositories"
	"github.com/desertthunder/pitchlog/internal/services"
	"github.com/desertthunder/pitchlog/internal/shared"
	tu "github.com/desertthunder/pitchlog/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			db := tu.MustOpenDB(t)
			m := metrics.NewManager()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				DB:         db,
				Metrics:    m,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.db != db {
				t.Error("expected db to be set")
			}
			if runner.metrics != m {
				t.Error("expected metrics to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil metrics creates a manager", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.metrics == nil {
				t.Error("expected a metrics manager")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("missing file keeps defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
			if err := runner.LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.Database.Path != "./pitchlog.db" {
				t.Errorf("expected default database path, got %s", runner.config.Database.Path)
			}
		})

		t.Run("reads file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("[database]\npath = \"match.db\"\n"), 0644)

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
			if err := runner.LoadConfig(path); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.Database.Path != "match.db" {
				t.Errorf("expected database path from file, got %s", runner.config.Database.Path)
			}
			if runner.configPath != path {
				t.Errorf("expected configPath %s, got %s", path, runner.configPath)
			}
		})

		t.Run("invalid file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("[taxonomy]\nsource = \"ftp\"\n"), 0644)

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
			if err := runner.LoadConfig(path); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("roster", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Roster.Teams = []shared.TeamConfig{
			{Name: "Home", Players: []shared.PlayerConfig{{ID: "home-9", Name: "Striker", Number: 9}}},
			{Name: "Away", Players: []shared.PlayerConfig{{Name: "Keeper", Number: 1}}},
		}
		runner := NewRunner(RunnerOpts{Config: config})

		players := runner.roster()
		if len(players) != 2 {
			t.Fatalf("expected 2 players, got %d", len(players))
		}
		if players[0].Team != "Home" || players[0].ID != "home-9" {
			t.Errorf("unexpected first player %+v", players[0])
		}
		if players[1].ID != "Away-1" {
			t.Errorf("expected derived id Away-1, got %s", players[1].ID)
		}
	})

	t.Run("taxonomyBackend", func(t *testing.T) {
		t.Run("sqlite", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{DB: tu.MustOpenDB(t)})
			backend, err := runner.taxonomyBackend(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, ok := backend.(*repositories.TaxonomyBackend); !ok {
				t.Errorf("expected sqlite backend, got %T", backend)
			}
		})

		t.Run("remote", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Taxonomy.Source = "remote"
			config.Remote.BaseURL = "http://localhost:54321"
			runner := NewRunner(RunnerOpts{Config: config})

			backend, err := runner.taxonomyBackend(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, ok := backend.(*services.RESTBackend); !ok {
				t.Errorf("expected REST backend, got %T", backend)
			}
		})

		t.Run("remote without url", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Taxonomy.Source = "remote"
			runner := NewRunner(RunnerOpts{Config: config})

			if _, err := runner.taxonomyBackend(context.Background()); !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})
	})
}

// run executes the CLI against an in-memory database, returning what the command wrote.
func run(t *testing.T, runner *Runner, args ...string) (string, error) {
	t.Helper()
	out := runner.output.(*bytes.Buffer)
	out.Reset()

	app := &cli.Command{Name: "pitchlog", Commands: runner.register()}
	err := app.Run(context.Background(), append([]string{"pitchlog"}, args...))
	return out.String(), err
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(RunnerOpts{
		DB:     tu.MustOpenDB(t),
		Logger: shared.NewLogger(io.Discard),
		Output: &bytes.Buffer{},
	})
}

func TestTaxonomyCommands(t *testing.T) {
	t.Run("set and list", func(t *testing.T) {
		runner := newTestRunner(t)

		if _, err := run(t, runner, "taxonomy", "flag", "set",
			"--id", "outcome", "--name", "Outcome", "--priority", "1",
			"--value", "Successful:Q", "--value", "Unsuccessful:W"); err != nil {
			t.Fatalf("flag set failed: %v", err)
		}
		if _, err := run(t, runner, "taxonomy", "label", "set",
			"--id", "pass", "--name", "Pass", "--category", "Attacking", "--hotkey", "P",
			"--flag", "outcome", "--pressure"); err != nil {
			t.Fatalf("label set failed: %v", err)
		}

		out, err := run(t, runner, "taxonomy", "list", "--json")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		var labels []models.EventLabel
		if err := json.Unmarshal([]byte(out), &labels); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, out)
		}
		if len(labels) != 1 || len(labels[0].Flags) != 1 || labels[0].Flags[0].Values[1].Hotkey != "W" {
			t.Errorf("unexpected labels %+v", labels)
		}
		if labels[0].RequiresPressure == nil || !*labels[0].RequiresPressure {
			t.Error("expected requiresPressure to be stored")
		}

		out, _ = run(t, runner, "taxonomy", "list")
		if !strings.Contains(out, "[P] Pass (pass)") || !strings.Contains(out, "Q=Successful") {
			t.Errorf("unexpected list output:\n%s", out)
		}
	})

	t.Run("label with unknown flag is rejected", func(t *testing.T) {
		runner := newTestRunner(t)

		_, err := run(t, runner, "taxonomy", "label", "set",
			"--id", "pass", "--name", "Pass", "--category", "Attacking", "--flag", "ghost")
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("flag without values is rejected", func(t *testing.T) {
		runner := newTestRunner(t)

		_, err := run(t, runner, "taxonomy", "flag", "set", "--id", "speed", "--name", "Speed", "--value", ":Q")
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("hotkey reserved by the save key is rejected", func(t *testing.T) {
		runner := newTestRunner(t)

		_, err := run(t, runner, "taxonomy", "flag", "set", "--id", "speed", "--name", "Speed",
			"--value", "Fast:F", "--value", "Slow:B")
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}

		runner.config.Wizard.SaveKeys = []string{"enter"}
		if _, err := run(t, runner, "taxonomy", "flag", "set", "--id", "speed", "--name", "Speed",
			"--value", "Fast:F", "--value", "Slow:B"); err != nil {
			t.Errorf("expected B to be free once it is no longer a save key, got %v", err)
		}
	})

	t.Run("import, diagnose, repair", func(t *testing.T) {
		runner := newTestRunner(t)
		db := runner.db
		ctx := context.Background()

		doc := map[string]any{"flags": tu.SampleFlags()[:1], "labels": []models.RawLabel{tu.SampleLabels()[1]}}
		data, _ := json.Marshal(doc)
		path := filepath.Join(t.TempDir(), "taxonomy.json")
		os.WriteFile(path, data, 0644)

		out, err := run(t, runner, "taxonomy", "import", path)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(out, "Imported 2 row(s)") {
			t.Errorf("unexpected import output:\n%s", out)
		}

		for _, f := range tu.SampleFlags()[1:] {
			if err := repositories.NewFlagRepository(db).Upsert(ctx, f); err != nil {
				t.Fatalf("failed to seed legacy flag: %v", err)
			}
		}

		out, err = run(t, runner, "taxonomy", "diagnose")
		if err != nil {
			t.Fatalf("diagnose failed: %v", err)
		}
		if !strings.Contains(out, "legacy_string_values") {
			t.Errorf("expected legacy value issue in diagnosis:\n%s", out)
		}

		out, err = run(t, runner, "taxonomy", "repair", "--dry-run")
		if err != nil {
			t.Fatalf("repair dry run failed: %v", err)
		}
		if !strings.Contains(out, "Repair Dry Run") || !strings.Contains(out, "Repaired: 2") {
			t.Errorf("unexpected dry run output:\n%s", out)
		}

		if _, err := run(t, runner, "taxonomy", "repair", "--rate", "1000"); err != nil {
			t.Fatalf("repair failed: %v", err)
		}
		out, _ = run(t, runner, "taxonomy", "diagnose")
		if !strings.Contains(out, "No issues found") {
			t.Errorf("expected clean diagnosis after repair:\n%s", out)
		}
	})

	t.Run("delete", func(t *testing.T) {
		runner := newTestRunner(t)
		run(t, runner, "taxonomy", "flag", "set", "--id", "outcome", "--name", "Outcome", "--value", "Yes:Q")

		if _, err := run(t, runner, "taxonomy", "delete", "flag", "outcome"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := run(t, runner, "taxonomy", "delete", "flag", "outcome"); !errors.Is(err, shared.ErrFlagNotFound) {
			t.Errorf("expected ErrFlagNotFound, got %v", err)
		}
		if _, err := run(t, runner, "taxonomy", "delete", "player", "x"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := run(t, runner, "taxonomy", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestEventsCommands(t *testing.T) {
	runner := newTestRunner(t)
	ctx := context.Background()

	eventLog, err := runner.eventLog()
	if err != nil {
		t.Fatalf("failed to open event log: %v", err)
	}
	for _, e := range []models.GameEvent{
		{ID: "e1", Player: tu.SamplePlayer(), Team: "Home", EventName: "Pass", EventDetails: "Pass (Pressure)", Location: "C2"},
		{ID: "e2", Player: models.Player{ID: "away-4", Name: "Away Defender", Team: "Away"}, Team: "Away", EventName: "Tackle", EventDetails: "Tackle"},
	} {
		if _, err := eventLog.Append(ctx, e); err != nil {
			t.Fatalf("failed to seed event: %v", err)
		}
	}

	t.Run("list", func(t *testing.T) {
		out, err := run(t, runner, "events", "list", "--json", "--team", "Away")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		var events []models.GameEvent
		if err := json.Unmarshal([]byte(out), &events); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if len(events) != 1 || events[0].ID != "e2" {
			t.Errorf("expected only e2, got %+v", events)
		}

		out, _ = run(t, runner, "events", "list")
		if !strings.Contains(out, "Pass (Pressure)") || !strings.Contains(out, "Tackle") {
			t.Errorf("unexpected text output:\n%s", out)
		}
	})

	t.Run("export", func(t *testing.T) {
		t.Chdir(t.TempDir())

		out, err := run(t, runner, "events", "export", "--format", "md")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(out, "match_log.md") {
			t.Errorf("unexpected output %q", out)
		}
		tu.AssertFileExists(t, "match_log.md")

		if _, err := run(t, runner, "events", "export", "--format", "xlsx"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if _, err := run(t, runner, "events", "delete", "e1"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := run(t, runner, "events", "delete", "e1"); !errors.Is(err, shared.ErrEventNotFound) {
			t.Errorf("expected ErrEventNotFound, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "pitchlog.db")

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(dir, "config.toml"),
		Logger:     shared.NewLogger(io.Discard),
		Output:     &bytes.Buffer{},
	})
	t.Cleanup(func() { runner.Close() })

	if _, err := run(t, runner, "setup", "database"); err != nil {
		t.Fatalf("setup database failed: %v", err)
	}
	tu.AssertFileExists(t, config.Database.Path)
	tu.AssertFileExists(t, runner.configPath)

	if _, err := run(t, runner, "setup", "config"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected existing config to be kept, got %v", err)
	}
}
