package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/tasks"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
	"github.com/urfave/cli/v3"
)

// TaxonomyList prints the normalized taxonomy with flags in ask order.
func (r *Runner) TaxonomyList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.taxonomyStore(ctx)
	if err != nil {
		return err
	}
	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}

	labels := snap.Labels
	if category := cmd.String("category"); category != "" {
		labels = snap.LabelsInCategory(category)
	}

	if cmd.Bool("json") {
		return r.writeJSON(labels, true)
	}

	for _, category := range snap.Categories() {
		var inCategory []models.EventLabel
		for _, l := range labels {
			if l.Category == category {
				inCategory = append(inCategory, l)
			}
		}
		if len(inCategory) == 0 {
			continue
		}

		r.writePlainHeader(category)
		for _, l := range inCategory {
			r.writePlain("[%s] %s (%s)\n", l.Hotkey, l.Name, l.ID)
			for _, f := range l.Flags {
				values := make([]string, len(f.Values))
				for i, v := range f.Values {
					values[i] = fmt.Sprintf("%s=%s", v.Hotkey, v.Value)
				}
				r.writePlain("    %s: %s\n", f.Name, strings.Join(values, ", "))
			}
		}
		r.writePlain("\n")
	}

	if n := len(snap.Issues); n > 0 {
		r.writePlain("%d data issue(s) found, run 'pitchlog taxonomy diagnose' for details\n", n)
	}
	return nil
}

// TaxonomyImport validates every row of a JSON document, then writes flags before labels.
func (r *Runner) TaxonomyImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to an import document", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import document: %w", err)
	}
	defer f.Close()

	doc, err := tasks.ParseDocument(f)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	result, err := engine.Import(ctx, progress, doc)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n✓ Imported %d row(s)", len(result.Written))
	if len(result.Failed) > 0 {
		r.writePlain(", %d failed", len(result.Failed))
	}
	r.writePlain("\n")
	return nil
}

// TaxonomyLabelSet creates or replaces a label after checking it against the stored flags.
func (r *Runner) TaxonomyLabelSet(ctx context.Context, cmd *cli.Command) error {
	flagIDs := cmd.StringSlice("flag")
	if flagIDs == nil {
		flagIDs = []string{}
	}
	flags, err := json.Marshal(flagIDs)
	if err != nil {
		return fmt.Errorf("failed to encode flags: %w", err)
	}

	conditions := json.RawMessage(`[]`)
	if c := cmd.String("conditions"); c != "" {
		if !json.Valid([]byte(c)) {
			return fmt.Errorf("%w: --conditions is not valid JSON", shared.ErrInvalidInput)
		}
		conditions = json.RawMessage(c)
	}

	raw := models.RawLabel{
		ID:             cmd.String("id"),
		Name:           cmd.String("name"),
		Category:       cmd.String("category"),
		Hotkey:         cmd.String("hotkey"),
		Flags:          flags,
		FlagConditions: conditions,
	}
	if cmd.IsSet("pressure") {
		v := cmd.Bool("pressure")
		raw.RequiresPressure = &v
	}
	if cmd.IsSet("body-part") {
		v := cmd.Bool("body-part")
		raw.RequiresBodyPart = &v
	}

	src, err := r.taxonomySource(ctx)
	if err != nil {
		return err
	}

	stored, err := src.FetchFlags(ctx)
	if err != nil {
		return &taxonomy.FetchError{Collection: taxonomy.CollectionFlags, Err: err}
	}
	byID := make(map[string]models.Flag, len(stored))
	for _, rf := range stored {
		f, _ := taxonomy.NormalizeFlag(rf)
		byID[f.ID] = f
	}

	if err := tasks.ValidateLabel(raw, byID); err != nil {
		return err
	}
	if err := tasks.CheckReservedKeys([]string{raw.Hotkey}, r.reservedKeys()); err != nil {
		return err
	}
	if err := src.UpsertLabel(ctx, raw); err != nil {
		return fmt.Errorf("failed to write label: %w", err)
	}

	r.logger.Info("label saved", "id", raw.ID)
	r.writePlain("✓ Label %s saved\n", raw.ID)
	return nil
}

// TaxonomyFlagSet creates or replaces a flag. Values are given as VALUE or VALUE:HOTKEY.
func (r *Runner) TaxonomyFlagSet(ctx context.Context, cmd *cli.Command) error {
	flag := models.Flag{
		ID:            cmd.String("id"),
		Name:          cmd.String("name"),
		OrderPriority: int(cmd.Int("priority")),
	}
	for _, v := range cmd.StringSlice("value") {
		value, hotkey, _ := strings.Cut(v, ":")
		flag.Values = append(flag.Values, models.FlagValue{Value: strings.TrimSpace(value), Hotkey: strings.TrimSpace(hotkey)})
	}

	raw, err := flag.ToRaw()
	if err != nil {
		return err
	}
	if err := tasks.ValidateFlag(raw); err != nil {
		return err
	}
	if err := tasks.CheckReservedKeys(tasks.FlagHotkeys(raw), r.reservedKeys()); err != nil {
		return err
	}

	src, err := r.taxonomySource(ctx)
	if err != nil {
		return err
	}
	if err := src.UpsertFlag(ctx, raw); err != nil {
		return fmt.Errorf("failed to write flag: %w", err)
	}

	r.logger.Info("flag saved", "id", raw.ID)
	r.writePlain("✓ Flag %s saved\n", raw.ID)
	return nil
}

// TaxonomyDelete removes a label or a flag by id.
func (r *Runner) TaxonomyDelete(ctx context.Context, cmd *cli.Command) error {
	collection := strings.ToLower(cmd.StringArg("collection"))
	id := cmd.StringArg("id")
	if collection == "" || id == "" {
		return fmt.Errorf("%w: usage: taxonomy delete <label|flag> <id>", shared.ErrMissingArgument)
	}

	src, err := r.taxonomySource(ctx)
	if err != nil {
		return err
	}

	switch strings.TrimSuffix(collection, "s") {
	case "label":
		err = src.DeleteLabel(ctx, id)
	case "flag":
		err = src.DeleteFlag(ctx, id)
	default:
		return fmt.Errorf("%w: unknown collection %q", shared.ErrInvalidArgument, collection)
	}
	if err != nil {
		return err
	}

	r.writePlain("✓ Deleted %s %s\n", collection, id)
	return nil
}

// TaxonomyDiagnose reports data issues in stored rows without changing anything.
func (r *Runner) TaxonomyDiagnose(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	report, err := engine.Diagnose(ctx, nil)
	if err != nil {
		return err
	}
	r.metrics.ObserveIssues(report.Issues)

	if cmd.Bool("json") {
		issues := make([]map[string]string, len(report.Issues))
		for i, issue := range report.Issues {
			issues[i] = map[string]string{
				"collection": string(issue.Collection),
				"id":         issue.RowID,
				"kind":       string(issue.Kind),
				"severity":   issue.Severity.String(),
				"message":    issue.Message,
			}
		}
		return r.writeJSON(map[string]any{
			"labels": report.TotalLabels,
			"flags":  report.TotalFlags,
			"issues": issues,
		}, true)
	}

	r.writePlainHeader("Taxonomy Diagnosis")
	r.writePlain("Labels: %d\nFlags: %d\n", report.TotalLabels, report.TotalFlags)
	if report.Clean() {
		r.writePlain("\n✓ No issues found\n")
		return nil
	}

	r.writePlain("Issues: %d high, %d medium, %d low\n\n",
		report.Counts[taxonomy.SeverityHigh], report.Counts[taxonomy.SeverityMedium], report.Counts[taxonomy.SeverityLow])
	for _, issue := range report.Issues {
		r.writePlain("  [%s] %s\n", issue.Severity, issue)
	}
	return nil
}

// TaxonomyRepair rewrites affected rows in normalized form.
func (r *Runner) TaxonomyRepair(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	opts := tasks.RepairOpts{DryRun: cmd.Bool("dry-run"), RateLimit: r.config.Taxonomy.RepairRatePerS}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	result, err := engine.Repair(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	title := "Repair Complete"
	if opts.DryRun {
		title = "Repair Dry Run"
	}
	r.writePlainHeader(title)
	r.writePlain("Repaired: %d\nFailed: %d\nSkipped: %d\n", len(result.Repaired), len(result.Failed), len(result.Skipped))
	for _, s := range result.Skipped {
		r.writePlain("  - %s %s needs a manual fix: %v\n", s.Collection, s.ID, s.Error)
	}
	return nil
}
