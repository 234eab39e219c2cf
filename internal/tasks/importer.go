package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
)

// Document is a taxonomy import file.
type Document struct {
	Flags  []models.RawFlag  `json:"flags"`
	Labels []models.RawLabel `json:"labels"`
}

// ParseDocument decodes a JSON import document.
func ParseDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: import document: %v", shared.ErrInvalidInput, err)
	}
	return &doc, nil
}

// ValidateFlag applies authoring rules to a flag row: a name, values, and single-character hotkeys unique within the flag.
func ValidateFlag(raw models.RawFlag) error {
	flag, issues := taxonomy.NormalizeFlag(raw)
	if err := blocking(issues); err != nil {
		return err
	}
	if err := flag.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}

// ValidateLabel applies authoring rules to a label row; every flag and condition must resolve against flags.
func ValidateLabel(raw models.RawLabel, flags map[string]models.Flag) error {
	label, issues := taxonomy.NormalizeLabel(raw, flags)
	if err := blocking(issues); err != nil {
		return err
	}
	if err := label.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}

// CheckReservedKeys rejects hotkeys that the wizard binds to another action, such as a single-letter save key.
//
// Keys are compared case-insensitively; multi-character keys like "enter" cannot collide and are ignored.
func CheckReservedKeys(hotkeys, reserved []string) error {
	taken := make(map[string]string, len(reserved))
	for _, k := range reserved {
		if key := models.NormalizeKey(k); len([]rune(key)) == 1 {
			taken[key] = k
		}
	}

	for _, h := range hotkeys {
		if action, ok := taken[models.NormalizeKey(h)]; ok {
			return fmt.Errorf("%w: hotkey %s is reserved by the wizard key %q", shared.ErrValidation, models.NormalizeKey(h), action)
		}
	}
	return nil
}

// FlagHotkeys returns the hotkeys of a flag row's values after normalization.
func FlagHotkeys(raw models.RawFlag) []string {
	flag, _ := taxonomy.NormalizeFlag(raw)
	keys := make([]string, len(flag.Values))
	for i, v := range flag.Values {
		keys[i] = v.Hotkey
	}
	return keys
}

// blocking joins the issues that authoring must not introduce: anything above low severity.
func blocking(issues []taxonomy.Issue) error {
	var errs []error
	for _, i := range issues {
		if i.Severity > taxonomy.SeverityLow {
			errs = append(errs, errors.New(i.String()))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", shared.ErrValidation, errors.Join(errs...))
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Written []RowResult
	Failed  []RowResult
}

// Import validates doc against the stored flags and upserts its rows, flags first.
//
// Validation is all-or-nothing; writes are not, and a failed write is logged and skipped.
func (e *Engine) Import(ctx context.Context, progress chan<- ProgressUpdate, doc *Document) (*ImportResult, error) {
	r, err := e.fetch(ctx, progress)
	if err != nil {
		return nil, err
	}

	flags := r.flags
	var errs []error
	for _, raw := range doc.Flags {
		if err := ValidateFlag(raw); err != nil {
			errs = append(errs, fmt.Errorf("flag %s: %w", raw.ID, err))
			continue
		}
		if err := CheckReservedKeys(FlagHotkeys(raw), e.reserved); err != nil {
			errs = append(errs, fmt.Errorf("flag %s: %w", raw.ID, err))
			continue
		}
		flags[raw.ID], _ = taxonomy.NormalizeFlag(raw)
	}
	for _, raw := range doc.Labels {
		if err := ValidateLabel(raw, flags); err != nil {
			errs = append(errs, fmt.Errorf("label %s: %w", raw.ID, err))
			continue
		}
		if err := CheckReservedKeys([]string{raw.Hotkey}, e.reserved); err != nil {
			errs = append(errs, fmt.Errorf("label %s: %w", raw.ID, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	result := &ImportResult{}
	total := len(doc.Flags) + len(doc.Labels)
	record := func(step int, res RowResult) {
		if res.Error != nil {
			e.logger.Warn("import failed; skipping row", "collection", res.Collection, "id", res.ID, "error", res.Error)
			result.Failed = append(result.Failed, res)
		} else {
			result.Written = append(result.Written, res)
		}
		e.sendProgress(progress, importUpdate(step, total, res))
	}

	for i, raw := range doc.Flags {
		record(i+1, RowResult{Collection: taxonomy.CollectionFlags, ID: raw.ID, Error: e.backend.UpsertFlag(ctx, raw)})
	}
	for i, raw := range doc.Labels {
		record(len(doc.Flags)+i+1, RowResult{Collection: taxonomy.CollectionLabels, ID: raw.ID, Error: e.backend.UpsertLabel(ctx, raw)})
	}
	return result, nil
}
