package taxonomy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/pitchlog/internal/models"
)

// entryKind tags the stored shape of one flag value.
type entryKind int

const (
	entryUnusable   entryKind = iota // null or nested array
	entryLegacy                      // bare string
	entryStructured                  // {value, hotkey}, possibly incomplete
	entryScalar                      // number or boolean literal
)

// valueEntry is one stored flag value, decoded into a tagged variant.
type valueEntry struct {
	kind   entryKind
	value  string
	hotkey string
}

// UnmarshalJSON implements [json.Unmarshaler] for every shape a value has been stored in.
func (e *valueEntry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || isNull(b):
		e.kind = entryUnusable
	case b[0] == '"':
		e.kind = entryLegacy
		return json.Unmarshal(b, &e.value)
	case b[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		e.kind = entryStructured
		e.value = scalarString(obj["value"])
		e.hotkey = scalarString(obj["hotkey"])
	case b[0] == '[':
		e.kind = entryUnusable
	default:
		e.kind = entryScalar
		e.value = string(b)
	}
	return nil
}

// NormalizeFlag converts a stored flag row into its structured form and records every repair made.
func NormalizeFlag(raw models.RawFlag) (models.Flag, []Issue) {
	log := &issueLog{collection: CollectionFlags, rowID: raw.ID}

	flag := models.Flag{
		ID:            raw.ID,
		Name:          raw.Name,
		Description:   raw.Description,
		OrderPriority: raw.OrderPriority,
		Values:        normalizeValues(raw.Values, log),
	}
	return flag, log.issues
}

func normalizeValues(raw json.RawMessage, log *issueLog) []models.FlagValue {
	entries := decodeValueList(raw, log)

	out := make([]models.FlagValue, 0, len(entries))
	legacy := 0
	for i, e := range entries {
		switch e.kind {
		case entryLegacy:
			legacy++
			if strings.TrimSpace(e.value) == "" {
				log.add(IssueMalformedValue, "value %d is a blank string", i)
				out = append(out, placeholderValue(i, "", ""))
				continue
			}
			out = append(out, models.FlagValue{Value: e.value, Hotkey: models.HotkeyFromIndex(i)})
		case entryStructured:
			if e.value != "" && e.hotkey != "" {
				out = append(out, models.FlagValue{Value: e.value, Hotkey: e.hotkey})
				continue
			}
			log.add(IssueMalformedValue, "value %d is missing its value or hotkey", i)
			out = append(out, placeholderValue(i, e.value, e.hotkey))
		case entryScalar:
			log.add(IssueMalformedValue, "value %d is a bare literal %s", i, e.value)
			out = append(out, models.FlagValue{Value: e.value, Hotkey: models.HotkeyFromIndex(i)})
		default:
			log.add(IssueMalformedValue, "value %d is null or nested and was dropped", i)
		}
	}

	if legacy > 0 {
		log.add(IssueLegacyStringValues, "%d value(s) stored as bare strings", legacy)
	}
	if len(out) == 0 {
		log.add(IssueMissingValues, "flag has no usable values")
	}
	return out
}

func placeholderValue(i int, value, hotkey string) models.FlagValue {
	if value == "" {
		value = fmt.Sprintf("Option %d", i+1)
	}
	if hotkey == "" {
		hotkey = models.HotkeyFromIndex(i)
	}
	return models.FlagValue{Value: value, Hotkey: hotkey}
}

// decodeValueList accepts an array, a JSON document encoded inside a string, a comma-separated string, or an object
// (either a single value or an index-keyed map).
func decodeValueList(raw json.RawMessage, log *issueLog) []valueEntry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	switch raw[0] {
	case '[':
		var entries []valueEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			log.add(IssueInvalidValuesJSON, "values are not valid JSON: %v", err)
			return nil
		}
		return entries

	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			log.add(IssueInvalidValuesJSON, "values are not valid JSON: %v", err)
			return nil
		}
		inner = strings.TrimSpace(inner)
		if looksLikeJSON(inner) {
			log.add(IssueEncodedValues, "values stored as a JSON string")
			return decodeValueList(json.RawMessage(inner), log)
		}
		var entries []valueEntry
		for _, part := range strings.Split(inner, ",") {
			if part = strings.TrimSpace(part); part != "" {
				entries = append(entries, valueEntry{kind: entryLegacy, value: part})
			}
		}
		return entries

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			log.add(IssueInvalidValuesJSON, "values are not valid JSON: %v", err)
			return nil
		}
		log.add(IssueObjectValues, "values stored as an object instead of an array")
		if _, ok := obj["value"]; ok {
			var e valueEntry
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil
			}
			return []valueEntry{e}
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return indexLess(keys[i], keys[j]) })
		entries := make([]valueEntry, 0, len(keys))
		for _, k := range keys {
			var e valueEntry
			if err := json.Unmarshal(obj[k], &e); err != nil {
				e = valueEntry{kind: entryUnusable}
			}
			entries = append(entries, e)
		}
		return entries

	default:
		log.add(IssueInvalidValuesJSON, "values are neither an array nor an object")
		return nil
	}
}

// NormalizeLabel converts a stored label row, attaching flags from flagsByID in ask order.
//
// Flag ids that do not resolve are dropped. Conditions referring to unattached flags are dropped, and
// unattached ids are removed from the hide lists of the remaining conditions.
func NormalizeLabel(raw models.RawLabel, flagsByID map[string]models.Flag) (models.EventLabel, []Issue) {
	log := &issueLog{collection: CollectionLabels, rowID: raw.ID}

	label := models.EventLabel{
		ID:               raw.ID,
		Name:             raw.Name,
		Category:         raw.Category,
		Hotkey:           raw.Hotkey,
		Description:      raw.Description,
		Flags:            []models.Flag{},
		RequiresPressure: raw.RequiresPressure,
		RequiresBodyPart: raw.RequiresBodyPart,
	}

	attached := map[string]bool{}
	for _, id := range decodeFlagIDs(raw.Flags, log) {
		if attached[id] {
			continue
		}
		flag, ok := flagsByID[id]
		if !ok {
			log.add(IssueMissingFlag, "flag %q does not exist", id)
			continue
		}
		attached[id] = true
		label.Flags = append(label.Flags, flag)
	}
	sort.SliceStable(label.Flags, func(i, j int) bool {
		return label.Flags[i].OrderPriority < label.Flags[j].OrderPriority
	})

	label.FlagConditions = normalizeConditions(raw.FlagConditions, attached, log)
	return label, log.issues
}

func decodeFlagIDs(raw json.RawMessage, log *issueLog) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			log.add(IssueInvalidFlagList, "flag list is not valid JSON: %v", err)
			return nil
		}
		inner = strings.TrimSpace(inner)
		if looksLikeJSON(inner) {
			return decodeFlagIDs(json.RawMessage(inner), log)
		}
		var ids []string
		for _, part := range strings.Split(inner, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
		return ids
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		log.add(IssueInvalidFlagList, "flag list is not a JSON array: %v", err)
		return nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '{' {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(item, &obj); err == nil {
				if id := scalarString(obj["id"]); id != "" {
					ids = append(ids, id)
				}
			}
			continue
		}
		if id := scalarString(item); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func normalizeConditions(raw json.RawMessage, attached map[string]bool, log *issueLog) []models.FlagCondition {
	out := []models.FlagCondition{}
	for i, obj := range decodeConditionObjects(raw, log) {
		cond := models.FlagCondition{
			FlagID:         scalarString(obj["flagId"]),
			Value:          scalarString(obj["value"]),
			FlagsToHideIDs: []string{},
		}

		hide, hasHide := obj["flagsToHideIds"]
		if hasHide && !isNull(bytes.TrimSpace(hide)) {
			cond.FlagsToHideIDs = stringList(hide)
		}
		if next, ok := obj["nextFlagId"]; ok {
			if !hasHide {
				log.add(IssueLegacyCondition, "condition %d uses nextFlagId", i)
			}
			if id := scalarString(next); id != "" && !contains(cond.FlagsToHideIDs, id) {
				cond.FlagsToHideIDs = append(cond.FlagsToHideIDs, id)
			}
		}

		if cond.FlagID == "" {
			log.add(IssueMalformedCondition, "condition %d has no flagId and was dropped", i)
			continue
		}
		if !attached[cond.FlagID] {
			log.add(IssueDanglingCondition, "condition %d refers to unattached flag %q and was dropped", i, cond.FlagID)
			continue
		}

		kept := cond.FlagsToHideIDs[:0]
		for _, id := range cond.FlagsToHideIDs {
			if !attached[id] {
				log.add(IssueDanglingCondition, "condition %d hides unattached flag %q", i, id)
				continue
			}
			kept = append(kept, id)
		}
		cond.FlagsToHideIDs = kept
		out = append(out, cond)
	}
	return out
}

func decodeConditionObjects(raw json.RawMessage, log *issueLog) []map[string]json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	switch raw[0] {
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil || !json.Valid([]byte(inner)) {
			log.add(IssueInvalidConditionJSON, "conditions are not valid JSON")
			return nil
		}
		return decodeConditionObjects(json.RawMessage(inner), log)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			log.add(IssueInvalidConditionJSON, "conditions are not valid JSON: %v", err)
			return nil
		}
		log.add(IssueMalformedCondition, "conditions stored as a single object")
		return []map[string]json.RawMessage{obj}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			log.add(IssueInvalidConditionJSON, "conditions are not valid JSON: %v", err)
			return nil
		}
		objs := make([]map[string]json.RawMessage, 0, len(items))
		for i, item := range items {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
				log.add(IssueMalformedCondition, "condition %d is not an object and was dropped", i)
				continue
			}
			objs = append(objs, obj)
		}
		return objs
	default:
		log.add(IssueInvalidConditionJSON, "conditions are neither an array nor an object")
		return nil
	}
}

// Normalize builds a snapshot from raw rows, returning the issues found along the way.
func Normalize(rawLabels []models.RawLabel, rawFlags []models.RawFlag) *Snapshot {
	snap := &Snapshot{
		Labels: make([]models.EventLabel, 0, len(rawLabels)),
		Flags:  make([]models.Flag, 0, len(rawFlags)),
	}

	flagsByID := make(map[string]models.Flag, len(rawFlags))
	for _, raw := range rawFlags {
		flag, issues := NormalizeFlag(raw)
		snap.Flags = append(snap.Flags, flag)
		snap.Issues = append(snap.Issues, issues...)
		flagsByID[flag.ID] = flag
	}

	for _, raw := range rawLabels {
		label, issues := NormalizeLabel(raw, flagsByID)
		snap.Labels = append(snap.Labels, label)
		snap.Issues = append(snap.Issues, issues...)
	}

	return snap
}

func isNull(b []byte) bool {
	return bytes.Equal(b, []byte("null"))
}

func looksLikeJSON(s string) bool {
	return (strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")) && json.Valid([]byte(s))
}

// scalarString renders a JSON string, number, or boolean as text; anything else is "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{', '[':
		return ""
	default:
		return string(raw)
	}
}

func stringList(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := scalarString(raw); s != "" {
			return []string{s}
		}
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := scalarString(item); s != "" && !contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// indexLess orders map keys numerically when both are integers.
func indexLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
