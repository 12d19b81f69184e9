// Package differ summarizes what changed between two versions of a page's
// metadata document.
package differ

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/tidwall/gjson"
)

// Summary describes the difference between two JSON documents.
type Summary struct {
	ChangedFields []string `json:"changedFields,omitempty"`
	LinesAdded    int      `json:"linesAdded"`
	LinesDeleted  int      `json:"linesDeleted"`
	IsIdentical   bool     `json:"isIdentical"`
	Truncated     bool     `json:"truncated,omitempty"`
}

// String renders the summary stored next to a metadata version.
func (s Summary) String() string {
	if s.IsIdentical {
		return "no changes"
	}
	fields := "content"
	if len(s.ChangedFields) > 0 {
		fields = strings.Join(s.ChangedFields, ", ")
	}
	if s.Truncated {
		return fmt.Sprintf("changed: %s (too large for line diff)", fields)
	}
	return fmt.Sprintf("changed: %s (+%d -%d lines)", fields, s.LinesAdded, s.LinesDeleted)
}

// MetadataDiffer compares serialized metadata documents.
type MetadataDiffer struct {
	dmp    *diffmatchpatch.DiffMatchPatch
	config DiffConfig
}

func NewMetadataDiffer(config DiffConfig) *MetadataDiffer {
	return &MetadataDiffer{dmp: diffmatchpatch.New(), config: config}
}

// Compare diffs previous and current. Both must be valid JSON; an empty
// previous document means every top-level field is new.
func (d *MetadataDiffer) Compare(previous, current []byte) (Summary, error) {
	if len(previous) > 0 && !gjson.ValidBytes(previous) {
		return Summary{}, common.NewValidationError("previous", len(previous), "previous document is not valid JSON")
	}
	if !gjson.ValidBytes(current) {
		return Summary{}, common.NewValidationError("current", len(current), "current document is not valid JSON")
	}

	summary := Summary{ChangedFields: changedFields(previous, current)}

	oldText, err := indent(previous)
	if err != nil {
		return Summary{}, err
	}
	newText, err := indent(current)
	if err != nil {
		return Summary{}, err
	}
	if oldText == newText {
		summary.IsIdentical = true
		summary.ChangedFields = nil
		return summary, nil
	}

	if d.config.MaxInputBytes > 0 && (len(oldText) > d.config.MaxInputBytes || len(newText) > d.config.MaxInputBytes) {
		summary.Truncated = true
		return summary, nil
	}

	added, deleted := d.lineStats(oldText, newText)
	summary.LinesAdded = added
	summary.LinesDeleted = deleted
	return summary, nil
}

// lineStats runs a line-mode diff and counts inserted and deleted lines.
func (d *MetadataDiffer) lineStats(oldText, newText string) (int, int) {
	a, b, lines := d.dmp.DiffLinesToChars(oldText, newText)
	diffs := d.dmp.DiffMain(a, b, false)
	diffs = d.dmp.DiffCharsToLines(diffs, lines)
	if d.config.EnableSemanticCleanup {
		diffs = d.dmp.DiffCleanupSemantic(diffs)
	}

	var added, deleted int
	for _, diff := range diffs {
		n := strings.Count(diff.Text, "\n")
		if n == 0 && diff.Text != "" {
			n = 1
		}
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			deleted += n
		}
	}
	return added, deleted
}

// changedFields lists top-level keys whose raw values differ, sorted.
func changedFields(previous, current []byte) []string {
	oldFields := topLevel(previous)
	newFields := topLevel(current)

	seen := make(map[string]struct{})
	var changed []string
	mark := func(key string) {
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			changed = append(changed, key)
		}
	}
	for key, raw := range newFields {
		if oldRaw, ok := oldFields[key]; !ok || !jsonEqual(oldRaw, raw) {
			mark(key)
		}
	}
	for key := range oldFields {
		if _, ok := newFields[key]; !ok {
			mark(key)
		}
	}
	sort.Strings(changed)
	return changed
}

func topLevel(doc []byte) map[string]string {
	fields := make(map[string]string)
	if len(doc) == 0 {
		return fields
	}
	gjson.ParseBytes(doc).ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value.Raw
		return true
	})
	return fields
}

func jsonEqual(a, b string) bool {
	if a == b {
		return true
	}
	ca, errA := compact(a)
	cb, errB := compact(b)
	return errA == nil && errB == nil && ca == cb
}

func compact(raw string) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func indent(doc []byte) (string, error) {
	if len(doc) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return "", common.WrapError(err, "failed to format JSON document")
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}
