// Package differ computes the line-level edit records used for change tracking.
//
// The walk is a greedy single-line-lookahead heuristic, not a minimal edit
// script: it only resynchronizes after a single inserted or deleted line, so a
// multi-line shift surfaces as a run of replace entries. Stored change line
// numbers depend on this behavior.
package differ

import (
	"strings"

	"github.com/xxxsen/redline/internal/model"
)

type Op string

const (
	OpEqual   Op = "equal"
	OpInsert  Op = "insert"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
)

// Entry is one step of the walk. Indexes are 0-based; -1 means the side
// did not take part in the step.
type Entry struct {
	Op            Op     `json:"op"`
	OriginalIndex int    `json:"originalIndex"`
	ModifiedIndex int    `json:"modifiedIndex"`
	Original      string `json:"original,omitempty"`
	Modified      string `json:"modified,omitempty"`
}

// SplitLines splits on "\n". The empty string has no lines.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func Diff(original, modified string) []Entry {
	a := SplitLines(original)
	b := SplitLines(modified)
	entries := make([]Entry, 0, max(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i >= len(a):
			entries = append(entries, Entry{Op: OpInsert, OriginalIndex: -1, ModifiedIndex: j, Modified: b[j]})
			j++
		case j >= len(b):
			entries = append(entries, Entry{Op: OpDelete, OriginalIndex: i, ModifiedIndex: -1, Original: a[i]})
			i++
		case a[i] == b[j]:
			entries = append(entries, Entry{Op: OpEqual, OriginalIndex: i, ModifiedIndex: j, Original: a[i], Modified: b[j]})
			i++
			j++
		case i+1 < len(a) && a[i+1] == b[j]:
			entries = append(entries, Entry{Op: OpDelete, OriginalIndex: i, ModifiedIndex: -1, Original: a[i]})
			i++
		case j+1 < len(b) && b[j+1] == a[i]:
			entries = append(entries, Entry{Op: OpInsert, OriginalIndex: -1, ModifiedIndex: j, Modified: b[j]})
			j++
		default:
			entries = append(entries, Entry{Op: OpReplace, OriginalIndex: i, ModifiedIndex: j, Original: a[i], Modified: b[j]})
			i++
			j++
		}
	}
	return entries
}

// ToChanges converts non-equal entries into pending change records. Line
// numbers are 1-based: modified side for additions and modifications,
// original side for deletions. RevisionID is left for the caller to set.
func ToChanges(entries []Entry) []model.Change {
	changes := make([]model.Change, 0, len(entries))
	for _, entry := range entries {
		switch entry.Op {
		case OpInsert:
			changes = append(changes, model.Change{
				Type:       model.ChangeTypeAddition,
				LineNumber: entry.ModifiedIndex + 1,
				Content:    entry.Modified,
				Status:     model.ChangeStatusPending,
			})
		case OpDelete:
			original := entry.Original
			changes = append(changes, model.Change{
				Type:            model.ChangeTypeDeletion,
				LineNumber:      entry.OriginalIndex + 1,
				Content:         entry.Original,
				OriginalContent: &original,
				Status:          model.ChangeStatusPending,
			})
		case OpReplace:
			original := entry.Original
			changes = append(changes, model.Change{
				Type:            model.ChangeTypeModification,
				LineNumber:      entry.ModifiedIndex + 1,
				Content:         entry.Modified,
				OriginalContent: &original,
				Status:          model.ChangeStatusPending,
			})
		}
	}
	return changes
}

// Snapshots is ToChanges projected onto the revision snapshot shape.
func Snapshots(original, modified string) []model.ChangeSnapshot {
	changes := ToChanges(Diff(original, modified))
	out := make([]model.ChangeSnapshot, 0, len(changes))
	for _, change := range changes {
		out = append(out, change.Snapshot())
	}
	return out
}
