package differ

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/redline/internal/model"
)

func ops(entries []Entry) []Op {
	out := make([]Op, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Op)
	}
	return out
}

func countOp(entries []Entry, op Op) int {
	n := 0
	for _, e := range entries {
		if e.Op == op {
			n++
		}
	}
	return n
}

func TestDiffIdenticalInputsAreAllEqual(t *testing.T) {
	inputs := []string{
		"",
		"single",
		"line1\nline2\nline3",
		"dup\ndup\ndup",
		"trailing\n",
		"\n\n",
	}
	for _, s := range inputs {
		entries := Diff(s, s)
		for _, e := range entries {
			require.Equal(t, OpEqual, e.Op, "input %q", s)
		}
		require.Len(t, entries, len(SplitLines(s)))
		require.Empty(t, ToChanges(entries))
	}
}

func TestDiffSingleInsertedLine(t *testing.T) {
	tests := []struct {
		name     string
		original string
		modified string
		line     int
	}{
		{name: "middle", original: "a\nb\nc", modified: "a\nx\nb\nc", line: 2},
		{name: "front", original: "a\nb\nc", modified: "x\na\nb\nc", line: 1},
		{name: "end", original: "a\nb\nc", modified: "a\nb\nc\nx", line: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := Diff(tt.original, tt.modified)
			require.Equal(t, 1, countOp(entries, OpInsert))
			require.Equal(t, len(entries)-1, countOp(entries, OpEqual))
			changes := ToChanges(entries)
			require.Len(t, changes, 1)
			require.Equal(t, model.ChangeTypeAddition, changes[0].Type)
			require.Equal(t, tt.line, changes[0].LineNumber)
			require.Equal(t, "x", changes[0].Content)
		})
	}
}

func TestDiffSingleDeletedLine(t *testing.T) {
	tests := []struct {
		name     string
		original string
		modified string
		line     int
	}{
		{name: "middle", original: "a\nb\nc\nd", modified: "a\nc\nd", line: 2},
		{name: "front", original: "a\nb\nc", modified: "b\nc", line: 1},
		{name: "end", original: "a\nb\nc", modified: "a\nb", line: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := Diff(tt.original, tt.modified)
			require.Equal(t, 1, countOp(entries, OpDelete))
			require.Equal(t, len(entries)-1, countOp(entries, OpEqual))
			changes := ToChanges(entries)
			require.Len(t, changes, 1)
			require.Equal(t, model.ChangeTypeDeletion, changes[0].Type)
			require.Equal(t, tt.line, changes[0].LineNumber)
		})
	}
}

func TestDiffModificationUsesModifiedLineNumber(t *testing.T) {
	changes := ToChanges(Diff("line1\nline2\nline3", "line1\nlineX\nline3"))
	require.Len(t, changes, 1)
	require.Equal(t, model.ChangeTypeModification, changes[0].Type)
	require.Equal(t, 2, changes[0].LineNumber)
	require.Equal(t, "lineX", changes[0].Content)
	require.NotNil(t, changes[0].OriginalContent)
	require.Equal(t, "line2", *changes[0].OriginalContent)
}

func TestDiffMultiLineInsertCascadesIntoReplaces(t *testing.T) {
	entries := Diff("a\nb\nc", "a\nx\ny\nb\nc")
	require.Equal(t, []Op{OpEqual, OpReplace, OpReplace, OpInsert, OpInsert}, ops(entries))
}

func TestDiffEmptyInputs(t *testing.T) {
	require.Empty(t, Diff("", ""))

	inserted := Diff("", "a\nb")
	require.Equal(t, []Op{OpInsert, OpInsert}, ops(inserted))

	deleted := Diff("a\nb", "")
	require.Equal(t, []Op{OpDelete, OpDelete}, ops(deleted))
	changes := ToChanges(deleted)
	require.Equal(t, 1, changes[0].LineNumber)
	require.Equal(t, 2, changes[1].LineNumber)
}

func TestToChangesSkipsEqualAndStartsPending(t *testing.T) {
	changes := ToChanges(Diff("a\nb\nc\nd", "a\nB\nc\nd\ne"))
	require.NotEmpty(t, changes)
	for _, c := range changes {
		require.Equal(t, model.ChangeStatusPending, c.Status)
		require.True(t, c.Type.Valid())
		require.GreaterOrEqual(t, c.LineNumber, 1)
	}
}

func TestSnapshotsMatchChanges(t *testing.T) {
	snaps := Snapshots("one\ntwo", "one\n2")
	require.Len(t, snaps, 1)
	require.Equal(t, model.ChangeTypeModification, snaps[0].Type)
	require.Equal(t, 2, snaps[0].LineNumber)
}
