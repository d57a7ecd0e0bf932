package edit

import (
	"fmt"
	"strings"
)

// LineKind marks a diff line as context, addition, or removal.
type LineKind int

const (
	// LineContext is a line present in both versions.
	LineContext LineKind = iota

	// LineAdd is a line only in the new version.
	LineAdd

	// LineRemove is a line only in the old version.
	LineRemove
)

// prefix returns the unified diff marker for the line kind.
func (k LineKind) prefix() string {
	switch k {
	case LineAdd:
		return "+"
	case LineRemove:
		return "-"
	default:
		return " "
	}
}

// DiffLine is one line of a hunk.
type DiffLine struct {
	Kind    LineKind
	Content string
}

// Hunk is a group of nearby changes with surrounding context.
// Line numbers are 1-based.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []DiffLine
}

// Diff is a unified line diff between two versions of a document.
type Diff struct {
	Path      string
	Hunks     []Hunk
	Additions int
	Deletions int
}

// diffContext is the number of unchanged lines kept around each change.
const diffContext = 3

// GenerateDiff returns a unified diff of before and after, or nil if the
// two have the same lines.
func GenerateDiff(path, before, after string) *Diff {
	oldLines := splitLines(before)
	newLines := splitLines(after)

	lines := diffLines(oldLines, newLines)
	hunks := groupHunks(lines)
	if len(hunks) == 0 {
		return nil
	}

	diff := &Diff{Path: path, Hunks: hunks}
	for _, line := range lines {
		switch line.Kind {
		case LineAdd:
			diff.Additions++
		case LineRemove:
			diff.Deletions++
		}
	}
	return diff
}

// HasChanges reports whether the diff holds any hunk.
func (d *Diff) HasChanges() bool {
	return d != nil && len(d.Hunks) > 0
}

// String renders the diff in unified format with a/ and b/ headers.
func (d *Diff) String() string {
	if !d.HasChanges() {
		return ""
	}

	path := strings.TrimPrefix(d.Path, "/")

	var builder strings.Builder
	fmt.Fprintf(&builder, "--- a/%s\n+++ b/%s\n", path, path)
	for _, hunk := range d.Hunks {
		fmt.Fprintf(&builder, "@@ -%d,%d +%d,%d @@\n",
			hunk.OldStart, hunk.OldCount, hunk.NewStart, hunk.NewCount)
		for _, line := range hunk.Lines {
			builder.WriteString(line.Kind.prefix())
			builder.WriteString(line.Content)
			builder.WriteByte('\n')
		}
	}
	return builder.String()
}

// splitLines splits s on newlines, dropping the empty line after a
// trailing newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// diffLines walks an LCS table to produce the full line script.
func diffLines(oldLines, newLines []string) []DiffLine {
	rows, cols := len(oldLines), len(newLines)

	// table[i][j] is the LCS length of oldLines[i:] and newLines[j:].
	table := make([][]int, rows+1)
	for i := range table {
		table[i] = make([]int, cols+1)
	}
	for i := rows - 1; i >= 0; i-- {
		for j := cols - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}

	script := make([]DiffLine, 0, rows+cols)
	i, j := 0, 0
	for i < rows && j < cols {
		switch {
		case oldLines[i] == newLines[j]:
			script = append(script, DiffLine{Kind: LineContext, Content: oldLines[i]})
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			script = append(script, DiffLine{Kind: LineRemove, Content: oldLines[i]})
			i++
		default:
			script = append(script, DiffLine{Kind: LineAdd, Content: newLines[j]})
			j++
		}
	}
	for ; i < rows; i++ {
		script = append(script, DiffLine{Kind: LineRemove, Content: oldLines[i]})
	}
	for ; j < cols; j++ {
		script = append(script, DiffLine{Kind: LineAdd, Content: newLines[j]})
	}
	return script
}

// groupHunks splits a line script into hunks, merging changes separated
// by no more than twice the context size.
func groupHunks(script []DiffLine) []Hunk {
	var hunks []Hunk

	for idx := 0; idx < len(script); {
		if script[idx].Kind == LineContext {
			idx++
			continue
		}

		// Extend the cluster while the next change is close enough.
		first, last := idx, idx
		for k := idx + 1; k < len(script); k++ {
			if script[k].Kind == LineContext {
				continue
			}
			if k-last-1 > 2*diffContext {
				break
			}
			last = k
		}

		hunks = append(hunks, buildHunk(script, max(0, first-diffContext), min(len(script), last+1+diffContext)))
		idx = last + 1
	}
	return hunks
}

// buildHunk builds the hunk covering script[from:to].
func buildHunk(script []DiffLine, from, to int) Hunk {
	hunk := Hunk{OldStart: 1, NewStart: 1}
	for _, line := range script[:from] {
		if line.Kind != LineAdd {
			hunk.OldStart++
		}
		if line.Kind != LineRemove {
			hunk.NewStart++
		}
	}

	hunk.Lines = append([]DiffLine(nil), script[from:to]...)
	for _, line := range hunk.Lines {
		switch line.Kind {
		case LineContext:
			hunk.OldCount++
			hunk.NewCount++
		case LineRemove:
			hunk.OldCount++
		case LineAdd:
			hunk.NewCount++
		}
	}
	return hunk
}
