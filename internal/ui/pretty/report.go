package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yaklabco/annotext/pkg/edit"
	"github.com/yaklabco/annotext/pkg/exclude"
	"github.com/yaklabco/annotext/pkg/spaces"
	"github.com/yaklabco/annotext/pkg/workflow"
)

const (
	summaryDividerWidth = 40
	quoteWidth          = 60
	wordMark            = "mark"
	wordMarks           = "marks"
)

// InspectReport describes a document's text spaces.
type InspectReport struct {
	Path       string
	Spaces     *spaces.Spaces
	Blocks     []exclude.Block
	Paragraphs int
}

// FormatInspect formats the spaces, links, and excluded blocks of a
// document.
func (s *Styles) FormatInspect(report InspectReport) string {
	var builder strings.Builder
	sp := report.Spaces

	builder.WriteString(s.FilePath.Render(report.Path) + "\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth) + "\n")
	builder.WriteString("  Raw length:        " + s.SummaryValue.Render(strconv.Itoa(sp.Raw.Len())) + "\n")
	builder.WriteString("  Cleaned length:    " + s.SummaryValue.Render(strconv.Itoa(sp.Cleaned.Len())) + "\n")
	builder.WriteString("  Rendered length:   " + s.SummaryValue.Render(strconv.Itoa(sp.Rendered.Len())) + "\n")
	builder.WriteString("  Paragraphs:        " + s.SummaryValue.Render(strconv.Itoa(report.Paragraphs)) + "\n")

	if len(sp.Links) > 0 {
		builder.WriteString("\n" + s.SummaryTitle.Render("Links") + "\n")
		for _, link := range sp.Links {
			builder.WriteString(fmt.Sprintf("  %s  %s %s\n",
				s.Location.Render(link.Range().String()),
				s.Link.Render(link.DisplayText),
				s.Dim.Render("-> "+link.URL)))
		}
	}

	if len(report.Blocks) > 0 {
		builder.WriteString("\n" + s.SummaryTitle.Render("Excluded") + "\n")
		for _, block := range report.Blocks {
			desc := string(block.Kind)
			if block.Language != "" {
				desc += " " + block.Language
				if block.Detected {
					desc += " (detected)"
				}
			}
			builder.WriteString(fmt.Sprintf("  %s  %s %s\n",
				s.Location.Render(block.Range.String()),
				s.Excluded.Render(desc),
				s.Dim.Render(fmt.Sprintf("(cleaned %d)", sp.RawToCleaned(block.Range.Start)))))
		}
	}

	return builder.String()
}

// FormatSelection formats a validated selection with its corrections and
// warnings.
func (s *Styles) FormatSelection(sel workflow.Selection) string {
	var builder strings.Builder
	result := sel.Result

	builder.WriteString(s.SummaryTitle.Render("Selection") + "\n")
	builder.WriteString(fmt.Sprintf("  %s %s -> %s\n",
		s.Label.Render("rendered:"),
		s.Location.Render(fmt.Sprintf("%d-%d", sel.Snapshot.RenderedStart, sel.Snapshot.RenderedEnd)),
		s.Location.Render(result.Rendered().String())))
	builder.WriteString(fmt.Sprintf("  %s  %s -> %s\n",
		s.Label.Render("cleaned:"),
		s.Location.Render(fmt.Sprintf("%d-%d", sel.Snapshot.CleanedStart, sel.Snapshot.CleanedEnd)),
		s.Location.Render(result.Cleaned().String())))
	builder.WriteString(fmt.Sprintf("  %s      %s\n",
		s.Label.Render("raw:"),
		s.Location.Render(sel.Raw.String())))
	builder.WriteString("  " + s.Label.Render("text:") + "     " + s.Quote.Render(quote(sel.Text)) + "\n")
	if sel.RenderedText != sel.Text {
		builder.WriteString("  " + s.Label.Render("shown:") + "    " + s.Quote.Render(quote(sel.RenderedText)) + "\n")
	}

	for _, correction := range result.Corrections {
		builder.WriteString("  " + s.Correction.Render("corrected: "+correction) + "\n")
	}
	for _, warning := range result.Warnings {
		builder.WriteString("  " + s.Warning.Render("warning:") + " " + warning + "\n")
	}
	if sel.Overlap.HasOverlap() {
		builder.WriteString("  " + s.Info.Render("overlaps:") + " " +
			formatIDs(sel.Overlap.OverlappingIDs) + "\n")
	}

	return builder.String()
}

// FormatCommit formats the outcome of an edit or sync as a single line.
// Example: "committed 1a2b3c4d: 2 marks shifted, 1 mark needs review".
func (s *Styles) FormatCommit(commit workflow.Commit) string {
	if !commit.Changed {
		return s.Dim.Render("no changes") + "\n"
	}

	head := s.Success.Render("committed") + " " + s.Dim.Render(shortID(commit.History.ID.String()))

	var details []string
	if n := len(commit.Reconciliation.Shifted); n > 0 {
		details = append(details, fmt.Sprintf("%d %s shifted", n, plural(n, wordMark, wordMarks)))
	}
	if n := len(commit.Reconciliation.FlaggedForReview); n > 0 {
		details = append(details, s.Warning.Render(
			fmt.Sprintf("%d %s %s review", n, plural(n, wordMark, wordMarks), plural(n, "needs", "need"))))
	}
	if len(details) == 0 {
		details = append(details, "marks unaffected")
	}

	return head + ": " + strings.Join(details, ", ") + "\n"
}

// FormatDiff formats a unified diff with colored additions and removals.
func (s *Styles) FormatDiff(diff *edit.Diff) string {
	if !diff.HasChanges() {
		return ""
	}

	var builder strings.Builder
	for _, line := range strings.SplitAfter(diff.String(), "\n") {
		if line == "" {
			continue
		}
		content := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(content, "---"), strings.HasPrefix(content, "+++"):
			builder.WriteString(s.DiffHeader.Render(content))
		case strings.HasPrefix(content, "@@"):
			builder.WriteString(s.DiffHunk.Render(content))
		case strings.HasPrefix(content, "+"):
			builder.WriteString(s.DiffAdd.Render(content))
		case strings.HasPrefix(content, "-"):
			builder.WriteString(s.DiffRemove.Render(content))
		default:
			builder.WriteString(s.DiffContext.Render(content))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// quote shows text on one line, escaping newlines and shortening it.
func quote(text string) string {
	return strconv.Quote(truncateString(text, quoteWidth))
}

func shortID(id string) string {
	const shortLen = 8
	if len(id) > shortLen {
		return id[:shortLen]
	}
	return id
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
