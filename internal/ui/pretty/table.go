package pretty

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/yaklabco/annotext/pkg/marks"
	"github.com/yaklabco/annotext/pkg/store"
)

// Table formatting constants.
const (
	staleSymbol       = "!"
	tablePadding      = 2
	markColumnCount   = 4 // ID, RANGE, STATUS, TEXT
	staleColumnWidth  = 3 // width for stale indicator column
	minIDWidth        = 4
	minRangeWidth     = 9
	minStatusWidth    = 12
	minTextWidth      = 30
	historyTimeFormat = "2006-01-02 15:04:05"
	heavySeparator    = "="
	defaultTermWidth  = 100
)

// TableRow represents a single row in the mark table.
type TableRow struct {
	ID     string
	Range  string
	Status marks.Status
	Text   string
	Stale  bool
}

// TableFormatter formats marks and history as styled tables.
type TableFormatter struct {
	styles       *Styles
	colorEnabled bool
	termWidth    int
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(styles *Styles, colorEnabled bool, termWidth int) *TableFormatter {
	if termWidth <= 0 {
		termWidth = defaultTermWidth
	}
	return &TableFormatter{
		styles:       styles,
		colorEnabled: colorEnabled,
		termWidth:    termWidth,
	}
}

// MarkToTableRow converts a mark to a table row.
func MarkToTableRow(mark marks.Mark, stale bool) TableRow {
	return TableRow{
		ID:     strconv.FormatInt(mark.ID, 10),
		Range:  mark.Range().String(),
		Status: mark.Status,
		Text:   strconv.Quote(mark.OriginalText),
		Stale:  stale,
	}
}

// FormatMarks formats marks as a styled table. IDs listed in stale are
// flagged as no longer matching their original text.
func (t *TableFormatter) FormatMarks(list []marks.Mark, stale []int64) string {
	if len(list) == 0 {
		return t.styles.Dim.Render("no marks") + "\n"
	}

	rows := make([]TableRow, 0, len(list))
	for _, mark := range list {
		rows = append(rows, MarkToTableRow(mark, slices.Contains(stale, mark.ID)))
	}

	widths := t.calculateColumnWidths(rows)

	var builder strings.Builder
	builder.WriteString(t.formatHeader(widths))
	builder.WriteString("\n")
	builder.WriteString(t.formatSeparator(widths, heavySeparator))
	builder.WriteString("\n")

	for _, row := range rows {
		builder.WriteString(t.formatRow(row, widths))
		builder.WriteString("\n")
	}

	builder.WriteString(t.formatSeparator(widths, heavySeparator))
	builder.WriteString("\n")
	builder.WriteString(t.formatSummary(rows))
	builder.WriteString("\n")
	builder.WriteString(t.formatLegend())
	builder.WriteString("\n")

	return builder.String()
}

// FormatHistory formats history records, oldest first, one per line.
func (t *TableFormatter) FormatHistory(records []store.HistoryRecord) string {
	if len(records) == 0 {
		return t.styles.Dim.Render("no history") + "\n"
	}

	var builder strings.Builder
	for _, record := range records {
		delta := utf8.RuneCountInString(record.After) - utf8.RuneCountInString(record.Before)
		builder.WriteString(fmt.Sprintf(" %s  %s  %s\n",
			t.styles.Dim.Render(shortID(record.ID)),
			t.styles.Location.Render(record.CreatedAt.Format(historyTimeFormat)),
			t.formatDelta(delta)))
	}
	return builder.String()
}

func (t *TableFormatter) formatDelta(delta int) string {
	switch {
	case delta > 0:
		return t.styles.DiffAdd.Render(fmt.Sprintf("+%d chars", delta))
	case delta < 0:
		return t.styles.DiffRemove.Render(fmt.Sprintf("%d chars", delta))
	default:
		return t.styles.DiffContext.Render("same length")
	}
}

type columnWidths struct {
	id     int
	rng    int
	status int
	text   int
}

// calculateColumnWidths determines column widths based on content.
func (t *TableFormatter) calculateColumnWidths(rows []TableRow) columnWidths {
	widths := columnWidths{
		id:     minIDWidth,
		rng:    minRangeWidth,
		status: minStatusWidth,
		text:   minTextWidth,
	}

	for _, row := range rows {
		widths.id = max(widths.id, len(row.ID))
		widths.rng = max(widths.rng, len(row.Range))
		widths.status = max(widths.status, len(row.Status))
		widths.text = max(widths.text, utf8.RuneCountInString(row.Text))
	}

	// Constrain to terminal width by shrinking the text column.
	totalWidth := t.calculateTotalWidth(widths)
	if totalWidth > t.termWidth {
		excess := totalWidth - t.termWidth
		widths.text = max(minTextWidth, widths.text-excess)
	}

	return widths
}

func (t *TableFormatter) calculateTotalWidth(widths columnWidths) int {
	return widths.id + widths.rng + widths.status + widths.text +
		(tablePadding * markColumnCount) + staleColumnWidth
}

func (t *TableFormatter) formatHeader(widths columnWidths) string {
	header := fmt.Sprintf(" %-*s  %-*s  %-*s  %-*s   ",
		widths.id, "ID",
		widths.rng, "RANGE",
		widths.status, "STATUS",
		widths.text, "TEXT",
	)
	return t.styles.TableHeader.Render(header)
}

func (t *TableFormatter) formatSeparator(widths columnWidths, char string) string {
	return t.styles.TableSeparator.Render(strings.Repeat(char, t.calculateTotalWidth(widths)))
}

// formatRow formats a single row styled by mark status.
func (t *TableFormatter) formatRow(row TableRow, widths columnWidths) string {
	text := truncateString(row.Text, widths.text)

	stale := " "
	if row.Stale {
		stale = staleSymbol
	}

	content := fmt.Sprintf(" %-*s  %-*s  %-*s  %s%s  %s",
		widths.id, row.ID,
		widths.rng, row.Range,
		widths.status, row.Status,
		text, strings.Repeat(" ", max(0, widths.text-utf8.RuneCountInString(text))),
		stale,
	)

	return t.getRowStyle(row).Render(content)
}

func (t *TableFormatter) getRowStyle(row TableRow) lipgloss.Style {
	switch {
	case row.Stale:
		return t.styles.TableStaleRow
	case row.Status == marks.StatusNeedsReview:
		return t.styles.TableReviewRow
	default:
		return t.styles.TableActiveRow
	}
}

// formatSummary counts marks by state.
func (t *TableFormatter) formatSummary(rows []TableRow) string {
	var active, review, stale int
	for _, row := range rows {
		switch row.Status {
		case marks.StatusActive:
			active++
		case marks.StatusNeedsReview:
			review++
		}
		if row.Stale {
			stale++
		}
	}

	parts := []string{fmt.Sprintf("%d active", active)}
	if review > 0 {
		parts = append(parts, t.styles.Warning.Render(fmt.Sprintf("%d needs review", review)))
	}
	if stale > 0 {
		parts = append(parts, t.styles.Error.Render(fmt.Sprintf("%d stale", stale)))
	}
	return " " + strings.Join(parts, " | ")
}

func (t *TableFormatter) formatLegend() string {
	if !t.colorEnabled {
		return t.styles.TableLegend.Render(
			fmt.Sprintf(" Legend: %s = text no longer matches", staleSymbol))
	}

	reviewSample := t.styles.TableReviewRow.Render(" needs review ")
	staleSample := t.styles.TableStaleRow.Render(" " + staleSymbol + " stale ")
	return t.styles.TableLegend.Render(
		fmt.Sprintf(" Legend: %s  %s = text no longer matches", reviewSample, staleSample))
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(str string, maxLen int) string {
	if utf8.RuneCountInString(str) <= maxLen {
		return str
	}
	runes := []rune(str)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
