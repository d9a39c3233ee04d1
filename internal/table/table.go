// Package table renders aligned ASCII tables for command line output.
// Cell values may contain ANSI escape sequences; column widths are
// computed from the visible text so colored cells do not break
// alignment.
package table

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Alignment controls how a cell's content is padded within its column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// stripAnsi removes ANSI escape sequences from a string.
func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// visibleWidth returns the width of a string excluding ANSI escapes.
func visibleWidth(s string) int {
	return len(stripAnsi(s))
}

// Table accumulates rows and renders them with box-drawing borders.
type Table struct {
	writer      io.Writer
	header      []string
	rows        [][]string
	columnAlign []Alignment
	headerAlign []Alignment
}

// NewTable creates a table that renders to the given writer.
func NewTable(writer io.Writer) *Table {
	return &Table{writer: writer}
}

// WithHeader sets the header row.
func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

// WithColumnAlignment sets the per-column alignment for data rows.
// Columns without an entry default to AlignLeft.
func (t *Table) WithColumnAlignment(alignments []Alignment) *Table {
	t.columnAlign = alignments
	return t
}

// WithHeaderAlignment sets the per-column alignment for the header row.
func (t *Table) WithHeaderAlignment(alignments []Alignment) *Table {
	t.headerAlign = alignments
	return t
}

// WithRows replaces the table's data rows.
func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = rows
	return t
}

// Append adds a data row.
func (t *Table) Append(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) columnCount() int {
	count := len(t.header)
	for _, row := range t.rows {
		if len(row) > count {
			count = len(row)
		}
	}
	return count
}

func (t *Table) columnWidths(count int) []int {
	widths := make([]int, count)
	for i, cell := range t.header {
		if w := visibleWidth(cell); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := visibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func alignmentAt(alignments []Alignment, i int) Alignment {
	if i < len(alignments) {
		return alignments[i]
	}
	return AlignLeft
}

// pad aligns a cell within the given visible width. Padding is computed
// from the visible text so ANSI escapes in the cell are preserved
// without affecting layout.
func pad(cell string, width int, alignment Alignment) string {
	gap := width - visibleWidth(cell)
	if gap <= 0 {
		return cell
	}
	switch alignment {
	case AlignRight:
		return strings.Repeat(" ", gap) + cell
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func (t *Table) writeSeparator(widths []int) {
	var sb strings.Builder
	sb.WriteString("+")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("+")
	}
	fmt.Fprintln(t.writer, sb.String())
}

func (t *Table) writeRow(row []string, widths []int, alignments []Alignment) {
	var sb strings.Builder
	sb.WriteString("|")
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		sb.WriteString(" ")
		sb.WriteString(pad(cell, w, alignmentAt(alignments, i)))
		sb.WriteString(" |")
	}
	fmt.Fprintln(t.writer, sb.String())
}

// Render writes the table to the writer.
func (t *Table) Render() {
	count := t.columnCount()
	if count == 0 {
		return
	}
	widths := t.columnWidths(count)
	t.writeSeparator(widths)
	if len(t.header) > 0 {
		t.writeRow(t.header, widths, t.headerAlign)
		t.writeSeparator(widths)
	}
	for _, row := range t.rows {
		t.writeRow(row, widths, t.columnAlign)
	}
	t.writeSeparator(widths)
}
