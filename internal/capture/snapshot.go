// Package capture recovers the output a console produced in response to an
// injected command by comparing screen-buffer snapshots.
package capture

import (
	"strings"
	"unicode"
	"unicode/utf16"
)

// Snapshot is a flattened copy of a console screen buffer
type Snapshot struct {
	Rows  int
	Cols  int
	Lines []string
}

// Text joins the rows with newlines
func (s Snapshot) Text() string {
	return strings.Join(s.Lines, "\n")
}

// Screen reads the current contents of a console screen buffer
type Screen interface {
	Snapshot() (Snapshot, error)
}

// FromCells builds a snapshot from a row-major buffer of UTF-16 cells,
// cols cells per row. Trailing space padding is removed from every row.
func FromCells(cells []uint16, cols int) Snapshot {
	if cols <= 0 {
		return Snapshot{}
	}
	rows := (len(cells) + cols - 1) / cols
	lines := make([]string, rows)
	for y := 0; y < rows; y++ {
		end := (y + 1) * cols
		if end > len(cells) {
			end = len(cells)
		}
		lines[y] = TrimRow(decodeRow(cells[y*cols : end]))
	}
	return Snapshot{Rows: rows, Cols: cols, Lines: lines}
}

// TrimRow strips the space padding the console stores after the last
// written cell of a row.
func TrimRow(row string) string {
	return strings.TrimRight(row, " ")
}

// decodeRow decodes one row of cells, dropping unpaired surrogate halves.
func decodeRow(cells []uint16) string {
	var b strings.Builder
	b.Grow(len(cells))
	for i := 0; i < len(cells); i++ {
		c := cells[i]
		switch {
		case utf16.IsSurrogate(rune(c)):
			if c < 0xDC00 && i+1 < len(cells) {
				if r := utf16.DecodeRune(rune(c), rune(cells[i+1])); r != unicode.ReplacementChar {
					b.WriteRune(r)
					i++
				}
			}
		case c == 0:
			b.WriteByte(' ')
		default:
			b.WriteRune(rune(c))
		}
	}
	return b.String()
}
