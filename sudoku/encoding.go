package sudoku

import (
	"fmt"
	"strings"
)

// Parse reads a grid from text: nine rows of nine cells, where a cell
// is a digit 1-9 or one of '0', '.', '_' for empty. Spaces and blank
// lines are ignored, so both dense ("530070000") and spaced
// ("5 3 . | . 7 .") layouts parse. Any other rune is rejected with an
// error naming the offending position.
func Parse(text string) (Grid, error) {
	var g Grid

	rows := make([]string, 0, 9)
	for _, line := range strings.Split(text, "\n") {
		line = strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\r', '|', '+', '-':
				return -1
			}
			return r
		}, line)
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) != 9 {
		return g, fmt.Errorf("expected 9 rows, got %d", len(rows))
	}

	for r, row := range rows {
		cells := []rune(row)
		if len(cells) != 9 {
			return g, fmt.Errorf("row %d: expected 9 cells, got %d", r+1, len(cells))
		}
		for c, ch := range cells {
			switch {
			case ch >= '1' && ch <= '9':
				g[r][c] = int(ch - '0')
			case ch == '0' || ch == '.' || ch == '_':
				g[r][c] = 0
			default:
				return g, fmt.Errorf("%w: row %d col %d has %q", ErrMalformedCell, r+1, c+1, ch)
			}
		}
	}
	return g, nil
}

// String renders the grid with plain block separators, '.' for empty.
func (g Grid) String() string {
	var sb strings.Builder
	for r := 0; r < 9; r++ {
		if r%3 == 0 && r != 0 {
			sb.WriteString("------+-------+------\n")
		}
		for c := 0; c < 9; c++ {
			if c%3 == 0 && c != 0 {
				sb.WriteString("| ")
			}
			if g[r][c] == 0 {
				sb.WriteString(". ")
			} else {
				fmt.Fprintf(&sb, "%d ", g[r][c])
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PrettyString renders the grid with box-drawing borders.
func (g Grid) PrettyString() string {
	var sb strings.Builder
	sb.WriteString("┌───────┬───────┬───────┐\n")
	for r := 0; r < 9; r++ {
		if r == 3 || r == 6 {
			sb.WriteString("├───────┼───────┼───────┤\n")
		}
		sb.WriteString("│ ")
		for c := 0; c < 9; c++ {
			if c == 3 || c == 6 {
				sb.WriteString("│ ")
			}
			if g[r][c] == 0 {
				sb.WriteString(". ")
			} else {
				fmt.Fprintf(&sb, "%d ", g[r][c])
			}
		}
		sb.WriteString("│\n")
	}
	sb.WriteString("└───────┴───────┴───────┘\n")
	return sb.String()
}

// Example returns the built-in example puzzle. It has a unique
// solution.
func Example() Grid {
	return Grid{
		{0, 0, 0, 2, 6, 0, 7, 0, 1},
		{6, 8, 0, 0, 7, 0, 0, 9, 0},
		{1, 9, 0, 0, 0, 4, 5, 0, 0},
		{8, 2, 0, 1, 0, 0, 0, 4, 0},
		{0, 0, 4, 6, 0, 2, 9, 0, 0},
		{0, 5, 0, 0, 0, 3, 0, 2, 8},
		{0, 0, 9, 3, 0, 0, 0, 7, 4},
		{0, 4, 0, 0, 5, 0, 0, 3, 6},
		{7, 0, 3, 0, 1, 8, 0, 0, 0},
	}
}
