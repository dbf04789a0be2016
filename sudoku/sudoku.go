package sudoku

import (
	"context"
	"errors"
	"time"
)

// Grid represents a 9x9 Sudoku board. Zero means an empty cell,
// 1-9 a placed digit. Grid is a value type: assignment copies it,
// so callers that need the input preserved can keep a copy before
// solving in place.
type Grid [9][9]int

// Cell identifies a position on the grid.
type Cell struct {
	Row, Col int
}

// SolveStats records the work done by a single solve.
type SolveStats struct {
	Nodes      int64
	Backtracks int64
	Duration   time.Duration
}

var (
	// ErrMalformedCell reports a cell value outside [0,9].
	ErrMalformedCell = errors.New("malformed cell value")
	// ErrInvalidGrid reports a duplicate digit in a row, column, or block.
	ErrInvalidGrid = errors.New("grid has conflicting digits")
	// ErrUnsolvable reports that no completion of the grid exists.
	ErrUnsolvable = errors.New("no solution exists")
)

// IsWellFormed reports whether every cell holds a value in [0,9].
// Input collected from untrusted sources (JSON bodies, files) must
// pass this before any other operation.
func IsWellFormed(g *Grid) bool {
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] < 0 || g[r][c] > 9 {
				return false
			}
		}
	}
	return true
}

// Validate reports whether no non-zero digit repeats within any row,
// column, or 3x3 block. Empty cells are ignored, so the all-empty grid
// is valid. It must hold before Solve is attempted.
func Validate(g *Grid) bool {
	// rows
	for r := 0; r < 9; r++ {
		var seen [10]bool
		for c := 0; c < 9; c++ {
			v := g[r][c]
			if v != 0 {
				if seen[v] {
					return false
				}
				seen[v] = true
			}
		}
	}

	// columns
	for c := 0; c < 9; c++ {
		var seen [10]bool
		for r := 0; r < 9; r++ {
			v := g[r][c]
			if v != 0 {
				if seen[v] {
					return false
				}
				seen[v] = true
			}
		}
	}

	// 3x3 blocks
	for br := 0; br < 3; br++ {
		for bc := 0; bc < 3; bc++ {
			var seen [10]bool
			for r := br * 3; r < br*3+3; r++ {
				for c := bc * 3; c < bc*3+3; c++ {
					v := g[r][c]
					if v != 0 {
						if seen[v] {
							return false
						}
						seen[v] = true
					}
				}
			}
		}
	}

	return true
}

// IsComplete reports whether every cell holds a digit 1-9.
func IsComplete(g *Grid) bool {
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] == 0 {
				return false
			}
		}
	}
	return true
}

// EmptyCells returns the unfilled positions in row-major order.
func EmptyCells(g *Grid) []Cell {
	var cells []Cell
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] == 0 {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// findEmpty returns the first empty cell in row-major order.
func findEmpty(g *Grid) (int, int, bool) {
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] == 0 {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// isSafe reports whether digit d can be placed at (r,c) without
// repeating in the row, the column, or the containing 3x3 block.
func isSafe(g *Grid, r, c, d int) bool {
	for i := 0; i < 9; i++ {
		if g[r][i] == d || g[i][c] == d {
			return false
		}
	}
	br, bc := (r/3)*3, (c/3)*3
	for i := br; i < br+3; i++ {
		for j := bc; j < bc+3; j++ {
			if g[i][j] == d {
				return false
			}
		}
	}
	return true
}

// Solve fills g in place by exhaustive backtracking: first empty cell
// in row-major order, candidate digits 1-9 ascending, placements undone
// on dead ends. It returns true with g fully filled when a solution is
// reachable, and false with g restored to its input state otherwise.
// The search is deterministic; puzzles admitting several completions
// always yield the same one. Solving an invalid grid returns false
// without mutation.
func Solve(g *Grid) bool {
	_, ok := SolveContext(context.Background(), g)
	return ok
}

// SolveWithStats is Solve with search counters attached.
func SolveWithStats(g *Grid) (SolveStats, bool) {
	return SolveContext(context.Background(), g)
}

// SolveContext is Solve with cooperative cancellation. A canceled
// context abandons the search and reports false; all speculative
// placements are undone on the way out, so the grid is left in its
// input state just as for an unsolvable puzzle.
func SolveContext(ctx context.Context, g *Grid) (SolveStats, bool) {
	start := time.Now()
	stats := SolveStats{}

	if !Validate(g) {
		stats.Duration = time.Since(start)
		return stats, false
	}

	var dfs func() bool
	dfs = func() bool {
		if ctx.Err() != nil {
			return false
		}
		r, c, ok := findEmpty(g)
		if !ok {
			return true
		}
		for d := 1; d <= 9; d++ {
			stats.Nodes++
			if isSafe(g, r, c, d) {
				g[r][c] = d
				if dfs() {
					return true
				}
				g[r][c] = 0
				stats.Backtracks++
			}
		}
		return false
	}

	ok := dfs()
	stats.Duration = time.Since(start)
	return stats, ok
}
