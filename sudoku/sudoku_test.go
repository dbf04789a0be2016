package sudoku

import (
	"context"
	"testing"
)

// The example puzzle has a unique solution, computed once and pinned.
var exampleSolution = Grid{
	{4, 3, 5, 2, 6, 9, 7, 8, 1},
	{6, 8, 2, 5, 7, 1, 4, 9, 3},
	{1, 9, 7, 8, 3, 4, 5, 6, 2},
	{8, 2, 6, 1, 9, 5, 3, 4, 7},
	{3, 7, 4, 6, 8, 2, 9, 1, 5},
	{9, 5, 1, 7, 4, 3, 6, 2, 8},
	{5, 1, 9, 3, 2, 6, 8, 7, 4},
	{2, 4, 8, 9, 5, 7, 1, 3, 6},
	{7, 6, 3, 4, 1, 8, 2, 5, 9},
}

// Valid in every row, column, and block, yet no completion exists.
var unsolvable = Grid{
	{5, 1, 6, 8, 4, 9, 7, 3, 2},
	{3, 0, 7, 6, 0, 5, 0, 0, 0},
	{8, 0, 9, 7, 0, 0, 0, 6, 5},
	{1, 3, 5, 0, 6, 0, 9, 0, 7},
	{4, 7, 2, 5, 9, 1, 0, 0, 6},
	{9, 6, 8, 3, 7, 0, 0, 5, 0},
	{2, 5, 3, 1, 8, 6, 0, 7, 4},
	{6, 8, 4, 2, 0, 7, 5, 0, 0},
	{7, 9, 1, 0, 5, 0, 6, 0, 8},
}

func TestValidateEmptyGrid(t *testing.T) {
	var g Grid
	if !Validate(&g) {
		t.Error("Empty grid should be valid")
	}
}

func TestValidateExample(t *testing.T) {
	g := Example()
	if !Validate(&g) {
		t.Error("Example puzzle should be valid")
	}
}

func TestValidateDetectsConflicts(t *testing.T) {
	base := Example()

	cases := []struct {
		name string
		row  int
		col  int
		val  int
	}{
		{"DuplicateInRow", 0, 1, 7},    // 7 already at (0,6)
		{"DuplicateInColumn", 6, 0, 8}, // 8 already at (3,0)
		{"DuplicateInBlock", 0, 0, 9},  // 9 already at (2,1), same block
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := base
			g[tc.row][tc.col] = tc.val
			if Validate(&g) {
				t.Errorf("Expected conflict after placing %d at (%d,%d)", tc.val, tc.row, tc.col)
			}
		})
	}
}

func TestValidateTwoFivesInRow(t *testing.T) {
	var g Grid
	g[4][1] = 5
	g[4][7] = 5
	if Validate(&g) {
		t.Error("Two 5s in the same row should be invalid")
	}
}

func TestIsWellFormed(t *testing.T) {
	var g Grid
	if !IsWellFormed(&g) {
		t.Error("Zero grid should be well formed")
	}
	g[3][3] = 10
	if IsWellFormed(&g) {
		t.Error("Cell value 10 should not be well formed")
	}
	g[3][3] = -1
	if IsWellFormed(&g) {
		t.Error("Negative cell value should not be well formed")
	}
}

func TestSolveExampleMatchesPinnedSolution(t *testing.T) {
	g := Example()
	stats, ok := SolveWithStats(&g)
	if !ok {
		t.Fatal("Example puzzle should be solvable")
	}
	if g != exampleSolution {
		t.Errorf("Solution differs from pinned fixture:\n%s", g)
	}
	if stats.Nodes == 0 {
		t.Error("Expected nodes to be counted")
	}
	t.Logf("Solved example in %v, nodes=%d backtracks=%d", stats.Duration, stats.Nodes, stats.Backtracks)
}

func TestSolveProducesValidCompleteGrid(t *testing.T) {
	g := Example()
	if !Solve(&g) {
		t.Fatal("Example puzzle should be solvable")
	}
	if !IsComplete(&g) {
		t.Error("Solved grid should have no empty cells")
	}
	if !Validate(&g) {
		t.Error("Solved grid should be valid")
	}
}

func TestSolveEmptyGrid(t *testing.T) {
	// The canonical first solution under row-major cell order and
	// ascending digit order.
	want := Grid{
		{1, 2, 3, 4, 5, 6, 7, 8, 9},
		{4, 5, 6, 7, 8, 9, 1, 2, 3},
		{7, 8, 9, 1, 2, 3, 4, 5, 6},
		{2, 1, 4, 3, 6, 5, 8, 9, 7},
		{3, 6, 5, 8, 9, 7, 2, 1, 4},
		{8, 9, 7, 2, 1, 4, 3, 6, 5},
		{5, 3, 1, 6, 4, 2, 9, 7, 8},
		{6, 4, 2, 9, 7, 8, 5, 3, 1},
		{9, 7, 8, 5, 3, 1, 6, 4, 2},
	}

	var g Grid
	if !Solve(&g) {
		t.Fatal("Empty grid should be solvable")
	}
	if !Validate(&g) || !IsComplete(&g) {
		t.Error("Empty grid solution should be complete and valid")
	}
	if g != want {
		t.Errorf("Empty grid solution is not the canonical one:\n%s", g)
	}
}

func TestSolveIsDeterministic(t *testing.T) {
	a := Example()
	b := Example()
	Solve(&a)
	Solve(&b)
	if a != b {
		t.Error("Same input should always yield the same solution")
	}
}

func TestSolveAlreadySolvedGrid(t *testing.T) {
	g := exampleSolution
	stats, ok := SolveWithStats(&g)
	if !ok {
		t.Fatal("Complete valid grid should report solved")
	}
	if g != exampleSolution {
		t.Error("Complete grid should be left unchanged")
	}
	if stats.Nodes != 0 {
		t.Errorf("Expected no search on a complete grid, visited %d nodes", stats.Nodes)
	}
}

func TestSolveUnsolvableRestoresInput(t *testing.T) {
	g := unsolvable
	if !Validate(&g) {
		t.Fatal("Fixture must be conflict-free to exercise the search")
	}
	if Solve(&g) {
		t.Fatal("Fixture should be unsolvable")
	}
	if g != unsolvable {
		t.Error("Failed solve should leave the grid in its input state")
	}
}

func TestSolveInvalidGridNoMutation(t *testing.T) {
	var g Grid
	g[0][2] = 5
	g[0][6] = 5
	in := g
	if Solve(&g) {
		t.Error("Solve on an invalid grid should return false")
	}
	if g != in {
		t.Error("Solve on an invalid grid should not mutate it")
	}
}

func TestSolveContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := Example()
	in := g
	_, ok := SolveContext(ctx, &g)
	if ok {
		t.Error("Canceled solve should report false")
	}
	if g != in {
		t.Error("Canceled solve should restore the input grid")
	}
}

func TestEmptyCells(t *testing.T) {
	var g Grid
	if n := len(EmptyCells(&g)); n != 81 {
		t.Errorf("Expected 81 empty cells, got %d", n)
	}
	g = Example()
	cells := EmptyCells(&g)
	if len(cells) != 81-36 {
		t.Errorf("Expected 45 empty cells in the example, got %d", len(cells))
	}
	if cells[0] != (Cell{Row: 0, Col: 0}) {
		t.Errorf("Expected first empty cell at (0,0), got %+v", cells[0])
	}
	if last := cells[len(cells)-1]; last != (Cell{Row: 8, Col: 8}) {
		t.Errorf("Expected last empty cell at (8,8), got %+v", last)
	}
	g = exampleSolution
	if n := len(EmptyCells(&g)); n != 0 {
		t.Errorf("Expected 0 empty cells, got %d", n)
	}
}

func BenchmarkSolveExample(b *testing.B) {
	for i := 0; i < b.N; i++ {
		g := Example()
		if !Solve(&g) {
			b.Fatal("Example puzzle should be solvable")
		}
	}
}

func BenchmarkSolveEmpty(b *testing.B) {
	for i := 0; i < b.N; i++ {
		var g Grid
		if !Solve(&g) {
			b.Fatal("Empty grid should be solvable")
		}
	}
}

func BenchmarkValidate(b *testing.B) {
	g := exampleSolution
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Validate(&g)
	}
}
