package algorithms

import (
	"fmt"
	"strings"

	"warehouse-fleet/models"
)

// GridMap - 경로 탐색이 소비하는 읽기 전용 창고 맵
type GridMap interface {
	InBounds(p models.Position) bool
	CellType(p models.Position) models.CellKind
	IsTraversable(p models.Position) bool
	AllowedDirections(p models.Position) models.DirectionSet
	Neighbors(p models.Position) []models.Position
}

// neighborOrder - 이웃 탐색 순서 (오른쪽, 아래, 왼쪽, 위)
var neighborOrder = []models.Direction{models.East, models.South, models.West, models.North}

// Grid is the in-memory warehouse floor. It is built once and then shared
// read-only by the pathfinder and every robot.
type Grid struct {
	Rows  int
	Cols  int
	cells [][]models.CellKind
}

// NewGrid - 모든 셀이 free인 그리드 생성
func NewGrid(rows, cols int) *Grid {
	cells := make([][]models.CellKind, rows)
	for r := range cells {
		cells[r] = make([]models.CellKind, cols)
		for c := range cells[r] {
			cells[r][c] = models.CellFree
		}
	}
	return &Grid{Rows: rows, Cols: cols, cells: cells}
}

func (g *Grid) InBounds(p models.Position) bool {
	return p.Row >= 0 && p.Col >= 0 && p.Row < g.Rows && p.Col < g.Cols
}

// CellType returns the kind of p; out-of-bounds cells read as shelves so
// they are never traversable.
func (g *Grid) CellType(p models.Position) models.CellKind {
	if !g.InBounds(p) {
		return models.CellShelf
	}
	return g.cells[p.Row][p.Col]
}

func (g *Grid) IsTraversable(p models.Position) bool {
	return g.InBounds(p) && g.cells[p.Row][p.Col].Traversable()
}

func (g *Grid) AllowedDirections(p models.Position) models.DirectionSet {
	return g.CellType(p).AllowedDirections()
}

// Neighbors - 범위 내 4방향 이웃
func (g *Grid) Neighbors(p models.Position) []models.Position {
	neighbors := make([]models.Position, 0, len(neighborOrder))
	for _, d := range neighborOrder {
		n := p.Step(d)
		if g.InBounds(n) {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}

// SetCell overwrites the kind of a single cell.
func (g *Grid) SetCell(p models.Position, kind models.CellKind) error {
	if !g.InBounds(p) {
		return fmt.Errorf("set %s: %w", p, models.ErrOutOfBounds)
	}
	if !kind.Valid() {
		return fmt.Errorf("set %s: unknown cell kind %q", p, kind)
	}
	g.cells[p.Row][p.Col] = kind
	return nil
}

// place - free 셀에만 배치
func (g *Grid) place(p models.Position, kind models.CellKind) error {
	if !g.InBounds(p) {
		return fmt.Errorf("place %s at %s: %w", kind, p, models.ErrOutOfBounds)
	}
	if g.cells[p.Row][p.Col] != models.CellFree {
		return fmt.Errorf("place %s at %s: %w", kind, p, models.ErrCellOccupied)
	}
	g.cells[p.Row][p.Col] = kind
	return nil
}

// AddShelf places a shelf on a free cell.
func (g *Grid) AddShelf(p models.Position) error {
	return g.place(p, models.CellShelf)
}

// AddNode places a dock, packing station or truck bay on a free cell.
func (g *Grid) AddNode(p models.Position, kind models.CellKind) error {
	switch kind {
	case models.CellDock, models.CellPacking, models.CellTruckBay:
		return g.place(p, kind)
	}
	return fmt.Errorf("node kind %q is not a special node", kind)
}

// CreateLanes marks the free cells of the given rows as robot lanes.
// Bidirectional rows split at the middle column: the left half flows west,
// the right half flows east. Otherwise the whole row is a two-way lane.
func (g *Grid) CreateLanes(rows []int, bidirectional bool) error {
	mid := g.Cols / 2
	for _, r := range rows {
		if r < 0 || r >= g.Rows {
			return fmt.Errorf("lane row %d: %w", r, models.ErrOutOfBounds)
		}
		for c := 0; c < g.Cols; c++ {
			if g.cells[r][c] != models.CellFree {
				continue
			}
			switch {
			case !bidirectional:
				g.cells[r][c] = models.CellLane
			case c < mid:
				g.cells[r][c] = models.CellLaneBackward
			default:
				g.cells[r][c] = models.CellLaneForward
			}
		}
	}
	return nil
}

// Cells returns every position of the given kind in row-major order.
func (g *Grid) Cells(kind models.CellKind) []models.Position {
	var out []models.Position
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if g.cells[r][c] == kind {
				out = append(out, models.Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// RenderRows - 행 단위 기호 렌더링
func (g *Grid) RenderRows() []string {
	rows := make([]string, g.Rows)
	for r := 0; r < g.Rows; r++ {
		var b strings.Builder
		for c := 0; c < g.Cols; c++ {
			b.WriteString(g.cells[r][c].Symbol())
			b.WriteByte(' ')
		}
		rows[r] = strings.TrimRight(b.String(), " ")
	}
	return rows
}

// Render returns the whole grid as text, one row per line.
func (g *Grid) Render() string {
	return strings.Join(g.RenderRows(), "\n") + "\n"
}
