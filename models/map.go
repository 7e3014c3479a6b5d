package models

import (
	"fmt"
	"strings"
)

// ========================================
// 그리드 좌표
// ========================================

// Position - 그리드 셀 좌표 (row, col)
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Manhattan - 두 셀 사이의 맨해튼 거리
func (p Position) Manhattan(o Position) int {
	return abs(p.Row-o.Row) + abs(p.Col-o.Col)
}

// Step - 방향으로 한 칸 이동한 좌표
func (p Position) Step(d Direction) Position {
	switch d {
	case North:
		return Position{Row: p.Row - 1, Col: p.Col}
	case South:
		return Position{Row: p.Row + 1, Col: p.Col}
	case East:
		return Position{Row: p.Row, Col: p.Col + 1}
	case West:
		return Position{Row: p.Row, Col: p.Col - 1}
	}
	return p
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Point - 연속 좌표 (셀 사이 보간용)
type Point struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// PointOf converts a cell into its continuous coordinate.
func PointOf(p Position) Point {
	return Point{Row: float64(p.Row), Col: float64(p.Col)}
}

// ========================================
// 방향
// ========================================

// Direction - 나침반 방향
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

var directionNames = [...]string{"north", "east", "south", "west"}

func (d Direction) String() string {
	if d < North || d > West {
		return "unknown"
	}
	return directionNames[d]
}

// DirectionBetween returns the direction of a single grid step from a to b.
// ok is false when the cells are not adjacent.
func DirectionBetween(a, b Position) (Direction, bool) {
	dr, dc := b.Row-a.Row, b.Col-a.Col
	switch {
	case dr == -1 && dc == 0:
		return North, true
	case dr == 1 && dc == 0:
		return South, true
	case dr == 0 && dc == 1:
		return East, true
	case dr == 0 && dc == -1:
		return West, true
	}
	return North, false
}

// DirectionSet - 허용 방향 비트마스크
type DirectionSet uint8

// AnyDirection permits every compass direction.
const AnyDirection DirectionSet = 1<<North | 1<<East | 1<<South | 1<<West

// Directions builds a set from individual directions.
func Directions(ds ...Direction) DirectionSet {
	var s DirectionSet
	for _, d := range ds {
		s |= 1 << d
	}
	return s
}

// Has reports whether d is in the set.
func (s DirectionSet) Has(d Direction) bool {
	return s&(1<<d) != 0
}

func (s DirectionSet) String() string {
	if s == AnyDirection {
		return "any"
	}
	var names []string
	for d := North; d <= West; d++ {
		if s.Has(d) {
			names = append(names, d.String())
		}
	}
	return strings.Join(names, "|")
}

// ========================================
// 셀 종류
// ========================================

// CellKind - 창고 셀 분류
type CellKind string

const (
	CellFree         CellKind = "free"
	CellLane         CellKind = "lane"          // 양방향 레인
	CellLaneForward  CellKind = "lane_forward"  // 동쪽 진행 레인
	CellLaneBackward CellKind = "lane_backward" // 서쪽 진행 레인
	CellShelf        CellKind = "shelf"
	CellDock         CellKind = "dock"
	CellPacking      CellKind = "packing"
	CellTruckBay     CellKind = "truck_bay"
)

// cellRules - 셀 종류별 통과 규칙
//
// Directional lanes only forbid travel against the flow; crossing a lane
// north/south stays legal so lane rows never wall off the floor.
var cellRules = map[CellKind]struct {
	traversable bool
	allowed     DirectionSet
}{
	CellFree:         {true, AnyDirection},
	CellLane:         {true, AnyDirection},
	CellLaneForward:  {true, Directions(North, East, South)},
	CellLaneBackward: {true, Directions(North, South, West)},
	CellShelf:        {false, AnyDirection},
	CellDock:         {true, AnyDirection},
	CellPacking:      {true, AnyDirection},
	CellTruckBay:     {true, AnyDirection},
}

// Valid reports whether k is a known cell kind.
func (k CellKind) Valid() bool {
	_, ok := cellRules[k]
	return ok
}

// Traversable reports whether robots may occupy a cell of this kind.
func (k CellKind) Traversable() bool {
	return cellRules[k].traversable
}

// AllowedDirections returns the directions a robot may travel in or out of this kind.
func (k CellKind) AllowedDirections() DirectionSet {
	r, ok := cellRules[k]
	if !ok {
		return 0
	}
	return r.allowed
}

// Directional reports whether the kind restricts travel direction.
func (k CellKind) Directional() bool {
	return k.AllowedDirections() != AnyDirection
}

// Permits - (셀 종류, 방향) → 통과 가능 여부
func Permits(k CellKind, d Direction) bool {
	return k.AllowedDirections().Has(d)
}

// Symbol returns the one-rune glyph used by grid renderings.
func (k CellKind) Symbol() string {
	switch k {
	case CellFree:
		return "."
	case CellLane:
		return "R"
	case CellLaneForward:
		return "→"
	case CellLaneBackward:
		return "←"
	case CellShelf:
		return "S"
	case CellDock:
		return "D"
	case CellPacking:
		return "P"
	case CellTruckBay:
		return "T"
	}
	return "?"
}

// ========================================
// 경로
// ========================================

// Path - 시작~목표 포함 셀 목록
type Path []Position

// Cost returns the number of unit steps in the path.
func (p Path) Cost() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Goal returns the final cell. The path must be non-empty.
func (p Path) Goal() Position {
	return p[len(p)-1]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
