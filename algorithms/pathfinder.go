package algorithms

import (
	"container/heap"
	"fmt"

	"warehouse-fleet/models"
)

// Pathfinder - 방향 제약 A* 경로 계획
type Pathfinder struct {
	grid GridMap
}

// NewPathfinder - Pathfinder 생성
func NewPathfinder(grid GridMap) *Pathfinder {
	return &Pathfinder{grid: grid}
}

// Grid returns the map the pathfinder searches.
func (pf *Pathfinder) Grid() GridMap {
	return pf.grid
}

// node - A* 노드
type node struct {
	pos    models.Position
	g, h   int
	seq    uint64
	parent *node
	index  int // for heap
}

// openSet - f, h, 삽입 순서로 정렬되는 우선순위 큐
type openSet []*node

func (pq openSet) Len() int { return len(pq) }

func (pq openSet) Less(i, j int) bool {
	fi, fj := pq[i].g+pq[i].h, pq[j].g+pq[j].h
	if fi != fj {
		return fi < fj
	}
	if pq[i].h != pq[j].h {
		return pq[i].h < pq[j].h
	}
	return pq[i].seq < pq[j].seq
}

func (pq openSet) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *openSet) Push(x interface{}) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
}

func (pq *openSet) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// CanStep reports whether a robot may move from one cell to an adjacent one.
// A non-traversable cell may only be entered when it is the requested goal.
// Lane direction is checked on both the cell being left and the cell entered.
func (pf *Pathfinder) CanStep(from, to, goal models.Position) bool {
	dir, ok := models.DirectionBetween(from, to)
	if !ok || !pf.grid.InBounds(to) {
		return false
	}
	if !pf.grid.IsTraversable(to) && to != goal {
		return false
	}
	return pf.grid.AllowedDirections(from).Has(dir) && pf.grid.AllowedDirections(to).Has(dir)
}

// FindPath - A* 알고리즘으로 경로 찾기
//
// The returned path includes both endpoints. Errors wrap models.ErrPathNotFound.
func (pf *Pathfinder) FindPath(start, goal models.Position) (models.Path, error) {
	if !pf.grid.InBounds(start) || !pf.grid.InBounds(goal) {
		return nil, fmt.Errorf("path %s -> %s: %w: %w", start, goal, models.ErrOutOfBounds, models.ErrPathNotFound)
	}
	if start == goal {
		return models.Path{start}, nil
	}

	open := make(openSet, 0, 64)
	heap.Init(&open)
	closed := make(map[models.Position]bool)
	gScore := map[models.Position]int{start: 0}

	var seq uint64
	heap.Push(&open, &node{pos: start, h: start.Manhattan(goal), seq: seq})

	for open.Len() > 0 {
		current := heap.Pop(&open).(*node)
		if closed[current.pos] || current.g > gScore[current.pos] {
			continue
		}
		if current.pos == goal {
			return reconstructPath(current), nil
		}
		closed[current.pos] = true

		for _, next := range pf.grid.Neighbors(current.pos) {
			if closed[next] || !pf.CanStep(current.pos, next, goal) {
				continue
			}
			tentativeG := current.g + 1
			if existing, ok := gScore[next]; ok && tentativeG >= existing {
				continue
			}
			gScore[next] = tentativeG
			seq++
			heap.Push(&open, &node{
				pos:    next,
				g:      tentativeG,
				h:      next.Manhattan(goal),
				seq:    seq,
				parent: current,
			})
		}
	}

	return nil, fmt.Errorf("path %s -> %s: %w", start, goal, models.ErrPathNotFound)
}

// NearestAccessible resolves a traversable cell next to target (usually a
// shelf) with the cheapest route from `from`. Ties keep grid neighbour order.
func (pf *Pathfinder) NearestAccessible(from, target models.Position) (models.Position, error) {
	var (
		best     models.Position
		bestCost = -1
	)
	for _, candidate := range pf.grid.Neighbors(target) {
		if !pf.grid.IsTraversable(candidate) {
			continue
		}
		path, err := pf.FindPath(from, candidate)
		if err != nil {
			continue
		}
		if bestCost < 0 || path.Cost() < bestCost {
			best, bestCost = candidate, path.Cost()
		}
	}
	if bestCost < 0 {
		return models.Position{}, fmt.Errorf("access %s from %s: %w", target, from, models.ErrPathNotFound)
	}
	return best, nil
}

// AccessCells lists the traversable neighbours of target in grid neighbour order.
func (pf *Pathfinder) AccessCells(target models.Position) []models.Position {
	var cells []models.Position
	for _, candidate := range pf.grid.Neighbors(target) {
		if pf.grid.IsTraversable(candidate) {
			cells = append(cells, candidate)
		}
	}
	return cells
}

// Validate checks that every step of path obeys the traversal rules.
func (pf *Pathfinder) Validate(path models.Path) error {
	if len(path) == 0 {
		return fmt.Errorf("empty path")
	}
	goal := path.Goal()
	for i := 0; i+1 < len(path); i++ {
		if !pf.CanStep(path[i], path[i+1], goal) {
			return fmt.Errorf("illegal step %s -> %s", path[i], path[i+1])
		}
	}
	return nil
}

// reconstructPath - 경로 재구성
func reconstructPath(n *node) models.Path {
	var reversed models.Path
	for current := n; current != nil; current = current.parent {
		reversed = append(reversed, current.pos)
	}
	path := make(models.Path, len(reversed))
	for i, p := range reversed {
		path[len(reversed)-1-i] = p
	}
	return path
}
