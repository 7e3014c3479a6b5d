package services

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"warehouse-fleet/algorithms"
	"warehouse-fleet/models"
)

// ========================================
// 레이아웃 파일 스키마
// ========================================

// LayoutFile - YAML 창고 레이아웃
type LayoutFile struct {
	Name  string     `yaml:"name"`
	Rows  int        `yaml:"rows" validate:"gt=0,lte=512"`
	Cols  int        `yaml:"cols" validate:"gt=0,lte=512"`
	Lanes LaneSpec   `yaml:"lanes"`
	Shelf []ShelfDef `yaml:"shelves" validate:"dive"`
	Nodes []NodeDef  `yaml:"nodes" validate:"dive"`
	Fleet FleetDef   `yaml:"fleet"`
	Items []Item     `yaml:"items" validate:"dive"`
}

// LaneSpec - 레인 행 설정
type LaneSpec struct {
	Rows          []int `yaml:"rows"`
	Bidirectional bool  `yaml:"bidirectional"`
}

// ShelfDef - 선반 정의
type ShelfDef struct {
	ID       string          `yaml:"id" validate:"required"`
	Position models.Position `yaml:"position"`
	Capacity int             `yaml:"capacity" validate:"gte=0"`
}

// NodeDef - 특수 노드 정의 (dock / packing / truck_bay)
type NodeDef struct {
	Kind     models.CellKind `yaml:"kind" validate:"required,oneof=dock packing truck_bay"`
	Position models.Position `yaml:"position"`
}

// FleetDef - 로봇 수와 속도. Robots overrides Count when set.
type FleetDef struct {
	Count  int         `yaml:"count" validate:"gte=0"`
	Speed  float64     `yaml:"speed" validate:"gte=0"`
	Robots []AgentSpec `yaml:"robots" validate:"dive"`
}

// Warehouse - 로드된 창고 (그리드 + 재고 + 플릿 구성)
type Warehouse struct {
	Name      string
	Grid      *algorithms.Grid
	Inventory *Inventory
	Docks     []models.Position
	Fleet     FleetConfig
}

var layoutValidate = validator.New()

// LoadLayout reads a YAML layout from disk.
func LoadLayout(path string) (*Warehouse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	w, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return w, nil
}

// ParseLayout - YAML 파싱 후 창고 구성
func ParseLayout(data []byte) (*Warehouse, error) {
	var file LayoutFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return file.Build()
}

// Build validates the file and assembles the warehouse. Lanes are laid
// after shelves and nodes so they only cover the remaining free cells.
func (f LayoutFile) Build() (*Warehouse, error) {
	if err := layoutValidate.Struct(f); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	grid := algorithms.NewGrid(f.Rows, f.Cols)
	inv := NewInventory()

	for _, s := range f.Shelf {
		if err := grid.AddShelf(s.Position); err != nil {
			return nil, fmt.Errorf("shelf %s: %w", s.ID, err)
		}
		if err := inv.AddShelf(s.ID, s.Position, s.Capacity); err != nil {
			return nil, err
		}
	}
	for _, n := range f.Nodes {
		if err := grid.AddNode(n.Position, n.Kind); err != nil {
			return nil, fmt.Errorf("%s node: %w", n.Kind, err)
		}
	}
	if err := grid.CreateLanes(f.Lanes.Rows, f.Lanes.Bidirectional); err != nil {
		return nil, err
	}
	for _, item := range f.Items {
		if err := inv.AddItem(item); err != nil {
			return nil, err
		}
	}

	docks := grid.Cells(models.CellDock)
	dock, err := mainDock(grid, docks)
	if err != nil {
		return nil, err
	}

	robots := f.Fleet.Robots
	if len(robots) == 0 {
		count, speed := f.Fleet.Count, f.Fleet.Speed
		if count == 0 {
			count = 1
		}
		if speed == 0 {
			speed = 1.0
		}
		for i := 0; i < count; i++ {
			robots = append(robots, AgentSpec{Start: dock, Speed: speed})
		}
	}

	return &Warehouse{
		Name:      f.Name,
		Grid:      grid,
		Inventory: inv,
		Docks:     docks,
		Fleet:     FleetConfig{Dock: dock, Agents: robots},
	}, nil
}

// mainDock - 첫 번째 도크, 없으면 첫 번째 통행 가능 셀
func mainDock(grid *algorithms.Grid, docks []models.Position) (models.Position, error) {
	if len(docks) > 0 {
		return docks[0], nil
	}
	for r := 0; r < grid.Rows; r++ {
		for c := 0; c < grid.Cols; c++ {
			p := models.Position{Row: r, Col: c}
			if grid.IsTraversable(p) {
				return p, nil
			}
		}
	}
	return models.Position{}, models.ErrNoDock
}

// MapData - map_update 페이로드 생성
func (w *Warehouse) MapData() models.MapData {
	return models.MapData{
		Rows:   w.Grid.Rows,
		Cols:   w.Grid.Cols,
		Cells:  w.Grid.RenderRows(),
		Docks:  w.Docks,
		Render: w.Grid.Render(),
	}
}

// DefaultLayoutFile - 기본 9x9 창고
func DefaultLayoutFile() LayoutFile {
	p := func(r, c int) models.Position { return models.Position{Row: r, Col: c} }
	return LayoutFile{
		Name:  "default",
		Rows:  9,
		Cols:  9,
		Lanes: LaneSpec{Rows: []int{3, 5}, Bidirectional: true},
		Shelf: []ShelfDef{
			{ID: "A", Position: p(2, 2), Capacity: 100},
			{ID: "B", Position: p(2, 6), Capacity: 100},
			{ID: "C", Position: p(6, 2), Capacity: 100},
			{ID: "D", Position: p(6, 6), Capacity: 100},
			{ID: "A1", Position: p(1, 1), Capacity: 50},
			{ID: "B1", Position: p(1, 7), Capacity: 50},
			{ID: "C1", Position: p(7, 1), Capacity: 50},
			{ID: "D1", Position: p(7, 7), Capacity: 50},
		},
		Nodes: []NodeDef{
			{Kind: models.CellDock, Position: p(0, 1)},
			{Kind: models.CellDock, Position: p(0, 7)},
			{Kind: models.CellPacking, Position: p(4, 4)},
			{Kind: models.CellTruckBay, Position: p(8, 4)},
		},
		Fleet: FleetDef{Count: 3, Speed: 1.0},
		Items: []Item{
			{SKU: "ITEM001", Name: "Laptop", Category: "Electronics", ShelfID: "A", Quantity: 10},
			{SKU: "ITEM002", Name: "Mouse", Category: "Electronics", ShelfID: "A", Quantity: 25},
			{SKU: "ITEM003", Name: "Desk Chair", Category: "Furniture", ShelfID: "B", Quantity: 5},
			{SKU: "ITEM004", Name: "Notebook", Category: "Stationery", ShelfID: "C", Quantity: 40},
			{SKU: "ITEM005", Name: "Monitor", Category: "Electronics", ShelfID: "D", Quantity: 8},
			{SKU: "ITEM006", Name: "Stapler", Category: "Stationery", ShelfID: "C1", Quantity: 12},
		},
	}
}

// DefaultLayout builds the default warehouse.
func DefaultLayout() *Warehouse {
	w, err := DefaultLayoutFile().Build()
	if err != nil {
		panic(fmt.Sprintf("default layout: %v", err))
	}
	return w
}
