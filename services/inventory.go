package services

import (
	"fmt"
	"sort"
	"sync"

	"warehouse-fleet/models"
)

// InventoryLookup resolves a SKU to the shelf holding it.
type InventoryLookup interface {
	ShelfForSKU(sku string) (shelfID string, pos models.Position, ok bool)
}

// Shelf - 선반 위치와 용량
type Shelf struct {
	ID       string          `json:"id"`
	Position models.Position `json:"position"`
	Capacity int             `json:"capacity"`
	Load     int             `json:"load"`
}

// Item - 재고 품목
type Item struct {
	SKU      string `json:"sku" yaml:"sku" validate:"required"`
	Name     string `json:"name" yaml:"name" validate:"required"`
	Category string `json:"category" yaml:"category" validate:"required"`
	ShelfID  string `json:"shelf_id" yaml:"shelf" validate:"required"`
	Quantity int    `json:"quantity" yaml:"quantity" validate:"gte=0"`
}

// Inventory - SKU/선반 인덱스를 함께 관리하는 메모리 재고
type Inventory struct {
	mu      sync.RWMutex
	shelves map[string]*Shelf
	items   map[string]*Item
	byShelf map[string][]string
}

// NewInventory - 빈 재고 생성
func NewInventory() *Inventory {
	return &Inventory{
		shelves: make(map[string]*Shelf),
		items:   make(map[string]*Item),
		byShelf: make(map[string][]string),
	}
}

// AddShelf registers a shelf location. Capacity 0 means unlimited.
func (inv *Inventory) AddShelf(id string, pos models.Position, capacity int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, exists := inv.shelves[id]; exists {
		return fmt.Errorf("shelf %s: %w", id, models.ErrCellOccupied)
	}
	inv.shelves[id] = &Shelf{ID: id, Position: pos, Capacity: capacity}
	return nil
}

// AddItem stores an item on an existing shelf.
func (inv *Inventory) AddItem(item Item) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, exists := inv.items[item.SKU]; exists {
		return fmt.Errorf("add %s: %w", item.SKU, models.ErrDuplicateSKU)
	}
	shelf, ok := inv.shelves[item.ShelfID]
	if !ok {
		return fmt.Errorf("add %s to %s: %w", item.SKU, item.ShelfID, models.ErrUnknownShelf)
	}
	if shelf.Capacity > 0 && shelf.Load+item.Quantity > shelf.Capacity {
		return fmt.Errorf("add %s to %s (%d/%d): %w", item.SKU, shelf.ID, shelf.Load, shelf.Capacity, models.ErrShelfFull)
	}

	it := item
	inv.items[item.SKU] = &it
	inv.byShelf[shelf.ID] = append(inv.byShelf[shelf.ID], item.SKU)
	shelf.Load += item.Quantity
	return nil
}

// RemoveItem deletes an item and releases its shelf capacity.
func (inv *Inventory) RemoveItem(sku string) (Item, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	item, ok := inv.items[sku]
	if !ok {
		return Item{}, fmt.Errorf("remove %s: %w", sku, models.ErrUnknownSKU)
	}
	delete(inv.items, sku)
	inv.detach(item)
	return *item, nil
}

// MoveItem relocates an item to another shelf.
func (inv *Inventory) MoveItem(sku, shelfID string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	item, ok := inv.items[sku]
	if !ok {
		return fmt.Errorf("move %s: %w", sku, models.ErrUnknownSKU)
	}
	dst, ok := inv.shelves[shelfID]
	if !ok {
		return fmt.Errorf("move %s to %s: %w", sku, shelfID, models.ErrUnknownShelf)
	}
	if item.ShelfID == shelfID {
		return nil
	}
	if dst.Capacity > 0 && dst.Load+item.Quantity > dst.Capacity {
		return fmt.Errorf("move %s to %s: %w", sku, shelfID, models.ErrShelfFull)
	}

	inv.detach(item)
	item.ShelfID = shelfID
	inv.byShelf[shelfID] = append(inv.byShelf[shelfID], sku)
	dst.Load += item.Quantity
	return nil
}

// detach - 선반 인덱스에서 제거 (lock held)
func (inv *Inventory) detach(item *Item) {
	skus := inv.byShelf[item.ShelfID]
	for i, s := range skus {
		if s == item.SKU {
			inv.byShelf[item.ShelfID] = append(skus[:i], skus[i+1:]...)
			break
		}
	}
	if shelf, ok := inv.shelves[item.ShelfID]; ok {
		shelf.Load -= item.Quantity
	}
}

// ShelfForSKU implements InventoryLookup.
func (inv *Inventory) ShelfForSKU(sku string) (string, models.Position, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	item, ok := inv.items[sku]
	if !ok {
		return "", models.Position{}, false
	}
	shelf, ok := inv.shelves[item.ShelfID]
	if !ok {
		return "", models.Position{}, false
	}
	return shelf.ID, shelf.Position, true
}

// Item returns a copy of the item stored under sku.
func (inv *Inventory) Item(sku string) (Item, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	item, ok := inv.items[sku]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// ItemsOnShelf lists items on a shelf, sorted by SKU.
func (inv *Inventory) ItemsOnShelf(shelfID string) []Item {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]Item, 0, len(inv.byShelf[shelfID]))
	for _, sku := range inv.byShelf[shelfID] {
		out = append(out, *inv.items[sku])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// Items lists all items sorted by SKU.
func (inv *Inventory) Items() []Item {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]Item, 0, len(inv.items))
	for _, item := range inv.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// Shelves lists shelves sorted by id.
func (inv *Inventory) Shelves() []Shelf {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]Shelf, 0, len(inv.shelves))
	for _, s := range inv.shelves {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
