package core

// ItemID identifies a carton.
type ItemID string

// Item is a carton waiting on a shelf.
type Item struct {
	ID         ItemID `json:"id" yaml:"id"`
	Coordinate Pos    `json:"coordinate" yaml:"coordinate"`
	ShelfOrder int    `json:"shelfOrder" yaml:"shelfOrder"`
}

// PickPos returns the aisle cell a vehicle stands on to pick the item.
// Odd shelf orders are picked from the left aisle, even ones from the right.
func (it Item) PickPos() Pos {
	if it.ShelfOrder%2 != 0 {
		return Pos{X: it.Coordinate.X - 1, Y: it.Coordinate.Y}
	}
	return Pos{X: it.Coordinate.X + 1, Y: it.Coordinate.Y}
}

// Job is the ordered list of items assigned to one vehicle.
type Job struct {
	Items []Item `json:"cartons"`
}

// Len returns the number of items in the job.
func (j Job) Len() int { return len(j.Items) }

// Clone returns a copy whose item slice does not alias j.
func (j Job) Clone() Job {
	items := make([]Item, len(j.Items))
	copy(items, j.Items)
	return Job{Items: items}
}
