// Package core defines the warehouse picking domain: grid, cartons, vehicles and paths.
package core

import "fmt"

// Pos is a cell on the warehouse grid.
type Pos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns p shifted by d.
func (p Pos) Add(d Pos) Pos {
	return Pos{X: p.X + d.X, Y: p.Y + d.Y}
}

// Manhattan returns the rectilinear distance between two cells.
func Manhattan(a, b Pos) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Action tags what a vehicle does during one tick.
type Action int

const (
	ActionMove Action = iota // Moved to an adjacent cell
	ActionStop               // Waited in place
	ActionPick               // Picked a carton from the adjacent shelf
	ActionDrop               // Dropped cartons at the drop point
)

func (a Action) String() string {
	return [...]string{"move", "stop", "pick", "drop"}[a]
}

// MarshalText encodes the action as its lower-case name.
func (a Action) MarshalText() ([]byte, error) {
	if a < ActionMove || a > ActionDrop {
		return nil, fmt.Errorf("core: unknown action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name.
func (a *Action) UnmarshalText(b []byte) error {
	switch string(b) {
	case "move":
		*a = ActionMove
	case "stop":
		*a = ActionStop
	case "pick":
		*a = ActionPick
	case "drop":
		*a = ActionDrop
	default:
		return fmt.Errorf("core: unknown action %q", string(b))
	}
	return nil
}
