package core

import "fmt"

// Instance is one planning problem: grid, cartons, roster and drop point.
type Instance struct {
	Name     string
	Grid     *Grid
	Items    []Item
	Vehicles []*Vehicle // roster order; Job is filled by the pipeline
	Drop     Pos
}

// NewInstance creates an empty instance on the given grid.
func NewInstance(g *Grid) *Instance {
	return &Instance{Grid: g}
}

// AddVehicle appends a vehicle to the roster with the instance's drop point.
func (inst *Instance) AddVehicle(code VehicleCode, start Pos) *Vehicle {
	v := &Vehicle{Code: code, Start: start, Drop: inst.Drop}
	inst.Vehicles = append(inst.Vehicles, v)
	return v
}

// Validate checks that every position the planners rely on is usable.
func (inst *Instance) Validate() error {
	if inst.Grid == nil {
		return ErrEmptyGrid
	}
	if !inst.Grid.Passable(inst.Drop) {
		return fmt.Errorf("drop %v: %w", inst.Drop, ErrOutOfBounds)
	}
	seen := make(map[VehicleCode]bool, len(inst.Vehicles))
	starts := make(map[Pos]VehicleCode, len(inst.Vehicles))
	for _, v := range inst.Vehicles {
		if seen[v.Code] {
			return fmt.Errorf("core: duplicate vehicle code %q", v.Code)
		}
		seen[v.Code] = true
		if other, ok := starts[v.Start]; ok {
			return fmt.Errorf("core: vehicles %s and %s share start %v", other, v.Code, v.Start)
		}
		starts[v.Start] = v.Code
		if !inst.Grid.Passable(v.Start) {
			return fmt.Errorf("vehicle %s start %v: %w", v.Code, v.Start, ErrOutOfBounds)
		}
	}
	for _, it := range inst.Items {
		if !inst.Grid.Passable(it.PickPos()) {
			return fmt.Errorf("item %s pick cell %v: %w", it.ID, it.PickPos(), ErrOutOfBounds)
		}
	}
	return nil
}

// VehicleByCode finds a vehicle by code.
func (inst *Instance) VehicleByCode(code VehicleCode) *Vehicle {
	for _, v := range inst.Vehicles {
		if v.Code == code {
			return v
		}
	}
	return nil
}
