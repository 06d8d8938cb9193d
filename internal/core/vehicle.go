package core

// VehicleCode identifies a picking vehicle.
type VehicleCode string

// Vehicle is a picking vehicle with its externally supplied positions and its job.
type Vehicle struct {
	Code  VehicleCode
	Start Pos
	Drop  Pos
	Job   Job
}

// Leg is one goal of a vehicle's route.
type Leg struct {
	Goal   Pos
	Action Action // ActionPick, ActionDrop, or ActionMove for the final return leg
	Item   *Item  // set for pick legs
}

// Legs expands the vehicle's job into its ordered route legs:
// pick cell, drop, pick cell, drop, ..., start.
func (v *Vehicle) Legs() []Leg {
	legs := make([]Leg, 0, 2*len(v.Job.Items)+1)
	for i := range v.Job.Items {
		it := &v.Job.Items[i]
		legs = append(legs,
			Leg{Goal: it.PickPos(), Action: ActionPick, Item: it},
			Leg{Goal: v.Drop, Action: ActionDrop},
		)
	}
	return append(legs, Leg{Goal: v.Start, Action: ActionMove})
}
