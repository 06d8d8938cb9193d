package algo

// NodeInfo describes a conflict-based search node.
type NodeInfo struct {
	ID          int
	ParentID    int // -1 for the root
	Depth       int
	Constraints int
	Cost        int // sum of path end times
}

// Observer receives conflict-based search events. Calls happen on the
// planner goroutine, never concurrently.
type Observer interface {
	OnNodeExpanded(n NodeInfo)
	OnConflictDetected(n NodeInfo, c Conflict)
	OnConstraintAdded(child NodeInfo, c Constraint)
	OnSolutionFound(n NodeInfo)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnNodeExpanded(NodeInfo)                {}
func (NopObserver) OnConflictDetected(NodeInfo, Conflict)  {}
func (NopObserver) OnConstraintAdded(NodeInfo, Constraint) {}
func (NopObserver) OnSolutionFound(NodeInfo)               {}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnNodeExpanded(n NodeInfo) {
	for _, o := range m {
		o.OnNodeExpanded(n)
	}
}

func (m MultiObserver) OnConflictDetected(n NodeInfo, c Conflict) {
	for _, o := range m {
		o.OnConflictDetected(n, c)
	}
}

func (m MultiObserver) OnConstraintAdded(child NodeInfo, c Constraint) {
	for _, o := range m {
		o.OnConstraintAdded(child, c)
	}
}

func (m MultiObserver) OnSolutionFound(n NodeInfo) {
	for _, o := range m {
		o.OnSolutionFound(n)
	}
}
