package core

import (
	"errors"
	"strings"
	"sync"
)

// DefaultObstacle is the cell code that marks a shelf or wall.
const DefaultObstacle = "8"

var (
	// ErrEmptyGrid indicates a grid without rows or columns.
	ErrEmptyGrid = errors.New("core: grid must have at least one row and one column")
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("core: all grid rows must have the same length")
	// ErrOutOfBounds indicates a position outside the grid.
	ErrOutOfBounds = errors.New("core: position out of bounds")
)

// Directions lists the 4-connected moves in expansion order.
var Directions = [4]Pos{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}}

// Grid is the static obstacle map. It is immutable once built.
type Grid struct {
	width, height int
	blocked       []bool
	labelOnce     sync.Once
	labels        []int32 // connected component per cell, -1 for obstacles
}

// NewGrid builds a grid from rows of cell codes. rows[y][x] is the cell at (x, y).
func NewGrid(rows [][]string, obstacle string) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	if obstacle == "" {
		obstacle = DefaultObstacle
	}
	h, w := len(rows), len(rows[0])
	g := &Grid{width: w, height: h, blocked: make([]bool, w*h)}
	for y, row := range rows {
		if len(row) != w {
			return nil, ErrNonRectangular
		}
		for x, code := range row {
			g.blocked[y*w+x] = code == obstacle
		}
	}
	return g, nil
}

// ParseGrid builds a grid from text rows with one character per cell.
func ParseGrid(lines []string, obstacle string) (*Grid, error) {
	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = strings.Split(line, "")
	}
	return NewGrid(rows, obstacle)
}

// OpenGrid returns an obstacle-free w x h grid.
func OpenGrid(w, h int) *Grid {
	return &Grid{width: w, height: h, blocked: make([]bool, w*h)}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Cells returns the total number of cells.
func (g *Grid) Cells() int { return g.width * g.height }

// InBounds reports whether p lies within the grid.
func (g *Grid) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Passable reports whether a vehicle may occupy p.
func (g *Grid) Passable(p Pos) bool {
	return g.InBounds(p) && !g.blocked[p.Y*g.width+p.X]
}

// Neighbors returns the passable 4-connected neighbours of p.
func (g *Grid) Neighbors(p Pos) []Pos {
	out := make([]Pos, 0, 4)
	for _, d := range Directions {
		if n := p.Add(d); g.Passable(n) {
			out = append(out, n)
		}
	}
	return out
}

// Connected reports whether b can be reached from a ignoring time.
func (g *Grid) Connected(a, b Pos) bool {
	if !g.Passable(a) || !g.Passable(b) {
		return false
	}
	g.labelOnce.Do(g.label)
	return g.labels[a.Y*g.width+a.X] == g.labels[b.Y*g.width+b.X]
}

// label assigns a component id to every passable cell by BFS.
func (g *Grid) label() {
	labels := make([]int32, len(g.blocked))
	for i := range labels {
		labels[i] = -1
	}
	var next int32
	queue := make([]int, 0, len(labels))
	for i, b := range g.blocked {
		if b || labels[i] >= 0 {
			continue
		}
		labels[i] = next
		queue = append(queue[:0], i)
		for qi := 0; qi < len(queue); qi++ {
			u := queue[qi]
			p := Pos{X: u % g.width, Y: u / g.width}
			for _, d := range Directions {
				n := p.Add(d)
				if !g.Passable(n) {
					continue
				}
				if vi := n.Y*g.width + n.X; labels[vi] < 0 {
					labels[vi] = next
					queue = append(queue, vi)
				}
			}
		}
		next++
	}
	g.labels = labels
}
