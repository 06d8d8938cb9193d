package instance

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// Params defines parameters for instance generation.
type Params struct {
	Seed     int64 `yaml:"seed" json:"seed"`
	Vehicles int   `yaml:"vehicles" json:"vehicles"`
	Items    int   `yaml:"items" json:"items"`
	Width    int   `yaml:"width" json:"width"`
	Height   int   `yaml:"height" json:"height"`
}

// ScalingSizes is the vehicle counts of the scaling suite.
var ScalingSizes = []int{2, 4, 8, 16, 32}

// Layout:
//
//	column x%3 == 0  aisle
//	column x%3 == 1  shelf picked from the left (odd shelf order)
//	column x%3 == 2  shelf picked from the right (even shelf order)
//
// Rows 0, 1 and the top row are cross aisles, and the last column is
// always an aisle. Vehicles start along row 0 from x=1; the drop point is
// the bottom-left corner.
func isShelf(p Params, x, y int) bool {
	return x%3 != 0 && x < p.Width-1 && y >= 2 && y < p.Height-1
}

func (p Params) validate() error {
	switch {
	case p.Width < 4 || p.Height < 4:
		return fmt.Errorf("%w: grid %dx%d is smaller than 4x4", ErrInvalid, p.Width, p.Height)
	case p.Vehicles < 0 || p.Vehicles > p.Width-1:
		return fmt.Errorf("%w: %d vehicles do not fit along a %d wide grid", ErrInvalid, p.Vehicles, p.Width)
	case p.Items < 0:
		return fmt.Errorf("%w: negative item count", ErrInvalid)
	}
	shelves := 0
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			if isShelf(p, x, y) {
				shelves++
			}
		}
	}
	if p.Items > shelves {
		return fmt.Errorf("%w: %d items exceed %d shelf cells", ErrInvalid, p.Items, shelves)
	}
	return nil
}

// Generate creates a warehouse instance from parameters. The layout, roster
// and items depend only on the parameters.
func Generate(p Params) (*File, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(p.Seed))

	f := &File{
		Name:      fmt.Sprintf("pick_%d_%dx%d_%d", p.Vehicles, p.Width, p.Height, p.Seed),
		Obstacle:  core.DefaultObstacle,
		Drop:      core.Pos{X: 0, Y: 0},
		Params:    &p,
		Generated: time.Now().UTC().Format(time.RFC3339),
	}

	var shelves []core.Pos
	for y := 0; y < p.Height; y++ {
		var row strings.Builder
		for x := 0; x < p.Width; x++ {
			if isShelf(p, x, y) {
				row.WriteString(core.DefaultObstacle)
				shelves = append(shelves, core.Pos{X: x, Y: y})
			} else {
				row.WriteByte('0')
			}
		}
		f.Grid = append(f.Grid, row.String())
	}

	for i := 0; i < p.Vehicles; i++ {
		f.Vehicles = append(f.Vehicles, VehicleSpec{
			Code:  core.VehicleCode(fmt.Sprintf("V%02d", i+1)),
			Start: core.Pos{X: i + 1, Y: 0},
		})
	}

	// Partial Fisher-Yates keeps shelf cells unique.
	for i := 0; i < p.Items; i++ {
		j := i + rng.Intn(len(shelves)-i)
		shelves[i], shelves[j] = shelves[j], shelves[i]
		c := shelves[i]
		order := 1 + 2*rng.Intn(5)
		if c.X%3 == 2 {
			order++
		}
		f.Items = append(f.Items, core.Item{
			ID:         core.ItemID(fmt.Sprintf("C%04d", i+1)),
			Coordinate: c,
			ShelfOrder: order,
		})
	}
	return f, nil
}

// GenerateSuite generates the scaling suite: the grid grows with the square
// root of the vehicle count and every vehicle gets three items.
func GenerateSuite(seed int64) ([]*File, error) {
	var out []*File
	for _, size := range ScalingSizes {
		side := max(int(math.Ceil(math.Sqrt(float64(size))*4)), 10)
		side = max(side, size+1)
		f, err := Generate(Params{Seed: seed, Vehicles: size, Items: size * 3, Width: side, Height: side})
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
