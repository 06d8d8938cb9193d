// Package instance reads and writes planning instance files and generates
// synthetic warehouse layouts.
package instance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// ErrInvalid marks an instance file that cannot be planned.
var ErrInvalid = errors.New("instance: invalid")

// File is the on-disk form of an instance. Grid rows hold one character per
// cell; row y is the cell row at y.
type File struct {
	Name      string        `yaml:"name" json:"name"`
	Obstacle  string        `yaml:"obstacle,omitempty" json:"obstacle,omitempty"`
	Grid      []string      `yaml:"grid" json:"grid"`
	Drop      core.Pos      `yaml:"drop" json:"drop"`
	Vehicles  []VehicleSpec `yaml:"vehicles" json:"vehicles"`
	Items     []core.Item   `yaml:"items" json:"items"`
	Params    *Params       `yaml:"params,omitempty" json:"params,omitempty"`
	Generated string        `yaml:"generated,omitempty" json:"generated,omitempty"`
}

// VehicleSpec is a roster entry.
type VehicleSpec struct {
	Code  core.VehicleCode `yaml:"code" json:"code"`
	Start core.Pos         `yaml:"start" json:"start"`
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Decode parses an instance document. JSON is selected by the json flag,
// everything else is read as YAML.
func Decode(data []byte, asJSON bool) (*File, error) {
	var f File
	var err error
	if asJSON {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return &f, nil
}

// Load reads an instance file; the extension picks the codec.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading instance %s: %w", path, err)
	}
	f, err := Decode(data, isJSON(path))
	if err != nil {
		return nil, fmt.Errorf("parsing instance %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Save writes an instance file; the extension picks the codec.
func Save(path string, f *File) error {
	var data []byte
	var err error
	if isJSON(path) {
		data, err = json.MarshalIndent(f, "", "  ")
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("encoding instance %s: %w", f.Name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing instance %s: %w", path, err)
	}
	return nil
}

// Build validates the file and converts it into a planning instance.
func (f *File) Build() (*core.Instance, error) {
	obstacle := f.Obstacle
	if obstacle == "" {
		obstacle = core.DefaultObstacle
	}
	g, err := core.ParseGrid(f.Grid, obstacle)
	if err != nil {
		return nil, fmt.Errorf("%w: grid: %w", ErrInvalid, err)
	}

	inst := core.NewInstance(g)
	inst.Name = f.Name
	inst.Drop = f.Drop
	for _, v := range f.Vehicles {
		if v.Code == "" {
			return nil, fmt.Errorf("%w: vehicle without code", ErrInvalid)
		}
		inst.AddVehicle(v.Code, v.Start)
	}
	ids := make(map[core.ItemID]bool, len(f.Items))
	for _, it := range f.Items {
		if ids[it.ID] {
			return nil, fmt.Errorf("%w: duplicate item id %q", ErrInvalid, it.ID)
		}
		ids[it.ID] = true
	}
	inst.Items = append([]core.Item(nil), f.Items...)

	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return inst, nil
}

// Validate reports whether the file builds into a plannable instance.
func (f *File) Validate() error {
	_, err := f.Build()
	return err
}
