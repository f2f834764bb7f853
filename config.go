package junctionsim

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PhysicalConstants are junction-wide values read from the system configuration file
type PhysicalConstants struct {
	// Metres per second
	TrafficSpeed float64 `yaml:"traffic_speed" json:"traffic_speed"`
	// Metres
	VehicleLength float64 `yaml:"vehicle_length" json:"vehicle_length"`
	// Seconds
	MinimumGreenTime float64 `yaml:"minimum_green_light_time" json:"minimum_green_light_time"`
}

func DefaultPhysicalConstants() PhysicalConstants {
	return PhysicalConstants{
		TrafficSpeed:     13.4112,
		VehicleLength:    4.5,
		MinimumGreenTime: 10,
	}
}

// Validate returns ErrInvalidConstants if any value is missing, non-positive or not finite
func (constants PhysicalConstants) Validate() error {
	values := []struct {
		name  string
		value float64
	}{
		{"traffic_speed", constants.TrafficSpeed},
		{"vehicle_length", constants.VehicleLength},
		{"minimum_green_light_time", constants.MinimumGreenTime},
	}
	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) || v.value <= 0 {
			return errors.Wrapf(ErrInvalidConstants, "%s must be positive and finite, got %v", v.name, v.value)
		}
	}
	return nil
}

// TransitTime returns seconds one vehicle needs to clear the stop line
func (constants PhysicalConstants) TransitTime() float64 {
	return constants.VehicleLength / constants.TrafficSpeed
}

// LoadPhysicalConstants reads and validates system configuration file
func LoadPhysicalConstants(fileName string) (PhysicalConstants, error) {
	constants := PhysicalConstants{}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return constants, errors.Wrap(err, "Can't read system configuration")
	}
	err = yaml.Unmarshal(data, &constants)
	if err != nil {
		return constants, errors.Wrapf(ErrInvalidConstants, "Can't parse system configuration: %s", err.Error())
	}
	if err = constants.Validate(); err != nil {
		return constants, errors.Wrapf(err, "file '%s'", fileName)
	}
	return constants, nil
}

// DirectionConfiguration is the input of one arm
type DirectionConfiguration struct {
	// [left, straight, right] or [left, straight, right, cycle/bus]
	Flows []int      `yaml:"flows" json:"flows"`
	Lanes []LaneType `yaml:"lanes" json:"lanes"`
}

// VPH returns flows padded to [left, straight, right, cycle/bus]
func (cfg DirectionConfiguration) VPH() ([4]int, error) {
	vph := [4]int{}
	if len(cfg.Flows) != 3 && len(cfg.Flows) != 4 {
		return vph, errors.Wrapf(ErrInvalidFlow, "expected 3 or 4 flow values, got %d", len(cfg.Flows))
	}
	copy(vph[:], cfg.Flows)
	return vph, nil
}

type PriorityConfiguration struct {
	UserSupplied bool  `yaml:"user_supplied" json:"user_supplied"`
	Values       []int `yaml:"values,omitempty" json:"values,omitempty"`
	// Alternative to Values keyed by arm name
	ByDirection map[DirectionName]int `yaml:"by_direction,omitempty" json:"by_direction,omitempty"`
}

// Priorities returns user supplied priorities in service order
func (cfg PriorityConfiguration) Priorities() ([4]int, error) {
	priorities := [4]int{}
	if len(cfg.ByDirection) > 0 {
		if len(cfg.Values) > 0 {
			return priorities, errors.Wrap(ErrInvalidPriorities, "values and by_direction can't be set together")
		}
		for _, name := range DirectionsOrder {
			value, ok := cfg.ByDirection[name]
			if !ok {
				return priorities, errors.Wrapf(ErrInvalidPriorities, "no priority for %s direction", name)
			}
			priorities[name] = value
		}
		return priorities, nil
	}
	if len(cfg.Values) != 4 {
		return priorities, errors.Wrapf(ErrInvalidPriorities, "expected 4 values, got %d", len(cfg.Values))
	}
	copy(priorities[:], cfg.Values)
	return priorities, nil
}

type CrossingConfiguration struct {
	Enabled         bool    `yaml:"enabled" json:"enabled"`
	RequestsPerHour int     `yaml:"requests_per_hour" json:"requests_per_hour"`
	Duration        float64 `yaml:"duration" json:"duration"`
}

// Location is the junction centre (WGS84)
type Location struct {
	Lon float64 `yaml:"lon" json:"lon"`
	Lat float64 `yaml:"lat" json:"lat"`
}

// OSMSource points to a signalised node whose approaches define the lane layouts
type OSMSource struct {
	File   string `yaml:"file" json:"file"`
	NodeID int64  `yaml:"node" json:"node"`
}

// RunConfiguration is the structured input of one simulation run
type RunConfiguration struct {
	North              DirectionConfiguration `yaml:"north" json:"north"`
	East               DirectionConfiguration `yaml:"east" json:"east"`
	South              DirectionConfiguration `yaml:"south" json:"south"`
	West               DirectionConfiguration `yaml:"west" json:"west"`
	Priority           PriorityConfiguration  `yaml:"priority" json:"priority"`
	PedestrianCrossing CrossingConfiguration  `yaml:"pedestrian_crossing" json:"pedestrian_crossing"`
	Location           *Location              `yaml:"location,omitempty" json:"location,omitempty"`
	OSM                *OSMSource             `yaml:"osm,omitempty" json:"osm,omitempty"`
}

// Direction returns configuration of given arm
func (cfg *RunConfiguration) Direction(name DirectionName) *DirectionConfiguration {
	switch name {
	case DIRECTION_NORTH:
		return &cfg.North
	case DIRECTION_EAST:
		return &cfg.East
	case DIRECTION_SOUTH:
		return &cfg.South
	default:
		return &cfg.West
	}
}

// LoadRunConfiguration reads YAML (or JSON) run configuration
func LoadRunConfiguration(fileName string) (*RunConfiguration, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read run configuration")
	}
	cfg := &RunConfiguration{}
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't parse run configuration '%s'", fileName)
	}
	return cfg, nil
}
