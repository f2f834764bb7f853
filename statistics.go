package junctionsim

import (
	"encoding/json"
	"strconv"

	"github.com/samber/lo"
	"github.com/vmihailenco/msgpack/v5"
)

// LaneStatistics is the terminal state of one lane
type LaneStatistics struct {
	LaneType LaneType
	// nil when the lane never queued a vehicle
	MaxQueue *int
	// nil when no queued vehicle was served
	MaxWait           *float64
	AvgWait           float64
	RemainingVehicles int
	DirectionFlow     [3]int
	TotalFlow         int
	CarsPassedThrough int
	TotalWait         float64
}

// DirectionStatistics aggregates lanes of one arm
type DirectionStatistics struct {
	Name              DirectionName
	LightTime         float64
	VPHFlowDirections [4]int
	LaneLayout        []LaneType
	MaxWait           *float64
	MaxQueue          *int
	AvgWait           float64
	TotalWait         float64
	CarsPassedThrough int
	Lanes             []LaneStatistics
}

// Statistics is the output of one simulation run
type Statistics struct {
	IsPedestrianCrossing   bool
	PedestrianCrossingTime float64
	PedCrossPH             int
	TrafficSpeed           float64
	MinimumGreenTime       float64
	VehicleLength          float64
	PriorityNums           [4]int
	MaxQueue               *int
	MaxWait                *float64
	AvgWait                float64
	TotalWait              float64
	CarsPassedThrough      int
	Directions             [4]DirectionStatistics

	// Run diagnostics. Not part of the exported structure
	SimulatedTime    float64
	Crossings        int
	Phases           int
	OpposedLeftTurns int
}

func collectLane(lane *Lane) LaneStatistics {
	stats := LaneStatistics{
		LaneType:          lane.laneType,
		AvgWait:           lane.AvgWait(),
		RemainingVehicles: lane.QueueLen(),
		DirectionFlow:     lane.Flow(),
		TotalFlow:         lane.TotalFlow(),
		CarsPassedThrough: lane.CarsPassed(),
		TotalWait:         lane.TotalWait(),
	}
	if maxQueue, ok := lane.MaxQueue(); ok {
		stats.MaxQueue = &maxQueue
	}
	if maxWait, ok := lane.MaxWait(); ok {
		stats.MaxWait = &maxWait
	}
	return stats
}

func maxIntPtr(a, b *int) *int {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}

func maxFloatPtr(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}

func avgWait(totalWait float64, cars int) float64 {
	if cars == 0 {
		return 0
	}
	return totalWait / float64(cars)
}

func collectDirection(direction *Direction) DirectionStatistics {
	stats := DirectionStatistics{
		Name:              direction.name,
		LightTime:         direction.greenDuration,
		VPHFlowDirections: direction.vph,
		LaneLayout:        direction.Layout(),
		Lanes:             lo.Map(direction.lanes, func(lane *Lane, _ int) LaneStatistics { return collectLane(lane) }),
	}
	for _, lane := range stats.Lanes {
		stats.MaxQueue = maxIntPtr(stats.MaxQueue, lane.MaxQueue)
		stats.MaxWait = maxFloatPtr(stats.MaxWait, lane.MaxWait)
		stats.TotalWait += lane.TotalWait
		stats.CarsPassedThrough += lane.CarsPassedThrough
	}
	stats.AvgWait = avgWait(stats.TotalWait, stats.CarsPassedThrough)
	return stats
}

func collectStatistics(junction *Junction) *Statistics {
	stats := &Statistics{
		TrafficSpeed:     junction.constants.TrafficSpeed,
		MinimumGreenTime: junction.constants.MinimumGreenTime,
		VehicleLength:    junction.constants.VehicleLength,
		PriorityNums:     junction.priorities,
	}
	if crossing, ok := junction.PedestrianCrossing(); ok {
		stats.IsPedestrianCrossing = true
		stats.PedestrianCrossingTime = crossing.Duration
		stats.PedCrossPH = crossing.RequestsPerHour
	}
	for i, direction := range junction.directions {
		dirStats := collectDirection(direction)
		stats.Directions[i] = dirStats
		stats.MaxQueue = maxIntPtr(stats.MaxQueue, dirStats.MaxQueue)
		stats.MaxWait = maxFloatPtr(stats.MaxWait, dirStats.MaxWait)
		stats.TotalWait += dirStats.TotalWait
		stats.CarsPassedThrough += dirStats.CarsPassedThrough
	}
	stats.AvgWait = avgWait(stats.TotalWait, stats.CarsPassedThrough)
	return stats
}

// Direction returns statistics of given arm
func (stats *Statistics) Direction(name DirectionName) *DirectionStatistics {
	return &stats.Directions[name]
}

func intOrNil(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatOrNil(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Map returns lane statistics as the exported key-value structure
func (stats LaneStatistics) Map() map[string]interface{} {
	return map[string]interface{}{
		"laneType":          stats.LaneType.String(),
		"maxQueue":          intOrNil(stats.MaxQueue),
		"maxWait":           floatOrNil(stats.MaxWait),
		"avgWait":           stats.AvgWait,
		"remainingVehicles": stats.RemainingVehicles,
		"directionFlow":     stats.DirectionFlow[:],
		"totalFlow":         stats.TotalFlow,
		"carsPassedThrough": stats.CarsPassedThrough,
		"totalWait":         stats.TotalWait,
	}
}

// Map returns direction statistics with lanes keyed by their layout index
func (stats DirectionStatistics) Map() map[string]interface{} {
	result := map[string]interface{}{
		"lightTime":         stats.LightTime,
		"VPHFlowDirections": stats.VPHFlowDirections[:],
		"laneLayout":        laneLayoutStrings(stats.LaneLayout),
		"maxWait":           floatOrNil(stats.MaxWait),
		"maxQueue":          intOrNil(stats.MaxQueue),
		"avgWait":           stats.AvgWait,
		"totalWait":         stats.TotalWait,
		"carsPassedThrough": stats.CarsPassedThrough,
	}
	for i, lane := range stats.Lanes {
		result[strconv.Itoa(i)] = lane.Map()
	}
	return result
}

// Map returns the exported nested structure consumed by reporting and persistence
func (stats *Statistics) Map() map[string]interface{} {
	result := map[string]interface{}{
		"isPedestrianCrossing": stats.IsPedestrianCrossing,
		"trafficSpeed":         stats.TrafficSpeed,
		"minimumGreenTime":     stats.MinimumGreenTime,
		"vehicleLength":        stats.VehicleLength,
		"priorityNums":         stats.PriorityNums[:],
		"maxQueue":             intOrNil(stats.MaxQueue),
		"maxWait":              floatOrNil(stats.MaxWait),
		"avgWait":              stats.AvgWait,
		"totalWait":            stats.TotalWait,
		"carsPassedThrough":    stats.CarsPassedThrough,
	}
	if stats.IsPedestrianCrossing {
		result["pedestrianCrossingTime"] = stats.PedestrianCrossingTime
		result["pedCrossPH"] = stats.PedCrossPH
	}
	for _, name := range DirectionsOrder {
		result[name.String()] = stats.Directions[name].Map()
	}
	return result
}

func (stats *Statistics) MarshalJSON() ([]byte, error) {
	return json.Marshal(stats.Map())
}

func (stats *Statistics) MarshalYAML() (interface{}, error) {
	return stats.Map(), nil
}

func (stats *Statistics) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(stats.Map())
}
