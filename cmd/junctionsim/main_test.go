package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/LdDl/junctionsim"
)

func TestWriteStatistics(t *testing.T) {
	cfg := &junctionsim.RunConfiguration{
		North: junctionsim.DirectionConfiguration{Flows: []int{100, 200, 50}, Lanes: []junctionsim.LaneType{junctionsim.LANE_L, junctionsim.LANE_S, junctionsim.LANE_R}},
		East:  junctionsim.DirectionConfiguration{Flows: []int{0, 0, 0}, Lanes: []junctionsim.LaneType{junctionsim.LANE_LRS}},
		South: junctionsim.DirectionConfiguration{Flows: []int{0, 0, 0}, Lanes: []junctionsim.LaneType{junctionsim.LANE_LRS}},
		West:  junctionsim.DirectionConfiguration{Flows: []int{0, 0, 0}, Lanes: []junctionsim.LaneType{junctionsim.LANE_LRS}},
	}
	junction, err := junctionsim.NewJunction(cfg, junctionsim.DefaultPhysicalConstants())
	if err != nil {
		t.Error(err)
		return
	}
	stats, err := junction.Simulate()
	if err != nil {
		t.Error(err)
		return
	}

	fileName := filepath.Join(t.TempDir(), "stats.json")
	err = writeStatistics(fileName, stats, junctionsim.FORMAT_JSON)
	if err != nil {
		t.Error(err)
		return
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		t.Error(err)
		return
	}
	decoded := map[string]interface{}{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Errorf("Output must be valid JSON: %v", err)
		return
	}
	if cars, ok := decoded["carsPassedThrough"].(float64); !ok || int(cars) != stats.CarsPassedThrough {
		t.Errorf("Cars passed through must be %d, but got %v", stats.CarsPassedThrough, decoded["carsPassedThrough"])
	}

	err = writeStatistics(filepath.Join(t.TempDir(), "missing", "stats.json"), stats, junctionsim.FORMAT_JSON)
	if err == nil {
		t.Errorf("Writing into missing directory must fail")
	}
}
