package junctionsim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

// ExportToCSV writes '<name>_directions.csv' and '<name>_lanes.csv'. Lane geometry is written only when location is known
func (stats *Statistics) ExportToCSV(fname string, location *Location) error {
	fnameParts := strings.Split(fname, ".csv")
	fnameDirections := fnameParts[0] + "_directions.csv"
	fnameLanes := fnameParts[0] + "_lanes.csv"

	err := stats.exportDirectionsToCSV(fnameDirections)
	if err != nil {
		return errors.Wrap(err, "Can't export directions")
	}

	err = stats.exportLanesToCSV(fnameLanes, location)
	if err != nil {
		return errors.Wrap(err, "Can't export lanes")
	}
	return nil
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%f", *v)
}

func (stats *Statistics) exportDirectionsToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"direction", "priority", "light_time", "left_vph", "straight_vph", "right_vph", "cycle_bus_vph", "lane_layout", "max_queue", "max_wait", "avg_wait", "total_wait", "cars_passed_through"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, name := range DirectionsOrder {
		direction := stats.Directions[name]
		err = writer.Write([]string{
			name.String(),
			fmt.Sprintf("%d", stats.PriorityNums[name]),
			fmt.Sprintf("%f", direction.LightTime),
			fmt.Sprintf("%d", direction.VPHFlowDirections[0]),
			fmt.Sprintf("%d", direction.VPHFlowDirections[1]),
			fmt.Sprintf("%d", direction.VPHFlowDirections[2]),
			fmt.Sprintf("%d", direction.VPHFlowDirections[3]),
			strings.Join(laneLayoutStrings(direction.LaneLayout), ","),
			optionalInt(direction.MaxQueue),
			optionalFloat(direction.MaxWait),
			fmt.Sprintf("%f", direction.AvgWait),
			fmt.Sprintf("%f", direction.TotalWait),
			fmt.Sprintf("%d", direction.CarsPassedThrough),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write direction")
		}
	}
	return nil
}

func (stats *Statistics) exportLanesToCSV(fname string, location *Location) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"direction", "lane_index", "lane_type", "left_flow", "straight_flow", "right_flow", "total_flow", "max_queue", "max_wait", "avg_wait", "total_wait", "cars_passed_through", "remaining_vehicles", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, name := range DirectionsOrder {
		direction := stats.Directions[name]
		for i, lane := range direction.Lanes {
			geom := ""
			if location != nil {
				geom = wkt.MarshalString(laneGeometry(*location, name, i, len(direction.Lanes)))
			}
			err = writer.Write([]string{
				name.String(),
				fmt.Sprintf("%d", i),
				lane.LaneType.String(),
				fmt.Sprintf("%d", lane.DirectionFlow[0]),
				fmt.Sprintf("%d", lane.DirectionFlow[1]),
				fmt.Sprintf("%d", lane.DirectionFlow[2]),
				fmt.Sprintf("%d", lane.TotalFlow),
				optionalInt(lane.MaxQueue),
				optionalFloat(lane.MaxWait),
				fmt.Sprintf("%f", lane.AvgWait),
				fmt.Sprintf("%f", lane.TotalWait),
				fmt.Sprintf("%d", lane.CarsPassedThrough),
				fmt.Sprintf("%d", lane.RemainingVehicles),
				geom,
			})
			if err != nil {
				return errors.Wrap(err, "Can't write lane")
			}
		}
	}
	return nil
}
