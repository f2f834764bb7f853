package junctionsim

import (
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// GeoJSONFeatures returns junction centre and lane centre lines with statistics as properties
func (stats *Statistics) GeoJSONFeatures(location Location) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	centre := geojson.NewPointFeature([]float64{location.Lon, location.Lat})
	centre.SetProperty("kind", "junction")
	centre.SetProperty("cars_passed_through", stats.CarsPassedThrough)
	centre.SetProperty("avg_wait", stats.AvgWait)
	centre.SetProperty("max_wait", floatOrNil(stats.MaxWait))
	centre.SetProperty("max_queue", intOrNil(stats.MaxQueue))
	centre.SetProperty("score", stats.Score())
	fc.AddFeature(centre)

	for _, name := range DirectionsOrder {
		direction := stats.Directions[name]
		for i, lane := range direction.Lanes {
			line := laneGeometry(location, name, i, len(direction.Lanes))
			feature := geojson.NewLineStringFeature(lineCoordinates(line))
			feature.SetProperty("kind", "lane")
			feature.SetProperty("direction", name.String())
			feature.SetProperty("lane_index", i)
			feature.SetProperty("lane_type", lane.LaneType.String())
			feature.SetProperty("light_time", direction.LightTime)
			feature.SetProperty("direction_flow", lane.DirectionFlow[:])
			feature.SetProperty("total_flow", lane.TotalFlow)
			feature.SetProperty("cars_passed_through", lane.CarsPassedThrough)
			feature.SetProperty("remaining_vehicles", lane.RemainingVehicles)
			feature.SetProperty("avg_wait", lane.AvgWait)
			feature.SetProperty("max_wait", floatOrNil(lane.MaxWait))
			feature.SetProperty("max_queue", intOrNil(lane.MaxQueue))
			fc.AddFeature(feature)
		}
	}
	return fc
}

func lineCoordinates(line orb.LineString) [][]float64 {
	pts2d := make([][]float64, len(line))
	for i := range line {
		pts2d[i] = []float64{line[i].Lon(), line[i].Lat()}
	}
	return pts2d
}

// ExportGeoJSON writes lane features to file
func (stats *Statistics) ExportGeoJSON(fname string, location Location) error {
	b, err := stats.GeoJSONFeatures(location).MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't convert lanes to geojson format")
	}
	err = os.WriteFile(fname, b, 0644)
	if err != nil {
		return errors.Wrap(err, "Can't write geojson file")
	}
	return nil
}
