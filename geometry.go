package junctionsim

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	earthR = 20037508.34

	// Metres
	laneWidth      = 3.5
	armLength      = 80.0
	stopLineOffset = 12.0
)

func epsg4326To3857(lon, lat float64) (float64, float64) {
	x := lon * earthR / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * earthR / 180
	return x, y
}

func epsg3857To4326(x, y float64) (float64, float64) {
	lon := x * 180 / earthR
	lat := math.Atan(math.Exp(y*math.Pi/earthR))*360/math.Pi - 90
	return lon, lat
}

func pointToEuclidean(pt orb.Point) orb.Point {
	euclideanX, euclideanY := epsg4326To3857(pt.Lon(), pt.Lat())
	return orb.Point{euclideanX, euclideanY}
}

func pointToSpherical(pt orb.Point) orb.Point {
	lon, lat := epsg3857To4326(pt.X(), pt.Y())
	return orb.Point{lon, lat}
}

func lineToEuclidean(line orb.LineString) orb.LineString {
	newLine := make(orb.LineString, len(line))
	for i, pt := range line {
		newLine[i] = pointToEuclidean(pt)
	}
	return newLine
}

func lineToSpherical(line orb.LineString) orb.LineString {
	newLine := make(orb.LineString, len(line))
	for i, pt := range line {
		newLine[i] = pointToSpherical(pt)
	}
	return newLine
}

// Check if two segments intersects and returns intersections Point
// p1, p2 - first segment
// p3, p4 - second segment
// Note: Euclidean space
func intersect(p1, p2, p3, p4 orb.Point) (orb.Point, error) {
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	det := a1*b2 - a2*b1
	if det == 0 {
		return orb.Point{}, fmt.Errorf("The lines are parallel")
	}

	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	return orb.Point{x, y}, nil
}

// offsetCurve shifts line by distance to the left of its direction (negative distance shifts to the right)
//
// Note: Euclidean space, line must have at least 2 points
func offsetCurve(line orb.LineString, distance float64) orb.LineString {
	var result orb.LineString
	var segments [][2]orb.Point

	for i := 1; i < len(line); i++ {
		p1 := line[i-1]
		p2 := line[i]

		vec := [2]float64{p2[0] - p1[0], p2[1] - p1[1]}
		vecLen := math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1])
		vec = [2]float64{vec[0] / vecLen, vec[1] / vecLen}

		// Rotate by 90 degrees and scale
		offset := [2]float64{-vec[1] * distance, vec[0] * distance}

		op1 := orb.Point{p1[0] + offset[0], p1[1] + offset[1]}
		op2 := orb.Point{p2[0] + offset[0], p2[1] + offset[1]}
		segments = append(segments, [2]orb.Point{op1, op2})
	}

	result = append(result, segments[0][0])
	for i := 1; i < len(segments); i++ {
		seg1 := segments[i-1]
		seg2 := segments[i]
		intersection, err := intersect(seg1[0], seg1[1], seg2[0], seg2[1])
		if err != nil {
			continue
		}
		result = append(result, intersection)
	}
	result = append(result, segments[len(segments)-1][1])
	return result
}

var (
	// unit vectors from the junction centre towards each arm
	armVectors = map[DirectionName][2]float64{
		DIRECTION_NORTH: {0, 1},
		DIRECTION_EAST:  {1, 0},
		DIRECTION_SOUTH: {0, -1},
		DIRECTION_WEST:  {-1, 0},
	}
)

// armAxis returns approach axis of the arm in EPSG:3857 pointing towards the junction centre
func armAxis(center Location, name DirectionName) orb.LineString {
	c := pointToEuclidean(orb.Point{center.Lon, center.Lat})
	// Mercator stretches distances by 1/cos(lat)
	scale := 1 / math.Cos(center.Lat*math.Pi/180)
	vec := armVectors[name]
	return orb.LineString{
		{c[0] + vec[0]*armLength*scale, c[1] + vec[1]*armLength*scale},
		{c[0] + vec[0]*stopLineOffset*scale, c[1] + vec[1]*stopLineOffset*scale},
	}
}

// laneGeometry returns centre line (WGS84) of lane laneIdx out of lanesNum lanes on the arm.
// Traffic keeps left, so lanes lie left of the axis and the rightmost lane is next to it
func laneGeometry(center Location, name DirectionName, laneIdx, lanesNum int) orb.LineString {
	scale := 1 / math.Cos(center.Lat*math.Pi/180)
	distance := (float64(lanesNum-laneIdx) - 0.5) * laneWidth * scale
	return lineToSpherical(offsetCurve(armAxis(center, name), distance))
}
