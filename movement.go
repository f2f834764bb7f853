package junctionsim

import (
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

type MovementType uint16

const (
	MOVEMENT_LEFT = MovementType(iota + 1)
	MOVEMENT_STRAIGHT
	MOVEMENT_RIGHT
	MOVEMENT_CYCLE_BUS

	MOVEMENT_UNDEFINED = MovementType(0)
)

func (iotaIdx MovementType) String() string {
	return [...]string{"undefined", "left", "straight", "right", "cycle_bus"}[iotaIdx]
}

// generalMovements are the movements shared between lanes by the distribution engine
var generalMovements = [...]MovementType{MOVEMENT_LEFT, MOVEMENT_STRAIGHT, MOVEMENT_RIGHT}

// flowIndex returns slot of the movement in lane's flow triple
func (iotaIdx MovementType) flowIndex() int {
	switch iotaIdx {
	case MOVEMENT_LEFT:
		return 0
	case MOVEMENT_STRAIGHT, MOVEMENT_CYCLE_BUS:
		// Cycle/bus traffic occupies the straight slot of the CB lane
		return 1
	case MOVEMENT_RIGHT:
		return 2
	default:
		return -1
	}
}

// DirectionName is an arm of the junction. Values are in service order
type DirectionName uint16

const (
	DIRECTION_NORTH = DirectionName(iota)
	DIRECTION_EAST
	DIRECTION_SOUTH
	DIRECTION_WEST
)

// DirectionsOrder is the fixed round-robin service order
var DirectionsOrder = [...]DirectionName{DIRECTION_NORTH, DIRECTION_EAST, DIRECTION_SOUTH, DIRECTION_WEST}

func (iotaIdx DirectionName) String() string {
	return [...]string{"north", "east", "south", "west"}[iotaIdx]
}

var (
	directionsTxt = map[string]DirectionName{
		"north": DIRECTION_NORTH,
		"east":  DIRECTION_EAST,
		"south": DIRECTION_SOUTH,
		"west":  DIRECTION_WEST,
	}

	oppositeDirections = map[DirectionName]DirectionName{
		DIRECTION_NORTH: DIRECTION_SOUTH,
		DIRECTION_SOUTH: DIRECTION_NORTH,
		DIRECTION_EAST:  DIRECTION_WEST,
		DIRECTION_WEST:  DIRECTION_EAST,
	}

	// Traffic heading southbound enters the junction from the northern arm and so on
	approachArms = map[string]DirectionName{
		"SB": DIRECTION_NORTH,
		"WB": DIRECTION_EAST,
		"NB": DIRECTION_SOUTH,
		"EB": DIRECTION_WEST,
	}
)

// Opposite returns the arm facing given one
func (iotaIdx DirectionName) Opposite() DirectionName {
	return oppositeDirections[iotaIdx]
}

// ParseDirectionName returns arm for given name. Names are case-insensitive
func ParseDirectionName(str string) (DirectionName, error) {
	if found, ok := directionsTxt[strings.ToLower(strings.TrimSpace(str))]; ok {
		return found, nil
	}
	return DIRECTION_NORTH, errors.Wrapf(ErrUnknownDirection, "name '%s'", str)
}

func (iotaIdx DirectionName) MarshalText() ([]byte, error) {
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *DirectionName) UnmarshalText(text []byte) error {
	name, err := ParseDirectionName(string(text))
	if err != nil {
		return err
	}
	*iotaIdx = name
	return nil
}

// headingBound returns heading code (SB/EB/NB/WB) of the line from its first point to its last one
//
// Note: panics if number of points in line is less than 2
func headingBound(line orb.LineString) string {
	start, end := line[0], line[len(line)-1]
	angle := math.Atan2(end.Y()-start.Y(), end.X()-start.X())
	if -0.75*math.Pi <= angle && angle < -0.25*math.Pi {
		return "SB"
	} else if -0.25*math.Pi <= angle && angle < 0.25*math.Pi {
		return "EB"
	} else if 0.25*math.Pi <= angle && angle < 0.75*math.Pi {
		return "NB"
	}
	return "WB"
}

// approachArm returns the arm which traffic moving along the line (in Euclidean space) comes from
func approachArm(line orb.LineString) DirectionName {
	return approachArms[headingBound(line)]
}
