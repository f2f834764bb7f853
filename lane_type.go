package junctionsim

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// LaneType is a lane-type tag. Constants are declared in left-to-right precedence order
type LaneType uint16

const (
	LANE_L = LaneType(iota + 1)
	LANE_CB
	LANE_LS
	LANE_LRS
	LANE_S
	LANE_LR
	LANE_RS
	LANE_R

	LANE_UNDEFINED = LaneType(0)
)

func (iotaIdx LaneType) String() string {
	return [...]string{"undefined", "L", "CB", "LS", "LRS", "S", "LR", "RS", "R"}[iotaIdx]
}

var (
	laneTypesTxt = map[string]LaneType{
		"L":   LANE_L,
		"CB":  LANE_CB,
		"LS":  LANE_LS,
		"LRS": LANE_LRS,
		"S":   LANE_S,
		"LR":  LANE_LR,
		"RS":  LANE_RS,
		"R":   LANE_R,
	}

	// movements each lane type may carry: [left, straight, right]
	laneCapabilities = map[LaneType][3]bool{
		LANE_L:   {true, false, false},
		LANE_CB:  {false, false, false},
		LANE_LS:  {true, true, false},
		LANE_LRS: {true, true, true},
		LANE_S:   {false, true, false},
		LANE_LR:  {true, false, true},
		LANE_RS:  {false, true, true},
		LANE_R:   {false, false, true},
	}
)

// ParseLaneType returns lane type for given tag. Tags are case-insensitive
func ParseLaneType(str string) (LaneType, error) {
	if found, ok := laneTypesTxt[strings.ToUpper(strings.TrimSpace(str))]; ok {
		return found, nil
	}
	return LANE_UNDEFINED, errors.Wrapf(ErrUnknownLaneType, "tag '%s'", str)
}

func (iotaIdx LaneType) MarshalText() ([]byte, error) {
	if iotaIdx == LANE_UNDEFINED || iotaIdx > LANE_R {
		return nil, errors.Wrapf(ErrUnknownLaneType, "value %d", uint16(iotaIdx))
	}
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *LaneType) UnmarshalText(text []byte) error {
	laneType, err := ParseLaneType(string(text))
	if err != nil {
		return err
	}
	*iotaIdx = laneType
	return nil
}

// CanCarry reports whether lane may serve given movement
func (iotaIdx LaneType) CanCarry(movement MovementType) bool {
	switch movement {
	case MOVEMENT_LEFT:
		return laneCapabilities[iotaIdx][0]
	case MOVEMENT_STRAIGHT:
		return laneCapabilities[iotaIdx][1]
	case MOVEMENT_RIGHT:
		return laneCapabilities[iotaIdx][2]
	case MOVEMENT_CYCLE_BUS:
		return iotaIdx.IsCycleBus()
	default:
		return false
	}
}

func (iotaIdx LaneType) CanTurnLeft() bool {
	return iotaIdx.CanCarry(MOVEMENT_LEFT)
}

func (iotaIdx LaneType) CanGoStraight() bool {
	return iotaIdx.CanCarry(MOVEMENT_STRAIGHT)
}

func (iotaIdx LaneType) CanTurnRight() bool {
	return iotaIdx.CanCarry(MOVEMENT_RIGHT)
}

func (iotaIdx LaneType) IsCycleBus() bool {
	return iotaIdx == LANE_CB
}

// IsPure reports whether lane carries exactly one general movement
func (iotaIdx LaneType) IsPure() bool {
	return iotaIdx == LANE_L || iotaIdx == LANE_S || iotaIdx == LANE_R
}

// CanonicalOrder returns new slice of lane types ordered left to right
func CanonicalOrder(layout []LaneType) []LaneType {
	ordered := make([]LaneType, len(layout))
	copy(ordered, layout)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i] < ordered[j]
	})
	return ordered
}

// ParseLaneLayout parses tags and returns canonically ordered layout
func ParseLaneLayout(tags []string) ([]LaneType, error) {
	layout := make([]LaneType, 0, len(tags))
	for _, tag := range tags {
		laneType, err := ParseLaneType(tag)
		if err != nil {
			return nil, errors.Wrap(err, "Can't parse lane layout")
		}
		layout = append(layout, laneType)
	}
	return CanonicalOrder(layout), nil
}

func laneLayoutStrings(layout []LaneType) []string {
	result := make([]string, len(layout))
	for i, laneType := range layout {
		result[i] = laneType.String()
	}
	return result
}
