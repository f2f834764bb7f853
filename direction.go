package junctionsim

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	// MaxLanesPerDirection is the widest supported approach
	MaxLanesPerDirection = 5
)

// Direction is one arm of the junction
type Direction struct {
	name DirectionName
	// [left, straight, right, cycle/bus]
	vph    [4]int
	layout []LaneType
	// lanes in canonical layout order
	lanes       []*Lane
	lanesByType map[LaneType][]int

	distributionCase DistributionCase
	balancePasses    int
	greenDuration    float64
}

func newDirection(name DirectionName, vph [4]int, layout []LaneType, maxPasses int) (*Direction, error) {
	ordered := CanonicalOrder(layout)
	if err := validateLayout(ordered, vph); err != nil {
		return nil, errors.Wrapf(err, "Can't prepare %s direction", name)
	}
	direction := &Direction{
		name:        name,
		vph:         vph,
		layout:      ordered,
		lanes:       make([]*Lane, len(ordered)),
		lanesByType: make(map[LaneType][]int),
	}
	for i, laneType := range ordered {
		direction.lanes[i] = newLane(laneType)
		direction.lanesByType[laneType] = append(direction.lanesByType[laneType], i)
	}
	distCase, passes, err := distributeFlow(direction.lanes, vph, maxPasses)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't distribute %s direction flow", name)
	}
	direction.distributionCase = distCase
	direction.balancePasses = passes
	return direction, nil
}

// validateLayout checks canonically ordered layout against movement flows
func validateLayout(layout []LaneType, vph [4]int) error {
	for i, flow := range vph {
		if flow < 0 {
			return errors.Wrapf(ErrInvalidFlow, "negative flow %d at position %d", flow, i)
		}
	}
	if len(layout) > MaxLanesPerDirection {
		return errors.Wrapf(ErrInvalidLaneLayout, "%d lanes exceed limit of %d", len(layout), MaxLanesPerDirection)
	}
	for _, laneType := range layout {
		if laneType == LANE_UNDEFINED || laneType > LANE_R {
			return errors.Wrapf(ErrUnknownLaneType, "value %d", uint16(laneType))
		}
	}
	for _, laneType := range []LaneType{LANE_CB, LANE_LR, LANE_LRS} {
		if count := lo.Count(layout, laneType); count > 1 {
			return errors.Wrapf(ErrInvalidLaneLayout, "%d lanes of type %s, at most one allowed", count, laneType)
		}
	}
	combined := lo.Filter(layout, func(laneType LaneType, _ int) bool {
		return laneType == LANE_LR || laneType == LANE_LRS
	})
	if len(combined) > 1 {
		return errors.Wrap(ErrInvalidLaneLayout, "LR and LRS lanes can't share a direction")
	}
	if len(combined) == 1 {
		for _, laneType := range []LaneType{LANE_S, LANE_LS, LANE_RS} {
			if lo.Contains(layout, laneType) {
				return errors.Wrapf(ErrInvalidLaneLayout, "%s lane can't share a direction with %s lane", combined[0], laneType)
			}
		}
	}
	movements := append(generalMovements[:], MOVEMENT_CYCLE_BUS)
	for i, movement := range movements {
		if vph[i] == 0 {
			continue
		}
		capable := lo.ContainsBy(layout, func(laneType LaneType) bool {
			return laneType.CanCarry(movement)
		})
		if !capable {
			return errors.Wrapf(ErrUnservedMovement, "%s flow %d", movement, vph[i])
		}
	}
	return nil
}

func (direction *Direction) Name() DirectionName {
	return direction.name
}

// VPH returns movement flows [left, straight, right, cycle/bus]
func (direction *Direction) VPH() [4]int {
	return direction.vph
}

// Layout returns copy of canonically ordered lane layout
func (direction *Direction) Layout() []LaneType {
	layout := make([]LaneType, len(direction.layout))
	copy(layout, direction.layout)
	return layout
}

func (direction *Direction) Lanes() []*Lane {
	return direction.lanes
}

func (direction *Direction) DistributionCase() DistributionCase {
	return direction.distributionCase
}

func (direction *Direction) GreenDuration() float64 {
	return direction.greenDuration
}

// LanesOfType returns lanes with given tag in layout order
func (direction *Direction) LanesOfType(laneType LaneType) []*Lane {
	return lo.Map(direction.lanesByType[laneType], func(idx int, _ int) *Lane {
		return direction.lanes[idx]
	})
}

// MaxLaneFlow returns the largest lane total flow. Zero for a direction without lanes
func (direction *Direction) MaxLaneFlow() int {
	if len(direction.lanes) == 0 {
		return 0
	}
	return lo.Max(lo.Map(direction.lanes, func(lane *Lane, _ int) int {
		return lane.TotalFlow()
	}))
}

func (direction *Direction) setGreenDuration(greenDuration float64) {
	direction.greenDuration = greenDuration
	for _, lane := range direction.lanes {
		lane.prepare(greenDuration)
	}
}

func (direction *Direction) cycleBusLane() *Lane {
	if idx, ok := direction.lanesByType[LANE_CB]; ok {
		return direction.lanes[idx[0]]
	}
	return nil
}

func (direction *Direction) generateArrivals(until float64, skipCycleBus bool) {
	for _, lane := range direction.lanes {
		if skipCycleBus && lane.laneType.IsCycleBus() {
			continue
		}
		lane.generateArrivals(until)
	}
}

func (direction *Direction) hasQueuedTraffic() bool {
	return lo.SomeBy(direction.lanes, func(lane *Lane) bool {
		return lane.QueueLen() > 0
	})
}

// rightTurnCapable reports whether lane at given layout position can carry right turns
func (direction *Direction) rightTurnCapable(pos int) bool {
	if pos < 0 || pos >= len(direction.layout) {
		return false
	}
	return direction.layout[pos].CanTurnRight()
}
