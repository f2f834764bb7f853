package junctionsim

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func TestDistributeFlowSimple(t *testing.T) {
	result, err := DistributeFlow([]LaneType{LANE_L, LANE_S, LANE_R}, [4]int{100, 200, 50, 0})
	if err != nil {
		t.Error(err)
		return
	}
	if result.Case != CASE_S {
		t.Errorf("Case must be %s, but got %s", CASE_S, result.Case)
	}
	correctFlows := [][3]int{{100, 0, 0}, {0, 200, 0}, {0, 0, 50}}
	if !reflect.DeepEqual(result.Flows, correctFlows) {
		t.Errorf("Flows must be %v, but got %v", correctFlows, result.Flows)
	}
}

func TestDistributeFlowDuplicatePureLanes(t *testing.T) {
	result, err := DistributeFlow([]LaneType{LANE_L, LANE_L}, [4]int{200, 0, 0, 0})
	if err != nil {
		t.Error(err)
		return
	}
	if result.Case != CASE_PLAIN {
		t.Errorf("Case must be %s, but got %s", CASE_PLAIN, result.Case)
	}
	correctFlows := [][3]int{{100, 0, 0}, {100, 0, 0}}
	if !reflect.DeepEqual(result.Flows, correctFlows) {
		t.Errorf("Flows must be %v, but got %v", correctFlows, result.Flows)
	}
}

func TestDistributeFlowBalancing(t *testing.T) {
	// LS lane starts with all left and half of straight traffic, balancing moves straight traffic to S lane
	result, err := DistributeFlow([]LaneType{LANE_S, LANE_LS}, [4]int{100, 100, 0, 0})
	if err != nil {
		t.Error(err)
		return
	}
	correctFlows := [][3]int{{100, 0, 0}, {0, 100, 0}}
	if !reflect.DeepEqual(result.Flows, correctFlows) {
		t.Errorf("Flows must be %v, but got %v", correctFlows, result.Flows)
	}
	if result.Passes != 51 {
		t.Errorf("Balancing must take %d passes, but got %d", 51, result.Passes)
	}
}

func TestDistributeFlowRemainder(t *testing.T) {
	result, err := DistributeFlow([]LaneType{LANE_S, LANE_S, LANE_S}, [4]int{0, 100, 0, 0})
	if err != nil {
		t.Error(err)
		return
	}
	correctFlows := [][3]int{{0, 34, 0}, {0, 33, 0}, {0, 33, 0}}
	if !reflect.DeepEqual(result.Flows, correctFlows) {
		t.Errorf("Flows must be %v, but got %v", correctFlows, result.Flows)
	}
}

func TestDistributeFlowCycleBus(t *testing.T) {
	result, err := DistributeFlow([]LaneType{LANE_S, LANE_CB, LANE_L}, [4]int{10, 20, 0, 30})
	if err != nil {
		t.Error(err)
		return
	}
	// canonical order is L, CB, S
	correctFlows := [][3]int{{10, 0, 0}, {0, 30, 0}, {0, 20, 0}}
	if !reflect.DeepEqual(result.Flows, correctFlows) {
		t.Errorf("Flows must be %v, but got %v", correctFlows, result.Flows)
	}
}

func TestDistributeFlowCombined(t *testing.T) {
	testCases := []struct {
		layout []LaneType
		vph    [4]int
		cases  DistributionCase
	}{
		{[]LaneType{LANE_L, LANE_LR, LANE_R}, [4]int{100, 0, 60, 0}, CASE_LR},
		{[]LaneType{LANE_LR}, [4]int{100, 0, 60, 0}, CASE_LR},
		{[]LaneType{LANE_L, LANE_L, LANE_LR}, [4]int{301, 0, 17, 0}, CASE_LR},
		{[]LaneType{LANE_L, LANE_LRS, LANE_R}, [4]int{120, 10, 300, 0}, CASE_LRS},
		{[]LaneType{LANE_LRS}, [4]int{120, 10, 300, 0}, CASE_LRS},
		{[]LaneType{LANE_CB, LANE_LRS, LANE_R, LANE_R}, [4]int{5, 400, 250, 40}, CASE_LRS},
		{[]LaneType{LANE_L, LANE_LR, LANE_R}, [4]int{0, 0, 0, 0}, CASE_LR},
	}
	for i, tc := range testCases {
		ordered := CanonicalOrder(tc.layout)
		lanes := make([]*Lane, len(ordered))
		for j, laneType := range ordered {
			lanes[j] = newLane(laneType)
		}
		distCase, _, err := distributeFlow(lanes, tc.vph, 0)
		if err != nil {
			t.Errorf("Case %d: %v", i, err)
			continue
		}
		if distCase != tc.cases {
			t.Errorf("Case %d: distribution case must be %s, but got %s", i, tc.cases, distCase)
		}
		checkDistribution(t, lanes, tc.vph)
		var combined *Lane
		for _, lane := range lanes {
			if lane.laneType == LANE_LR || lane.laneType == LANE_LRS {
				combined = lane
			}
		}
		for _, lane := range lanes {
			if lane.laneType.IsPure() && lane.TotalFlow() > combined.TotalFlow() {
				t.Errorf("Case %d: %s lane total %d must not exceed %s lane total %d", i, lane.laneType, lane.TotalFlow(), combined.laneType, combined.TotalFlow())
			}
		}
		if combined.laneType == LANE_LRS && combined.MovementFlow(MOVEMENT_STRAIGHT) != tc.vph[1] {
			t.Errorf("Case %d: LRS lane must carry all straight traffic %d, but got %d", i, tc.vph[1], combined.MovementFlow(MOVEMENT_STRAIGHT))
		}
	}
}

// checkDistribution verifies flow conservation and lane capabilities
func checkDistribution(t *testing.T, lanes []*Lane, vph [4]int) {
	t.Helper()
	sums := [4]int{}
	for _, lane := range lanes {
		if lane.laneType == LANE_CB {
			sums[3] += lane.MovementFlow(MOVEMENT_CYCLE_BUS)
			continue
		}
		for _, movement := range generalMovements {
			flow := lane.MovementFlow(movement)
			if flow < 0 {
				t.Errorf("Lane %s has negative %s flow %d", lane.laneType, movement, flow)
			}
			if flow > 0 && !lane.laneType.CanCarry(movement) {
				t.Errorf("Lane %s can't carry %s flow %d", lane.laneType, movement, flow)
			}
			sums[movement.flowIndex()] += flow
		}
	}
	if sums != vph {
		t.Errorf("Distributed flows must sum to %v, but got %v", vph, sums)
	}
	for _, a := range lanes {
		for _, b := range lanes {
			if a.laneType != b.laneType || !a.laneType.IsPure() {
				continue
			}
			if diff := a.TotalFlow() - b.TotalFlow(); diff > 1 || diff < -1 {
				t.Errorf("Pure %s lanes must differ by at most 1, but got %d and %d", a.laneType, a.TotalFlow(), b.TotalFlow())
			}
		}
	}
}

// layoutsUpTo returns every multiset of given lane types with 1..size lanes
func layoutsUpTo(types []LaneType, size int) [][]LaneType {
	result := [][]LaneType{}
	var walk func(start int, current []LaneType)
	walk = func(start int, current []LaneType) {
		if len(current) > 0 {
			layout := make([]LaneType, len(current))
			copy(layout, current)
			result = append(result, layout)
		}
		if len(current) == size {
			return
		}
		for i := start; i < len(types); i++ {
			walk(i, append(current, types[i]))
		}
	}
	walk(0, []LaneType{})
	return result
}

func TestDistributeFlowInvariants(t *testing.T) {
	layouts := layoutsUpTo([]LaneType{LANE_L, LANE_S, LANE_R, LANE_LS, LANE_RS}, 4)
	flowSets := [][4]int{
		{37, 101, 23, 0},
		{400, 900, 150, 0},
		{1, 0, 1, 0},
		{0, 7, 0, 0},
		{0, 0, 0, 0},
	}
	for _, layout := range layouts {
		for _, withCycleBus := range []bool{false, true} {
			for _, flows := range flowSets {
				full := layout
				vph := flows
				if withCycleBus {
					full = append(append([]LaneType{}, layout...), LANE_CB)
					vph[3] = 11
				}
				for i, movement := range generalMovements {
					carried := false
					for _, laneType := range full {
						carried = carried || laneType.CanCarry(movement)
					}
					if !carried {
						vph[i] = 0
					}
				}
				ordered := CanonicalOrder(full)
				lanes := make([]*Lane, len(ordered))
				for j, laneType := range ordered {
					lanes[j] = newLane(laneType)
				}
				_, _, err := distributeFlow(lanes, vph, 0)
				if err != nil {
					t.Errorf("Layout %v with flows %v: %v", laneLayoutStrings(ordered), vph, err)
					continue
				}
				checkDistribution(t, lanes, vph)
				checkFixedPoint(t, lanes, balanceStrategies[classifyLanes(ordered)])
			}
		}
	}
}

// checkFixedPoint verifies no balancing rule could fire on final flows
func checkFixedPoint(t *testing.T, lanes []*Lane, strategy []balanceRule) {
	t.Helper()
	for _, rule := range strategy {
		for _, src := range lanes {
			if src.laneType != rule.from || src.MovementFlow(rule.movement) == 0 {
				continue
			}
			for _, dst := range lanes {
				if dst.laneType != rule.to {
					continue
				}
				if src.TotalFlow() > dst.TotalFlow()+1 {
					t.Errorf("Rule %s can still fire: %s total %d, %s total %d", rule.name, src.laneType, src.TotalFlow(), dst.laneType, dst.TotalFlow())
				}
			}
		}
	}
}

func TestBalanceStrategiesCoverage(t *testing.T) {
	if len(balanceStrategies) != 32 {
		t.Errorf("Strategies must cover %d lane classes, but got %d", 32, len(balanceStrategies))
	}
	present := func(class laneClass, laneType LaneType) bool {
		switch laneType {
		case LANE_L:
			return class.hasL
		case LANE_R:
			return class.hasR
		case LANE_S:
			return class.hasS
		case LANE_LS:
			return class.hasLS
		case LANE_RS:
			return class.hasRS
		default:
			return false
		}
	}
	for class, strategy := range balanceStrategies {
		kind := RULE_DUAL_TO_PURE
		for _, rule := range strategy {
			if !present(class, rule.from) || !present(class, rule.to) {
				t.Errorf("Rule %s references lane missing in class %+v", rule.name, class)
			}
			if !rule.from.CanCarry(rule.movement) || !rule.to.CanCarry(rule.movement) {
				t.Errorf("Rule %s moves %s between lanes which can't carry it", rule.name, rule.movement)
			}
			if rule.kind < kind {
				t.Errorf("Rule %s is out of precedence order in class %+v", rule.name, class)
			}
			kind = rule.kind
		}
	}
}

func TestDistributeFlowNotConverged(t *testing.T) {
	lanes := []*Lane{newLane(LANE_LS), newLane(LANE_S)}
	_, passes, err := distributeFlow(lanes, [4]int{100, 100, 0, 0}, 1)
	if !errors.Is(err, ErrNotConverged) {
		t.Errorf("Balancing with small cap must give %v, but got %v", ErrNotConverged, err)
	}
	if passes != 1 {
		t.Errorf("Passes must be %d, but got %d", 1, passes)
	}
}

func TestFlowUnderflow(t *testing.T) {
	lane := newLane(LANE_L)
	err := lane.subFlow(MOVEMENT_LEFT)
	if !errors.Is(err, ErrFlowUnderflow) {
		t.Errorf("Subtraction from empty movement must give %v, but got %v", ErrFlowUnderflow, err)
	}
	lane.addFlow(MOVEMENT_LEFT, 1)
	target := newLane(LANE_LS)
	if err := moveFlow(lane, target, MOVEMENT_LEFT); err != nil {
		t.Error(err)
	}
	if lane.TotalFlow() != 0 || target.TotalFlow() != 1 {
		t.Errorf("Flow must move to target lane, but got source %d and target %d", lane.TotalFlow(), target.TotalFlow())
	}
}

func TestValidateLayout(t *testing.T) {
	testCases := []struct {
		layout []LaneType
		vph    [4]int
		err    error
	}{
		{[]LaneType{LANE_L, LANE_S, LANE_R}, [4]int{1, 1, 1, 0}, nil},
		{[]LaneType{}, [4]int{0, 0, 0, 0}, nil},
		{[]LaneType{LANE_L, LANE_S, LANE_R}, [4]int{1, -1, 1, 0}, ErrInvalidFlow},
		{[]LaneType{LANE_L, LANE_S, LANE_S, LANE_S, LANE_S, LANE_R}, [4]int{1, 1, 1, 0}, ErrInvalidLaneLayout},
		{[]LaneType{LANE_CB, LANE_CB, LANE_S}, [4]int{0, 1, 0, 1}, ErrInvalidLaneLayout},
		{[]LaneType{LANE_LR, LANE_LRS}, [4]int{1, 1, 1, 0}, ErrInvalidLaneLayout},
		{[]LaneType{LANE_LRS, LANE_S}, [4]int{1, 1, 1, 0}, ErrInvalidLaneLayout},
		{[]LaneType{LANE_LR, LANE_RS}, [4]int{1, 1, 1, 0}, ErrInvalidLaneLayout},
		{[]LaneType{LANE_L}, [4]int{1, 1, 0, 0}, ErrUnservedMovement},
		{[]LaneType{LANE_S}, [4]int{0, 1, 0, 5}, ErrUnservedMovement},
		{[]LaneType{LANE_UNDEFINED}, [4]int{0, 0, 0, 0}, ErrUnknownLaneType},
	}
	for i, tc := range testCases {
		err := validateLayout(CanonicalOrder(tc.layout), tc.vph)
		if tc.err == nil && err != nil {
			t.Errorf("Case %d: layout must be valid, but got %v", i, err)
			continue
		}
		if tc.err != nil && !errors.Is(err, tc.err) {
			t.Errorf("Case %d: error must be %v, but got %v", i, tc.err, err)
		}
	}
}

func TestClassifyCase(t *testing.T) {
	testCases := []struct {
		layout   []LaneType
		expected DistributionCase
	}{
		{[]LaneType{LANE_L, LANE_LR, LANE_R}, CASE_LR},
		{[]LaneType{LANE_LRS, LANE_R}, CASE_LRS},
		{[]LaneType{LANE_LS, LANE_S}, CASE_S},
		{[]LaneType{LANE_LS, LANE_RS}, CASE_PLAIN},
		{[]LaneType{LANE_CB}, CASE_PLAIN},
	}
	for _, tc := range testCases {
		if distCase := classifyCase(tc.layout); distCase != tc.expected {
			t.Errorf("Layout %v must give case %s, but got %s", laneLayoutStrings(tc.layout), tc.expected, distCase)
		}
	}
}
