package junctionsim

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// DistributionCase is the strategy governing flow distribution of a direction
type DistributionCase uint16

const (
	CASE_PLAIN = DistributionCase(iota + 1)
	CASE_S
	CASE_LRS
	CASE_LR
)

func (iotaIdx DistributionCase) String() string {
	return [...]string{"undefined", "plain", "S", "LRS", "LR"}[iotaIdx]
}

// classifyCase selects governing case by layout content: LR, then LRS, then S, otherwise plain
func classifyCase(layout []LaneType) DistributionCase {
	switch {
	case lo.Contains(layout, LANE_LR):
		return CASE_LR
	case lo.Contains(layout, LANE_LRS):
		return CASE_LRS
	case lo.Contains(layout, LANE_S):
		return CASE_S
	default:
		return CASE_PLAIN
	}
}

type ruleKind uint16

const (
	// dual lane gives to the lowest-loaded pure lane
	RULE_DUAL_TO_PURE = ruleKind(iota + 1)
	// pure lane gives to the dual lane
	RULE_PURE_TO_DUAL
	// dual lane gives shared straight traffic to the other dual lane
	RULE_DUAL_TO_DUAL
)

// balanceRule moves one vehicle of the movement from the most loaded lane of type from
// to the least loaded lane of type to when they differ by more than one
type balanceRule struct {
	name     string
	kind     ruleKind
	from     LaneType
	to       LaneType
	movement MovementType
}

var (
	ruleLSToL  = balanceRule{"LS->L", RULE_DUAL_TO_PURE, LANE_LS, LANE_L, MOVEMENT_LEFT}
	ruleRSToR  = balanceRule{"RS->R", RULE_DUAL_TO_PURE, LANE_RS, LANE_R, MOVEMENT_RIGHT}
	ruleLSToS  = balanceRule{"LS->S", RULE_DUAL_TO_PURE, LANE_LS, LANE_S, MOVEMENT_STRAIGHT}
	ruleRSToS  = balanceRule{"RS->S", RULE_DUAL_TO_PURE, LANE_RS, LANE_S, MOVEMENT_STRAIGHT}
	ruleLToLS  = balanceRule{"L->LS", RULE_PURE_TO_DUAL, LANE_L, LANE_LS, MOVEMENT_LEFT}
	ruleRToRS  = balanceRule{"R->RS", RULE_PURE_TO_DUAL, LANE_R, LANE_RS, MOVEMENT_RIGHT}
	ruleSToLS  = balanceRule{"S->LS", RULE_PURE_TO_DUAL, LANE_S, LANE_LS, MOVEMENT_STRAIGHT}
	ruleSToRS  = balanceRule{"S->RS", RULE_PURE_TO_DUAL, LANE_S, LANE_RS, MOVEMENT_STRAIGHT}
	ruleLSToRS = balanceRule{"LS->RS", RULE_DUAL_TO_DUAL, LANE_LS, LANE_RS, MOVEMENT_STRAIGHT}
	ruleRSToLS = balanceRule{"RS->LS", RULE_DUAL_TO_DUAL, LANE_RS, LANE_LS, MOVEMENT_STRAIGHT}
)

// laneClass is the presence of lane families in a plain or S layout
type laneClass struct {
	hasL  bool
	hasR  bool
	hasS  bool
	hasLS bool
	hasRS bool
}

func classifyLanes(layout []LaneType) laneClass {
	return laneClass{
		hasL:  lo.Contains(layout, LANE_L),
		hasR:  lo.Contains(layout, LANE_R),
		hasS:  lo.Contains(layout, LANE_S),
		hasLS: lo.Contains(layout, LANE_LS),
		hasRS: lo.Contains(layout, LANE_RS),
	}
}

var (
	// balanceStrategies lists rules of every lane class in precedence order
	balanceStrategies = map[laneClass][]balanceRule{
		{hasL: false, hasR: false, hasS: false, hasLS: false, hasRS: false}: {},
		{hasL: false, hasR: false, hasS: false, hasLS: false, hasRS: true}:  {},
		{hasL: false, hasR: false, hasS: false, hasLS: true, hasRS: false}:  {},
		{hasL: false, hasR: false, hasS: false, hasLS: true, hasRS: true}:   {ruleLSToRS, ruleRSToLS},
		{hasL: false, hasR: false, hasS: true, hasLS: false, hasRS: false}:  {},
		{hasL: false, hasR: false, hasS: true, hasLS: false, hasRS: true}:   {ruleRSToS, ruleSToRS},
		{hasL: false, hasR: false, hasS: true, hasLS: true, hasRS: false}:   {ruleLSToS, ruleSToLS},
		{hasL: false, hasR: false, hasS: true, hasLS: true, hasRS: true}:    {ruleLSToS, ruleRSToS, ruleSToLS, ruleSToRS, ruleLSToRS, ruleRSToLS},
		{hasL: false, hasR: true, hasS: false, hasLS: false, hasRS: false}:  {},
		{hasL: false, hasR: true, hasS: false, hasLS: false, hasRS: true}:   {ruleRSToR, ruleRToRS},
		{hasL: false, hasR: true, hasS: false, hasLS: true, hasRS: false}:   {},
		{hasL: false, hasR: true, hasS: false, hasLS: true, hasRS: true}:    {ruleRSToR, ruleRToRS, ruleLSToRS, ruleRSToLS},
		{hasL: false, hasR: true, hasS: true, hasLS: false, hasRS: false}:   {},
		{hasL: false, hasR: true, hasS: true, hasLS: false, hasRS: true}:    {ruleRSToR, ruleRSToS, ruleRToRS, ruleSToRS},
		{hasL: false, hasR: true, hasS: true, hasLS: true, hasRS: false}:    {ruleLSToS, ruleSToLS},
		{hasL: false, hasR: true, hasS: true, hasLS: true, hasRS: true}:     {ruleRSToR, ruleLSToS, ruleRSToS, ruleRToRS, ruleSToLS, ruleSToRS, ruleLSToRS, ruleRSToLS},
		{hasL: true, hasR: false, hasS: false, hasLS: false, hasRS: false}:  {},
		{hasL: true, hasR: false, hasS: false, hasLS: false, hasRS: true}:   {},
		{hasL: true, hasR: false, hasS: false, hasLS: true, hasRS: false}:   {ruleLSToL, ruleLToLS},
		{hasL: true, hasR: false, hasS: false, hasLS: true, hasRS: true}:    {ruleLSToL, ruleLToLS, ruleLSToRS, ruleRSToLS},
		{hasL: true, hasR: false, hasS: true, hasLS: false, hasRS: false}:   {},
		{hasL: true, hasR: false, hasS: true, hasLS: false, hasRS: true}:    {ruleRSToS, ruleSToRS},
		{hasL: true, hasR: false, hasS: true, hasLS: true, hasRS: false}:    {ruleLSToL, ruleLSToS, ruleLToLS, ruleSToLS},
		{hasL: true, hasR: false, hasS: true, hasLS: true, hasRS: true}:     {ruleLSToL, ruleLSToS, ruleRSToS, ruleLToLS, ruleSToLS, ruleSToRS, ruleLSToRS, ruleRSToLS},
		{hasL: true, hasR: true, hasS: false, hasLS: false, hasRS: false}:   {},
		{hasL: true, hasR: true, hasS: false, hasLS: false, hasRS: true}:    {ruleRSToR, ruleRToRS},
		{hasL: true, hasR: true, hasS: false, hasLS: true, hasRS: false}:    {ruleLSToL, ruleLToLS},
		{hasL: true, hasR: true, hasS: false, hasLS: true, hasRS: true}:     {ruleLSToL, ruleRSToR, ruleLToLS, ruleRToRS, ruleLSToRS, ruleRSToLS},
		{hasL: true, hasR: true, hasS: true, hasLS: false, hasRS: false}:    {},
		{hasL: true, hasR: true, hasS: true, hasLS: false, hasRS: true}:     {ruleRSToR, ruleRSToS, ruleRToRS, ruleSToRS},
		{hasL: true, hasR: true, hasS: true, hasLS: true, hasRS: false}:     {ruleLSToL, ruleLSToS, ruleLToLS, ruleSToLS},
		{hasL: true, hasR: true, hasS: true, hasLS: true, hasRS: true}:      {ruleLSToL, ruleRSToR, ruleLSToS, ruleRSToS, ruleLToLS, ruleRToRS, ruleSToLS, ruleSToRS, ruleLSToRS, ruleRSToLS},
	}
)

// DistributionResult holds per-lane flows of a direction
type DistributionResult struct {
	Case DistributionCase
	// Lane flows [left, straight, right] in canonical layout order
	Flows [][3]int
	// Passes is the number of balancing passes (or moves into the combined lane for LR/LRS)
	Passes int
}

// DistributeFlow assigns movement flows [left, straight, right, cycle/bus] to lanes of given layout.
// Layout is canonicalized first
func DistributeFlow(layout []LaneType, vph [4]int) (*DistributionResult, error) {
	ordered := CanonicalOrder(layout)
	if err := validateLayout(ordered, vph); err != nil {
		return nil, err
	}
	lanes := make([]*Lane, len(ordered))
	for i, laneType := range ordered {
		lanes[i] = newLane(laneType)
	}
	distCase, passes, err := distributeFlow(lanes, vph, 0)
	if err != nil {
		return nil, err
	}
	return &DistributionResult{
		Case: distCase,
		Flows: lo.Map(lanes, func(lane *Lane, _ int) [3]int {
			return lane.Flow()
		}),
		Passes: passes,
	}, nil
}

// maxBalancePasses returns the passes bound for given flows.
// Every transfer lowers the sum of squared lane totals by at least two, which bounds the number of passes
func maxBalancePasses(vph [4]int) int {
	total := vph[0] + vph[1] + vph[2]
	return total*total/2 + 2
}

// distributeFlow fills flows of canonically ordered lanes. Zero maxPasses means the proven bound
func distributeFlow(lanes []*Lane, vph [4]int, maxPasses int) (DistributionCase, int, error) {
	if maxPasses <= 0 {
		maxPasses = maxBalancePasses(vph)
	}
	layout := lo.Map(lanes, func(lane *Lane, _ int) LaneType {
		return lane.laneType
	})
	bal := newBalancer(lanes)
	if cb := bal.groups[LANE_CB]; len(cb) > 0 {
		lanes[cb[0]].addFlow(MOVEMENT_CYCLE_BUS, vph[3])
	}
	distCase := classifyCase(layout)
	switch distCase {
	case CASE_LR, CASE_LRS:
		combined := LANE_LR
		if distCase == CASE_LRS {
			combined = LANE_LRS
		}
		passes, err := bal.distributeCombined(combined, vph, maxPasses)
		if err != nil {
			return distCase, passes, errors.Wrapf(err, "Can't distribute flow for case %s", distCase)
		}
		return distCase, passes, nil
	default:
		strategy, ok := balanceStrategies[classifyLanes(layout)]
		if !ok {
			return distCase, 0, errors.Wrapf(ErrInvalidLaneLayout, "no balancing strategy for layout %v", laneLayoutStrings(layout))
		}
		bal.distributeInitial(vph)
		passes, err := bal.balance(strategy, maxPasses)
		if err != nil {
			return distCase, passes, errors.Wrapf(err, "Can't distribute flow for case %s", distCase)
		}
		return distCase, passes, nil
	}
}

type balancer struct {
	lanes    []*Lane
	groups   map[LaneType][]int
	counters map[LaneType]int
	// alternation between left and right pure lanes in LR/LRS case
	takeRight bool
}

func newBalancer(lanes []*Lane) *balancer {
	bal := &balancer{
		lanes:    lanes,
		groups:   make(map[LaneType][]int),
		counters: make(map[LaneType]int),
	}
	for i, lane := range lanes {
		bal.groups[lane.laneType] = append(bal.groups[lane.laneType], i)
	}
	return bal
}

// split deals amount over lanes: even share, then one more unit per lane from the first one
func (bal *balancer) split(pool []int, movement MovementType, amount int) {
	if len(pool) == 0 || amount == 0 {
		return
	}
	share := amount / len(pool)
	remainder := amount % len(pool)
	for i, idx := range pool {
		extra := 0
		if i < remainder {
			extra = 1
		}
		bal.lanes[idx].addFlow(movement, share+extra)
	}
}

// distributeInitial splits flows of plain and S cases. Pure lanes come first in every pool
func (bal *balancer) distributeInitial(vph [4]int) {
	pool := func(types ...LaneType) []int {
		result := []int{}
		for _, laneType := range types {
			result = append(result, bal.groups[laneType]...)
		}
		return result
	}
	bal.split(pool(LANE_L, LANE_LS), MOVEMENT_LEFT, vph[0])
	bal.split(pool(LANE_S, LANE_LS, LANE_RS), MOVEMENT_STRAIGHT, vph[1])
	bal.split(pool(LANE_R, LANE_RS), MOVEMENT_RIGHT, vph[2])
}

// pick returns position in the group of the lane with extreme total among eligible ones.
// Scan starts from the round-robin counter so ties go to the next lane in turn. Returns -1 if nothing eligible
func (bal *balancer) pick(laneType LaneType, highest bool, eligible func(*Lane) bool) int {
	group := bal.groups[laneType]
	if len(group) == 0 {
		return -1
	}
	start := bal.counters[laneType] % len(group)
	best := -1
	bestTotal := 0
	for k := 0; k < len(group); k++ {
		pos := (start + k) % len(group)
		lane := bal.lanes[group[pos]]
		if !eligible(lane) {
			continue
		}
		total := lane.TotalFlow()
		if best < 0 || (highest && total > bestTotal) || (!highest && total < bestTotal) {
			best = pos
			bestTotal = total
		}
	}
	return best
}

func (bal *balancer) advance(laneType LaneType, pos int) {
	bal.counters[laneType] = (pos + 1) % len(bal.groups[laneType])
}

func anyLane(*Lane) bool {
	return true
}

// apply fires the rule once if its precondition holds
func (bal *balancer) apply(rule balanceRule) (bool, error) {
	srcPos := bal.pick(rule.from, true, func(lane *Lane) bool {
		return lane.MovementFlow(rule.movement) > 0
	})
	if srcPos < 0 {
		return false, nil
	}
	dstPos := bal.pick(rule.to, false, anyLane)
	if dstPos < 0 {
		return false, nil
	}
	src := bal.lanes[bal.groups[rule.from][srcPos]]
	dst := bal.lanes[bal.groups[rule.to][dstPos]]
	if src.TotalFlow() <= dst.TotalFlow()+1 {
		return false, nil
	}
	if err := moveFlow(src, dst, rule.movement); err != nil {
		return false, errors.Wrapf(err, "Can't apply rule %s", rule.name)
	}
	bal.advance(rule.from, srcPos)
	bal.advance(rule.to, dstPos)
	return true, nil
}

// balance repeats full passes over the strategy until one makes no change
func (bal *balancer) balance(strategy []balanceRule, maxPasses int) (int, error) {
	for passes := 1; passes <= maxPasses; passes++ {
		changed := false
		for _, rule := range strategy {
			fired, err := bal.apply(rule)
			if err != nil {
				return passes, err
			}
			changed = changed || fired
		}
		if !changed {
			return passes, nil
		}
	}
	return maxPasses, errors.Wrapf(ErrNotConverged, "%d passes", maxPasses)
}

// distributeCombined handles LR and LRS layouts: pure turning lanes are filled first,
// then the combined lane takes units until it carries at least as much as any pure lane
func (bal *balancer) distributeCombined(combined LaneType, vph [4]int, maxMoves int) (int, error) {
	combinedLane := bal.lanes[bal.groups[combined][0]]
	leftLanes, rightLanes := bal.groups[LANE_L], bal.groups[LANE_R]
	if len(leftLanes) > 0 {
		bal.split(leftLanes, MOVEMENT_LEFT, vph[0])
	} else {
		combinedLane.addFlow(MOVEMENT_LEFT, vph[0])
	}
	if len(rightLanes) > 0 {
		bal.split(rightLanes, MOVEMENT_RIGHT, vph[2])
	} else {
		combinedLane.addFlow(MOVEMENT_RIGHT, vph[2])
	}
	if combined == LANE_LRS {
		combinedLane.addFlow(MOVEMENT_STRAIGHT, vph[1])
	}

	for moves := 0; moves <= maxMoves; moves++ {
		leftPos := bal.pick(LANE_L, true, anyLane)
		rightPos := bal.pick(LANE_R, true, anyLane)
		leftMax, rightMax := -1, -1
		if leftPos >= 0 {
			leftMax = bal.lanes[leftLanes[leftPos]].TotalFlow()
		}
		if rightPos >= 0 {
			rightMax = bal.lanes[rightLanes[rightPos]].TotalFlow()
		}
		takeRight := rightMax > leftMax
		if leftMax == rightMax {
			takeRight = bal.takeRight
		}
		laneType, pos, movement, pureMax := LANE_L, leftPos, MOVEMENT_LEFT, leftMax
		if takeRight {
			laneType, pos, movement, pureMax = LANE_R, rightPos, MOVEMENT_RIGHT, rightMax
		}
		if pureMax <= combinedLane.TotalFlow() {
			return moves, nil
		}
		if err := moveFlow(bal.lanes[bal.groups[laneType][pos]], combinedLane, movement); err != nil {
			return moves, errors.Wrapf(err, "Can't move flow into %s lane", combined)
		}
		bal.advance(laneType, pos)
		if leftMax == rightMax {
			bal.takeRight = !bal.takeRight
		}
	}
	return maxMoves, errors.Wrapf(ErrNotConverged, "%d moves into %s lane", maxMoves, combined)
}
