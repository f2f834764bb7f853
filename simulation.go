package junctionsim

import (
	"math"

	"github.com/sirupsen/logrus"
)

const (
	// idleTick advances the clock when a direction has nothing queued
	idleTick = 1.0
	// opposedLeftBuffer is kept between opposed left turns and right-turning traffic
	opposedLeftBuffer = 5.0
)

// simulation is the state of one run over a junction
type simulation struct {
	junction *Junction
	logger   logrus.FieldLogger

	clock        float64
	transit      float64
	requests     []float64
	lastCrossing float64

	crossings      int
	phases         int
	idleTicks      int
	opposedTurns   int
	cycleBusPhases int
}

// Simulate runs one hour of the junction and aggregates statistics.
// Lane state is reset at start so repeated calls give identical results
func (junction *Junction) Simulate() (*Statistics, error) {
	for i, direction := range junction.directions {
		direction.setGreenDuration(GreenDuration(junction.priorities[i], junction.constants.MinimumGreenTime))
	}
	sim := &simulation{
		junction: junction,
		logger:   junction.logger,
		transit:  junction.constants.TransitTime(),
	}
	if junction.crossing != nil {
		sim.requests = junction.crossing.requests()
	}
	sim.run()
	stats := collectStatistics(junction)
	stats.SimulatedTime = sim.clock
	stats.Crossings = sim.crossings
	stats.Phases = sim.phases
	stats.OpposedLeftTurns = sim.opposedTurns
	sim.logger.WithFields(logrus.Fields{
		"clock":      sim.clock,
		"phases":     sim.phases,
		"idle_ticks": sim.idleTicks,
		"crossings":  sim.crossings,
		"cars":       stats.CarsPassedThrough,
	}).Debug("Simulation finished")
	return stats, nil
}

func (sim *simulation) run() {
	for sim.clock < SimulationHorizon {
		for _, name := range DirectionsOrder {
			sim.checkCrossing()
			if sim.clock >= SimulationHorizon {
				break
			}
			sim.serveDirection(sim.junction.directions[name])
		}
	}
}

// checkCrossing inserts at most one pedestrian crossing when a request is due
func (sim *simulation) checkCrossing() {
	for _, request := range sim.requests {
		if request > sim.lastCrossing && request <= sim.clock {
			sim.clock += sim.junction.crossing.Duration
			sim.lastCrossing = sim.clock
			sim.crossings++
			sim.logger.WithFields(logrus.Fields{
				"request": request,
				"clock":   sim.clock,
			}).Debug("Pedestrian crossing")
			return
		}
	}
}

func (sim *simulation) serveDirection(direction *Direction) {
	direction.generateArrivals(sim.clock, false)
	if !direction.hasQueuedTraffic() {
		sim.clock += idleTick
		sim.idleTicks++
		return
	}
	if cb := direction.cycleBusLane(); cb != nil && cb.QueueLen() > 0 {
		sim.serveLane(direction, cb, -1, sim.clock)
		sim.clock += direction.greenDuration
		sim.cycleBusPhases++
		direction.generateArrivals(sim.clock, true)
	}
	if !sim.hasGeneralTraffic(direction) {
		return
	}
	start := sim.clock
	for pos, lane := range direction.lanes {
		if lane.laneType.IsCycleBus() {
			continue
		}
		sim.serveLane(direction, lane, pos, start)
	}
	sim.clock = start + direction.greenDuration
	sim.phases++
	sim.logger.WithFields(logrus.Fields{
		"direction": direction.name.String(),
		"start":     start,
		"green":     direction.greenDuration,
	}).Debug("Green phase")
}

func (sim *simulation) hasGeneralTraffic(direction *Direction) bool {
	for _, lane := range direction.lanes {
		if !lane.laneType.IsCycleBus() && lane.QueueLen() > 0 {
			return true
		}
	}
	return false
}

// serveLane services lane at layout position pos for one green phase starting at given time
func (sim *simulation) serveLane(direction *Direction, lane *Lane, pos int, start float64) {
	end := start + direction.greenDuration
	if pos >= 0 && pos == len(direction.lanes)-1 {
		opposite := sim.junction.directions[direction.name.Opposite()]
		if len(opposite.layout) > 0 && opposite.layout[0] == LANE_L {
			leftLanes := opposite.LanesOfType(LANE_L)
			// Two adjacent right-capable lanes make opposed left turns unsafe
			if !direction.rightTurnCapable(pos - 1) {
				if lane.MovementFlow(MOVEMENT_RIGHT) > 0 {
					sim.serveWithOpposedLeft(lane, leftLanes, start, end)
					return
				}
				// Nothing turns right here, so opposed left lanes run through the phase
				for _, left := range leftLanes {
					sim.dischargeOpposedLeft(left, start, end)
				}
			}
		}
	}
	t := start
	for t < end {
		if lane.QueueLen() > 0 {
			t = sim.dischargeOne(lane, t)
			continue
		}
		if !lane.arrivalsPending() {
			break
		}
		t = lane.nextArrival()
		if t < end {
			lane.passFreeFlow()
		}
	}
}

// dischargeOne serves head of the queue starting at given time and returns time it cleared
func (sim *simulation) dischargeOne(lane *Lane, t float64) float64 {
	t += sim.transit
	lane.dequeue(t)
	lane.generateArrivals(t)
	return t
}

// serveWithOpposedLeft services right-turning lane and lets opposed left lanes use its idle gaps
func (sim *simulation) serveWithOpposedLeft(lane *Lane, leftLanes []*Lane, start, end float64) {
	t := start
	for t < end {
		if lane.QueueLen() > 0 {
			t = sim.dischargeOne(lane, t)
			continue
		}
		if !lane.arrivalsPending() {
			for _, left := range leftLanes {
				sim.dischargeOpposedLeft(left, t+opposedLeftBuffer, end-opposedLeftBuffer)
			}
			break
		}
		next := lane.nextArrival()
		windowEnd := math.Min(next, end) - opposedLeftBuffer
		for _, left := range leftLanes {
			sim.dischargeOpposedLeft(left, t+opposedLeftBuffer, windowEnd)
		}
		t = next
		if t < end {
			lane.passFreeFlow()
		}
	}
}

// dischargeOpposedLeft serves opposed left lane inside the window [from, until)
func (sim *simulation) dischargeOpposedLeft(left *Lane, from, until float64) {
	if !left.hasFlow() || from >= until {
		return
	}
	left.generateArrivals(from)
	t := from
	for t < until {
		if left.QueueLen() > 0 {
			if t+sim.transit > until {
				break
			}
			t = sim.dischargeOne(left, t)
			sim.opposedTurns++
			continue
		}
		if !left.arrivalsPending() {
			break
		}
		next := left.nextArrival()
		if next >= until {
			break
		}
		t = next
		left.passFreeFlow()
		sim.opposedTurns++
	}
}
