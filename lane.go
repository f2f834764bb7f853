package junctionsim

import (
	"github.com/pkg/errors"
)

const (
	// SimulationHorizon is the simulated period in seconds
	SimulationHorizon = 3600.0
)

// Lane is one physical traffic lane of a direction
type Lane struct {
	laneType LaneType
	// [left, straight, right]
	flow [3]int

	queue        []Vehicle
	queueHead    int
	arrivals     int
	interArrival float64

	greenDuration float64

	maxQueue    int
	maxQueueSet bool
	maxWait     float64
	maxWaitSet  bool
	totalWait   float64
	carsPassed  int
}

func newLane(laneType LaneType) *Lane {
	return &Lane{
		laneType: laneType,
	}
}

func (lane *Lane) Type() LaneType {
	return lane.laneType
}

// Flow returns copy of the lane's movement flows [left, straight, right]
func (lane *Lane) Flow() [3]int {
	return lane.flow
}

func (lane *Lane) MovementFlow(movement MovementType) int {
	idx := movement.flowIndex()
	if idx < 0 {
		return 0
	}
	return lane.flow[idx]
}

func (lane *Lane) TotalFlow() int {
	return lane.flow[0] + lane.flow[1] + lane.flow[2]
}

func (lane *Lane) addFlow(movement MovementType, amount int) {
	lane.flow[movement.flowIndex()] += amount
}

// subFlow takes one vehicle per hour of given movement from the lane
func (lane *Lane) subFlow(movement MovementType) error {
	idx := movement.flowIndex()
	if lane.flow[idx] <= 0 {
		return errors.Wrapf(ErrFlowUnderflow, "lane %s has no %s flow", lane.laneType, movement)
	}
	lane.flow[idx]--
	return nil
}

// moveFlow moves one vehicle per hour of the movement from source lane to target lane
func moveFlow(source, target *Lane, movement MovementType) error {
	if err := source.subFlow(movement); err != nil {
		return err
	}
	target.addFlow(movement, 1)
	return nil
}

// prepare derives arrival spacing from flows and clears run state
func (lane *Lane) prepare(greenDuration float64) {
	lane.greenDuration = greenDuration
	lane.queue = lane.queue[:0]
	lane.queueHead = 0
	lane.arrivals = 0
	lane.maxQueue, lane.maxQueueSet = 0, false
	lane.maxWait, lane.maxWaitSet = 0, false
	lane.totalWait = 0
	lane.carsPassed = 0
	lane.interArrival = 0
	if total := lane.TotalFlow(); total > 0 {
		lane.interArrival = SimulationHorizon / float64(total)
	}
}

// InterArrival returns seconds between consecutive arrivals. Zero when lane has no flow
func (lane *Lane) InterArrival() float64 {
	return lane.interArrival
}

func (lane *Lane) hasFlow() bool {
	return lane.interArrival > 0
}

// nextArrival returns time of the next not yet generated arrival
func (lane *Lane) nextArrival() float64 {
	return float64(lane.arrivals+1) * lane.interArrival
}

// lastArrival returns time of the latest generated arrival (zero when none)
func (lane *Lane) lastArrival() float64 {
	return float64(lane.arrivals) * lane.interArrival
}

// arrivalsPending reports whether lane still has arrivals within the simulated hour
func (lane *Lane) arrivalsPending() bool {
	return lane.hasFlow() && lane.nextArrival() <= SimulationHorizon
}

// generateArrivals enqueues every arrival strictly before given time
func (lane *Lane) generateArrivals(until float64) {
	if !lane.hasFlow() {
		return
	}
	for lane.arrivalsPending() {
		arrival := lane.nextArrival()
		if arrival >= until {
			break
		}
		lane.arrivals++
		lane.queue = append(lane.queue, newVehicle(arrival))
		queueLen := lane.QueueLen()
		if !lane.maxQueueSet || queueLen > lane.maxQueue {
			lane.maxQueue = queueLen
			lane.maxQueueSet = true
		}
	}
}

func (lane *Lane) QueueLen() int {
	return len(lane.queue) - lane.queueHead
}

// dequeue removes head of the queue and records its service at given time
func (lane *Lane) dequeue(at float64) Vehicle {
	vehicle := lane.queue[lane.queueHead].serve(at)
	lane.queue[lane.queueHead] = Vehicle{}
	lane.queueHead++
	if lane.queueHead > len(lane.queue)/2 {
		lane.queue = append(lane.queue[:0], lane.queue[lane.queueHead:]...)
		lane.queueHead = 0
	}
	wait := vehicle.Wait()
	lane.totalWait += wait
	if !lane.maxWaitSet || wait > lane.maxWait {
		lane.maxWait = wait
		lane.maxWaitSet = true
	}
	lane.carsPassed++
	return vehicle
}

// passFreeFlow counts the next arrival as passing without stopping
func (lane *Lane) passFreeFlow() {
	lane.arrivals++
	lane.carsPassed++
}

// MaxQueue returns deepest queue seen. Second value is false when lane never queued a vehicle
func (lane *Lane) MaxQueue() (int, bool) {
	return lane.maxQueue, lane.maxQueueSet
}

// MaxWait returns longest wait. Second value is false when no queued vehicle was served
func (lane *Lane) MaxWait() (float64, bool) {
	return lane.maxWait, lane.maxWaitSet
}

func (lane *Lane) TotalWait() float64 {
	return lane.totalWait
}

func (lane *Lane) CarsPassed() int {
	return lane.carsPassed
}

func (lane *Lane) AvgWait() float64 {
	if lane.carsPassed == 0 {
		return 0
	}
	return lane.totalWait / float64(lane.carsPassed)
}
