package junctionsim

import (
	"testing"
)

func TestLaneArrivals(t *testing.T) {
	lane := newLane(LANE_S)
	lane.addFlow(MOVEMENT_STRAIGHT, 360)
	lane.prepare(10)
	if lane.InterArrival() != 10 {
		t.Errorf("Inter-arrival must be %f, but got %f", 10.0, lane.InterArrival())
	}
	if _, ok := lane.MaxQueue(); ok {
		t.Errorf("Max queue must be undefined before any arrival")
	}
	lane.generateArrivals(35)
	if lane.QueueLen() != 3 {
		t.Errorf("Queue length must be %d, but got %d", 3, lane.QueueLen())
	}
	// Arrival at exactly 40 is not generated before 40
	lane.generateArrivals(40)
	if lane.QueueLen() != 3 {
		t.Errorf("Queue length must be %d, but got %d", 3, lane.QueueLen())
	}
	if maxQueue, ok := lane.MaxQueue(); !ok || maxQueue != 3 {
		t.Errorf("Max queue must be %d, but got %d (defined: %t)", 3, maxQueue, ok)
	}

	vehicle := lane.dequeue(40)
	if vehicle.EntryTime() != 10 || vehicle.Wait() != 30 || !vehicle.Served() {
		t.Errorf("Served vehicle must enter at %f and wait %f, but got %f and %f", 10.0, 30.0, vehicle.EntryTime(), vehicle.Wait())
	}
	lane.dequeue(45)
	if lane.QueueLen() != 1 {
		t.Errorf("Queue length must be %d, but got %d", 1, lane.QueueLen())
	}
	if maxWait, ok := lane.MaxWait(); !ok || maxWait != 30 {
		t.Errorf("Max wait must be %f, but got %f (defined: %t)", 30.0, maxWait, ok)
	}
	if lane.CarsPassed() != 2 {
		t.Errorf("Cars passed must be %d, but got %d", 2, lane.CarsPassed())
	}
	if lane.TotalWait() != 55 {
		t.Errorf("Total wait must be %f, but got %f", 55.0, lane.TotalWait())
	}
	if lane.AvgWait() != 27.5 {
		t.Errorf("Average wait must be %f, but got %f", 27.5, lane.AvgWait())
	}

	lane.passFreeFlow()
	if lane.CarsPassed() != 3 || lane.lastArrival() != 40 {
		t.Errorf("Free flow vehicle must be counted, but got %d cars and last arrival %f", lane.CarsPassed(), lane.lastArrival())
	}

	// Reset keeps flows and clears run state
	lane.prepare(10)
	if lane.QueueLen() != 0 || lane.CarsPassed() != 0 || lane.TotalFlow() != 360 {
		t.Errorf("Prepared lane must be empty with flow %d, but got queue %d, cars %d, flow %d", 360, lane.QueueLen(), lane.CarsPassed(), lane.TotalFlow())
	}
	if _, ok := lane.MaxWait(); ok {
		t.Errorf("Max wait must be undefined after reset")
	}
}

func TestLaneArrivalsHorizon(t *testing.T) {
	lane := newLane(LANE_L)
	lane.addFlow(MOVEMENT_LEFT, 1)
	lane.prepare(10)
	lane.generateArrivals(SimulationHorizon)
	if lane.QueueLen() != 0 {
		t.Errorf("Arrival at the horizon must not be generated before it, but got queue %d", lane.QueueLen())
	}
	lane.generateArrivals(SimulationHorizon + 100)
	if lane.QueueLen() != 1 {
		t.Errorf("Queue length must be %d, but got %d", 1, lane.QueueLen())
	}
	if lane.arrivalsPending() {
		t.Errorf("Lane must have no arrivals after the horizon")
	}
}

func TestLaneWithoutFlow(t *testing.T) {
	lane := newLane(LANE_R)
	lane.prepare(10)
	lane.generateArrivals(SimulationHorizon)
	if lane.QueueLen() != 0 || lane.arrivalsPending() || lane.hasFlow() {
		t.Errorf("Lane without flow must never receive vehicles")
	}
	if lane.AvgWait() != 0 {
		t.Errorf("Average wait must be %f, but got %f", 0.0, lane.AvgWait())
	}
}

func TestLaneQueueCompaction(t *testing.T) {
	lane := newLane(LANE_S)
	lane.addFlow(MOVEMENT_STRAIGHT, 3600)
	lane.prepare(10)
	lane.generateArrivals(101)
	served := 0
	for lane.QueueLen() > 0 {
		lane.dequeue(200)
		served++
	}
	if served != 100 {
		t.Errorf("Served vehicles must be %d, but got %d", 100, served)
	}
	if lane.queueHead != 0 || len(lane.queue) != 0 {
		t.Errorf("Queue storage must be compacted, but got head %d and length %d", lane.queueHead, len(lane.queue))
	}
}
