package junctionsim

// Vehicle is one simulated car waiting in a lane
type Vehicle struct {
	entryTime float64
	wait      float64
	served    bool
}

func newVehicle(entryTime float64) Vehicle {
	return Vehicle{entryTime: entryTime}
}

func (v Vehicle) EntryTime() float64 {
	return v.entryTime
}

// Wait returns time between arrival and service. Zero until vehicle is served
func (v Vehicle) Wait() float64 {
	return v.wait
}

func (v Vehicle) Served() bool {
	return v.served
}

// serve returns copy of the vehicle served at given time
func (v Vehicle) serve(at float64) Vehicle {
	v.wait = at - v.entryTime
	v.served = true
	return v
}
