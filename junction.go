package junctionsim

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PedestrianCrossing configures crossing requests inserted between phases
type PedestrianCrossing struct {
	RequestsPerHour int
	// Seconds the junction is held for one crossing
	Duration float64
}

func (crossing PedestrianCrossing) validate() error {
	if crossing.RequestsPerHour < 0 {
		return errors.Wrapf(ErrInvalidCrossing, "requests per hour must be non-negative, got %d", crossing.RequestsPerHour)
	}
	if crossing.Duration < 0 {
		return errors.Wrapf(ErrInvalidCrossing, "duration must be non-negative, got %v", crossing.Duration)
	}
	return nil
}

// requests returns crossing request times within the simulated hour
func (crossing PedestrianCrossing) requests() []float64 {
	if crossing.RequestsPerHour <= 0 {
		return nil
	}
	interval := SimulationHorizon / float64(crossing.RequestsPerHour)
	result := make([]float64, 0, crossing.RequestsPerHour)
	for k := 1; k <= crossing.RequestsPerHour; k++ {
		result = append(result, float64(k)*interval)
	}
	return result
}

// Junction is a four-arm signalised junction prepared for simulation
type Junction struct {
	directions [4]*Direction
	constants  PhysicalConstants
	crossing   *PedestrianCrossing

	priorities     [4]int
	userPriorities *[4]int
	maxPasses      int

	logger logrus.FieldLogger
}

// WithLogger sets logger for construction and simulation messages
func WithLogger(logger logrus.FieldLogger) func(*Junction) {
	return func(junction *Junction) {
		junction.logger = logger
	}
}

// WithPriorities bypasses priority ranking with given [north, east, south, west] ranks
func WithPriorities(priorities [4]int) func(*Junction) {
	return func(junction *Junction) {
		p := priorities
		junction.userPriorities = &p
	}
}

// WithPedestrianCrossing enables crossing requests
func WithPedestrianCrossing(requestsPerHour int, duration float64) func(*Junction) {
	return func(junction *Junction) {
		junction.crossing = &PedestrianCrossing{
			RequestsPerHour: requestsPerHour,
			Duration:        duration,
		}
	}
}

// WithMaxBalancePasses caps flow balancing passes. Zero keeps the default bound
func WithMaxBalancePasses(maxPasses int) func(*Junction) {
	return func(junction *Junction) {
		junction.maxPasses = maxPasses
	}
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// NewJunction validates configuration, distributes flows of every direction and ranks priorities
func NewJunction(cfg *RunConfiguration, constants PhysicalConstants, options ...func(*Junction)) (*Junction, error) {
	if err := constants.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't prepare junction")
	}
	junction := &Junction{
		constants: constants,
		logger:    discardLogger(),
	}
	if cfg.PedestrianCrossing.Enabled {
		junction.crossing = &PedestrianCrossing{
			RequestsPerHour: cfg.PedestrianCrossing.RequestsPerHour,
			Duration:        cfg.PedestrianCrossing.Duration,
		}
	}
	if cfg.Priority.UserSupplied {
		priorities, err := cfg.Priority.Priorities()
		if err != nil {
			return nil, errors.Wrap(err, "Can't prepare junction")
		}
		junction.userPriorities = &priorities
	}
	for _, option := range options {
		option(junction)
	}
	if junction.crossing != nil {
		if err := junction.crossing.validate(); err != nil {
			return nil, errors.Wrap(err, "Can't prepare junction")
		}
	}

	for _, name := range DirectionsOrder {
		dirCfg := cfg.Direction(name)
		vph, err := dirCfg.VPH()
		if err != nil {
			return nil, errors.Wrapf(err, "Can't prepare %s direction", name)
		}
		direction, err := newDirection(name, vph, dirCfg.Lanes, junction.maxPasses)
		if err != nil {
			return nil, err
		}
		junction.directions[name] = direction
		junction.logger.WithFields(logrus.Fields{
			"direction": name.String(),
			"layout":    laneLayoutStrings(direction.layout),
			"case":      direction.distributionCase.String(),
			"passes":    direction.balancePasses,
		}).Debug("Flow distributed")
	}

	if junction.userPriorities != nil {
		if err := ValidatePriorities(*junction.userPriorities); err != nil {
			return nil, errors.Wrap(err, "Can't prepare junction")
		}
		junction.priorities = *junction.userPriorities
	} else {
		peaks := [4]int{}
		for i, direction := range junction.directions {
			peaks[i] = direction.MaxLaneFlow()
		}
		junction.priorities = RankPriorities(peaks)
	}
	for i, direction := range junction.directions {
		direction.setGreenDuration(GreenDuration(junction.priorities[i], constants.MinimumGreenTime))
	}
	return junction, nil
}

func (junction *Junction) Direction(name DirectionName) *Direction {
	return junction.directions[name]
}

// Priorities returns ranks [north, east, south, west]
func (junction *Junction) Priorities() [4]int {
	return junction.priorities
}

func (junction *Junction) Constants() PhysicalConstants {
	return junction.constants
}

// PedestrianCrossing returns crossing settings. Second value is false when crossing is disabled
func (junction *Junction) PedestrianCrossing() (PedestrianCrossing, bool) {
	if junction.crossing == nil {
		return PedestrianCrossing{}, false
	}
	return *junction.crossing, true
}
