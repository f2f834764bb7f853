package junctionsim

import (
	"github.com/pkg/errors"
)

var (
	// ErrFlowUnderflow means an attempt to take flow from an empty movement. It signals a distribution defect
	ErrFlowUnderflow = errors.New("flow underflow")
	// ErrNotConverged means balancing hit the passes cap without reaching a fixed point
	ErrNotConverged = errors.New("flow balancing did not converge")
	// ErrInvalidConstants means physical constants are missing or out of range
	ErrInvalidConstants = errors.New("invalid physical constants")

	ErrUnknownLaneType    = errors.New("unknown lane type")
	ErrInvalidLaneLayout  = errors.New("invalid lane layout")
	ErrUnservedMovement   = errors.New("movement has flow but no lane can carry it")
	ErrInvalidFlow        = errors.New("invalid movement flow")
	ErrInvalidPriorities  = errors.New("invalid priorities")
	ErrInvalidCrossing    = errors.New("invalid pedestrian crossing")
	ErrUnknownDirection   = errors.New("unknown direction")
	ErrUnknownFormat      = errors.New("unknown output format")
	ErrJunctionNotFound   = errors.New("junction node not found")
	ErrNoApproaches       = errors.New("no approaches found for junction node")
	ErrUnhandledExtension = errors.New("file extension is not handled")
)
