package planner

import "errors"

var (
	ErrSessionNotFound      = errors.New("planner session not found")
	ErrInvalidPlan          = errors.New("invalid travel plan")
	ErrInvalidEvent         = errors.New("invalid drag event")
	ErrForbidden            = errors.New("not allowed to open this itinerary")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrSessionBusy          = errors.New("session is busy generating")
	ErrGenerationFailed     = errors.New("itinerary generation failed")
	ErrPersistFailed        = errors.New("itinerary persist failed")
	ErrRouteLookupFailed    = errors.New("route lookup failed")
	ErrNotEnoughWaypoints   = errors.New("a route needs at least two waypoints")
)
