package models

// RouteRequest asks the path service for a route through ordered waypoints.
type RouteRequest struct {
	Waypoints []Coordinates `json:"waypoints"`
	Transport string        `json:"transport"`
}

type RouteResponse struct {
	StartPoint Coordinates   `json:"start_point"`
	EndPoint   Coordinates   `json:"end_point"`
	Path       []Coordinates `json:"path"`
	Distance   float64       `json:"distance"`
	Duration   float64       `json:"duration"`
	Transport  string        `json:"transport"`
}
