package backend

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"tripboard/models"
)

// RouteClient looks up a path through ordered waypoints.
type RouteClient struct {
	c jsonClient
}

func NewRouteClient(url string, timeout time.Duration, logger arbor.ILogger) *RouteClient {
	return &RouteClient{c: newJSONClient(url, timeout, logger)}
}

func (r *RouteClient) Lookup(ctx context.Context, req models.RouteRequest) (*models.RouteResponse, error) {
	var out models.RouteResponse
	if err := r.c.post(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
