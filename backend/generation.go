package backend

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"tripboard/models"
)

// GenerationClient asks the remote generator for a full schedule.
type GenerationClient struct {
	c jsonClient
}

func NewGenerationClient(url string, timeout time.Duration, logger arbor.ILogger) *GenerationClient {
	return &GenerationClient{c: newJSONClient(url, timeout, logger)}
}

// Generate sends the draft and returns the generated itinerary. A single
// attempt is made.
func (g *GenerationClient) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResponse, error) {
	g.c.logger.Info().
		Str("location", req.BaseItinerary.Location).
		Int("items", len(req.BaseItinerary.Items)).
		Str("model", req.ModelName).
		Msg("Requesting itinerary generation")

	var out models.GenerationResponse
	if err := g.c.post(ctx, req, &out); err != nil {
		return nil, err
	}

	g.c.logger.Info().Int("items", len(out.Items)).Msg("Itinerary generation completed")
	return &out, nil
}
