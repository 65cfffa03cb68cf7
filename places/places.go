package places

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tripboard/codec"
	"tripboard/models"
	"tripboard/utils"
)

const cacheTTL = 10 * time.Minute

// Cache is a string cache keyed by listing.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Catalogue reads places and accommodations, optionally through a cache.
type Catalogue struct {
	places         *mongo.Collection
	accommodations *mongo.Collection
	cache          Cache
	logger         arbor.ILogger
}

func NewCatalogue(places, accommodations *mongo.Collection, cache Cache, logger arbor.ILogger) *Catalogue {
	return &Catalogue{places: places, accommodations: accommodations, cache: cache, logger: logger}
}

func locationFilter(location string) bson.M {
	if location == "" {
		return bson.M{}
	}
	return bson.M{"location": location}
}

func cacheKey(kind, location string) string {
	return "catalogue:" + kind + ":" + location
}

func withImages[T any](items []T, images func(*T)) []T {
	for i := range items {
		images(&items[i])
	}
	return items
}

// Places lists places for location (all when empty) with images parsed.
func (c *Catalogue) Places(ctx context.Context, location string) ([]models.PlaceInfo, error) {
	key := cacheKey("places", location)
	var out []models.PlaceInfo
	if c.fromCache(ctx, key, &out) {
		return out, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	out, err := utils.FindAndDecode[models.PlaceInfo](ctx, c.places, locationFilter(location), opts)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	out = withImages(out, func(p *models.PlaceInfo) { p.Images = codec.ParseImageList(p.ImageURL) })
	c.toCache(ctx, key, out)
	return out, nil
}

func (c *Catalogue) Accommodations(ctx context.Context, location string) ([]models.Accommodation, error) {
	key := cacheKey("accommodations", location)
	var out []models.Accommodation
	if c.fromCache(ctx, key, &out) {
		return out, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	out, err := utils.FindAndDecode[models.Accommodation](ctx, c.accommodations, locationFilter(location), opts)
	if err != nil {
		return nil, fmt.Errorf("list accommodations: %w", err)
	}
	out = withImages(out, func(a *models.Accommodation) { a.Images = codec.ParseImageList(a.ImageURL) })
	c.toCache(ctx, key, out)
	return out, nil
}

func (c *Catalogue) fromCache(ctx context.Context, key string, dst any) bool {
	if c.cache == nil {
		return false
	}
	cached, err := c.cache.Get(ctx, key)
	if err != nil || cached == "" {
		return false
	}
	if err := json.Unmarshal([]byte(cached), dst); err != nil {
		c.logger.Warn().Str("key", key).Err(err).Msg("Discarding undecodable cache entry")
		return false
	}
	return true
}

func (c *Catalogue) toCache(ctx context.Context, key string, v any) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(data), cacheTTL); err != nil {
		c.logger.Debug().Str("key", key).Err(err).Msg("Catalogue cache write failed")
	}
}
