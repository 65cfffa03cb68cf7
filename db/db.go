package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds the client and the collections the server reads and writes.
type Store struct {
	Client                   *mongo.Client
	ItineraryCollection      *mongo.Collection
	PlacesCollection         *mongo.Collection
	AccommodationsCollection *mongo.Collection
}

// Connect dials MongoDB, pings it and ensures the indexes the repositories
// rely on.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	dbh := client.Database(database)
	s := &Store{
		Client:                   client,
		ItineraryCollection:      dbh.Collection("itinerary"),
		PlacesCollection:         dbh.Collection("places"),
		AccommodationsCollection: dbh.Collection("accommodations"),
	}
	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.ItineraryCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "itineraryid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create itinerary indexes: %w", err)
	}
	if _, err := s.PlacesCollection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "location", Value: 1}}}); err != nil {
		return fmt.Errorf("create places index: %w", err)
	}
	if _, err := s.AccommodationsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "location", Value: 1}}}); err != nil {
		return fmt.Errorf("create accommodations index: %w", err)
	}
	return nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
