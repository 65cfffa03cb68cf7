package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tripboard/models"
	"tripboard/utils"
)

var (
	ErrNotFound  = errors.New("itinerary not found")
	ErrForbidden = errors.New("itinerary belongs to another user")
)

const (
	StatusDraft     = "Draft"
	StatusConfirmed = "Confirmed"
)

// Filter narrows List. Zero values match everything.
type Filter struct {
	UserID    string
	Location  string
	Published bool
}

// Repository stores itineraries in MongoDB. Deletes are soft.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRepository(coll *mongo.Collection) *Repository {
	return &Repository{coll: coll, now: func() time.Time { return time.Now().UTC() }}
}

func notDeleted(filter bson.M) bson.M {
	filter["deleted"] = bson.M{"$ne": true}
	return filter
}

// Create inserts a new draft itinerary and returns its id.
func (r *Repository) Create(ctx context.Context, req models.ItineraryCreate) (string, error) {
	now := r.now()
	it := models.Itinerary{
		ItineraryID: utils.GenerateRandomString(13),
		UserID:      req.UserID,
		Name:        req.Name,
		Relation:    req.Relation,
		Location:    req.Location,
		Theme:       req.Theme,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Items:       req.Items,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, it); err != nil {
		return "", fmt.Errorf("insert itinerary: %w", err)
	}
	return it.ItineraryID, nil
}

// Replace overwrites the trip fields and items of an existing itinerary.
func (r *Repository) Replace(ctx context.Context, id string, req models.ItineraryCreate) error {
	update := bson.M{"$set": bson.M{
		"name":       req.Name,
		"relation":   req.Relation,
		"location":   req.Location,
		"theme":      req.Theme,
		"start_at":   req.StartAt,
		"end_at":     req.EndAt,
		"items":      req.Items,
		"updated_at": r.now(),
	}}
	res, err := r.coll.UpdateOne(ctx, notDeleted(bson.M{"itineraryid": id, "user_id": req.UserID}), update)
	if err != nil {
		return fmt.Errorf("update itinerary: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Itinerary, error) {
	var it models.Itinerary
	err := r.coll.FindOne(ctx, notDeleted(bson.M{"itineraryid": id})).Decode(&it)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find itinerary: %w", err)
	}
	return &it, nil
}

// List returns matching itineraries, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Itinerary, error) {
	filter := notDeleted(bson.M{})
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Location != "" {
		filter["location"] = f.Location
	}
	if f.Published {
		filter["published"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	return utils.FindAndDecode[models.Itinerary](ctx, r.coll, filter, opts)
}

// owned loads id and checks that userID owns it.
func (r *Repository) owned(ctx context.Context, userID, id string) (*models.Itinerary, error) {
	it, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.UserID != userID {
		return nil, ErrForbidden
	}
	return it, nil
}

func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.owned(ctx, userID, id); err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"deleted": true, "updated_at": r.now()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"itineraryid": id}, update); err != nil {
		return fmt.Errorf("delete itinerary: %w", err)
	}
	return nil
}

func (r *Repository) Publish(ctx context.Context, userID, id string) error {
	if _, err := r.owned(ctx, userID, id); err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"published": true, "status": StatusConfirmed, "updated_at": r.now()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"itineraryid": id}, update); err != nil {
		return fmt.Errorf("publish itinerary: %w", err)
	}
	return nil
}

// Fork copies a visible itinerary into a new draft owned by userID.
func (r *Repository) Fork(ctx context.Context, userID, id string) (*models.Itinerary, error) {
	original, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Visible(original, userID) {
		return nil, ErrForbidden
	}

	fork := Forked(*original, userID, utils.GenerateRandomString(13), r.now())
	if _, err := r.coll.InsertOne(ctx, fork); err != nil {
		return nil, fmt.Errorf("insert fork: %w", err)
	}
	return &fork, nil
}

// Visible reports whether userID may read it.
func Visible(it *models.Itinerary, userID string) bool {
	return it.Published || (userID != "" && it.UserID == userID)
}

// Forked builds the copy stored by Fork.
func Forked(original models.Itinerary, userID, newID string, now time.Time) models.Itinerary {
	originalID := original.ItineraryID
	fork := original
	fork.ItineraryID = newID
	fork.UserID = userID
	fork.Name = "Forked - " + original.Name
	fork.Items = append([]models.ItineraryItem(nil), original.Items...)
	fork.Theme = append([]string(nil), original.Theme...)
	fork.Status = StatusDraft
	fork.Published = false
	fork.ForkedFrom = &originalID
	fork.CreatedAt = now
	fork.UpdatedAt = now
	return fork
}
