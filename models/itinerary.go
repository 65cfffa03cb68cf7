package models

import (
	"encoding/json"
	"time"
)

// ItineraryItem is one flattened entry of an itinerary. Place entries carry
// accommodation_id 0 and accommodation entries carry place_id 0.
type ItineraryItem struct {
	ItemType        ItemKind   `json:"item_type,omitempty" bson:"item_type"`
	PlaceID         int64      `json:"place_id" bson:"place_id"`
	AccommodationID int64      `json:"accommodation_id" bson:"accommodation_id"`
	StartTime       *time.Time `json:"start_time" bson:"start_time"`
	EndTime         *time.Time `json:"end_time" bson:"end_time"`
	IsRequired      bool       `json:"is_required" bson:"is_required"`

	// kept so a stored itinerary can be reopened for editing
	Day           *int           `json:"-" bson:"day,omitempty"`
	Place         *PlaceInfo     `json:"-" bson:"place,omitempty"`
	Accommodation *Accommodation `json:"-" bson:"accommodation,omitempty"`
}

// ItineraryCreate is the itinerary-creation request used for persist and
// as the generation draft.
type ItineraryCreate struct {
	UserID   string          `json:"user_id" bson:"user_id"`
	Relation string          `json:"relation" bson:"relation"`
	StartAt  time.Time       `json:"start_at" bson:"start_at"`
	EndAt    time.Time       `json:"end_at" bson:"end_at"`
	Location string          `json:"location" bson:"location"`
	Theme    []string        `json:"theme" bson:"theme"`
	Items    []ItineraryItem `json:"items" bson:"items"`
	Name     string          `json:"name,omitempty" bson:"name"`
}

type GenerationRequest struct {
	BaseItinerary ItineraryCreate `json:"base_itinerary"`
	ModelName     string          `json:"model_name"`
}

// ItemData is the data block of a generation response item. Info holds a
// place or an accommodation record depending on the item type.
type ItemData struct {
	PlaceID         int64           `json:"place_id"`
	AccommodationID int64           `json:"accommodation_id"`
	StartTime       *time.Time      `json:"start_time"`
	EndTime         *time.Time      `json:"end_time"`
	IsRequired      bool            `json:"is_required"`
	Info            json.RawMessage `json:"info,omitempty"`
}

type ResponseItem struct {
	ItemType ItemKind `json:"item_type"`
	Data     ItemData `json:"data"`
}

type GenerationResponse struct {
	StartAt  time.Time      `json:"start_at"`
	EndAt    time.Time      `json:"end_at"`
	Location string         `json:"location,omitempty"`
	Items    []ResponseItem `json:"items"`
}

// Itinerary is a persisted, named itinerary record.
type Itinerary struct {
	ItineraryID string          `json:"itineraryid" bson:"itineraryid"`
	UserID      string          `json:"user_id" bson:"user_id"`
	Name        string          `json:"name" bson:"name"`
	Relation    string          `json:"relation" bson:"relation"`
	Location    string          `json:"location" bson:"location"`
	Theme       []string        `json:"theme" bson:"theme"`
	StartAt     time.Time       `json:"start_at" bson:"start_at"`
	EndAt       time.Time       `json:"end_at" bson:"end_at"`
	Items       []ItineraryItem `json:"items" bson:"items"`
	Status      string          `json:"status" bson:"status"` // Draft/Confirmed
	Published   bool            `json:"published" bson:"published"`
	ForkedFrom  *string         `json:"forked_from,omitempty" bson:"forked_from,omitempty"`
	Deleted     bool            `json:"-" bson:"deleted,omitempty"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
}
