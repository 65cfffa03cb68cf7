package dragdrop

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"tripboard/codec"
	"tripboard/models"
)

var ErrMalformedPayload = errors.New("malformed drag payload")

const TypeAccommodation = "accommodation"

// Payload is the drag transfer for records dragged in from a catalogue list.
// Data is the JSON record, Type is "accommodation" for stays (anything else
// means a place) and Day optionally names the day the drag started from.
type Payload struct {
	Data string `json:"data"`
	Type string `json:"type,omitempty"`
	Day  string `json:"day,omitempty"`
}

// Entry decodes the carried record into a schedulable entry.
func (p Payload) Entry() (models.Entry, error) {
	if p.Type == TypeAccommodation {
		var rec models.Accommodation
		if err := json.Unmarshal([]byte(p.Data), &rec); err != nil {
			return models.Entry{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if rec.AccommodationID == 0 {
			return models.Entry{}, fmt.Errorf("%w: missing accommodation_id", ErrMalformedPayload)
		}
		if len(rec.Images) == 0 {
			rec.Images = codec.ParseImageList(rec.ImageURL)
		}
		return models.AccommodationEntry(models.AccommodationItem{
			AccommodationID: rec.AccommodationID,
			IsRequired:      true,
			Info:            rec,
		}), nil
	}

	var rec models.PlaceInfo
	if err := json.Unmarshal([]byte(p.Data), &rec); err != nil {
		return models.Entry{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if rec.PlaceID == 0 {
		return models.Entry{}, fmt.Errorf("%w: missing place_id", ErrMalformedPayload)
	}
	if len(rec.Images) == 0 {
		rec.Images = codec.ParseImageList(rec.ImageURL)
	}
	return models.PlaceEntry(models.PlaceItem{
		PlaceID:    rec.PlaceID,
		IsRequired: true,
		Info:       rec,
	}), nil
}

// SourceDay parses Day; ok is false when it is absent or not a number.
func (p Payload) SourceDay() (int, bool) {
	if p.Day == "" {
		return 0, false
	}
	d, err := strconv.Atoi(p.Day)
	if err != nil {
		return 0, false
	}
	return d, true
}
