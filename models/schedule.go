package models

import "time"

// PlaceItem is a place scheduled inside a day.
type PlaceItem struct {
	PlaceID         int64      `json:"place_id" bson:"place_id"`
	AccommodationID int64      `json:"accommodation_id" bson:"accommodation_id"`
	StartTime       *time.Time `json:"start_time" bson:"start_time"`
	EndTime         *time.Time `json:"end_time" bson:"end_time"`
	IsRequired      bool       `json:"is_required" bson:"is_required"`
	Info            PlaceInfo  `json:"info" bson:"info"`
}

// AccommodationItem is the single stay attached to a day.
type AccommodationItem struct {
	PlaceID         int64         `json:"place_id" bson:"place_id"`
	AccommodationID int64         `json:"accommodation_id" bson:"accommodation_id"`
	StartTime       *time.Time    `json:"start_time" bson:"start_time"`
	EndTime         *time.Time    `json:"end_time" bson:"end_time"`
	IsRequired      bool          `json:"is_required" bson:"is_required"`
	Info            Accommodation `json:"info" bson:"info"`
}

// DaySchedule is one day bucket of the trip.
type DaySchedule struct {
	Index         int                `json:"index" bson:"index"`
	Date          time.Time          `json:"date" bson:"date"`
	PlaceList     []PlaceItem        `json:"place_list" bson:"place_list"`
	Accommodation *AccommodationItem `json:"accommodation,omitempty" bson:"accommodation,omitempty"`
}

type ItemKind string

const (
	KindPlace         ItemKind = "place"
	KindAccommodation ItemKind = "accommodation"
)

// Entry holds either a place or an accommodation, discriminated by Kind.
type Entry struct {
	Kind          ItemKind           `json:"kind"`
	Place         *PlaceItem         `json:"place,omitempty"`
	Accommodation *AccommodationItem `json:"accommodation,omitempty"`
}

func PlaceEntry(p PlaceItem) Entry {
	return Entry{Kind: KindPlace, Place: &p}
}

func AccommodationEntry(a AccommodationItem) Entry {
	return Entry{Kind: KindAccommodation, Accommodation: &a}
}

func (p PlaceItem) Clone() PlaceItem {
	p.StartTime = cloneTime(p.StartTime)
	p.EndTime = cloneTime(p.EndTime)
	p.Info = p.Info.Clone()
	return p
}

func (a AccommodationItem) Clone() AccommodationItem {
	a.StartTime = cloneTime(a.StartTime)
	a.EndTime = cloneTime(a.EndTime)
	a.Info = a.Info.Clone()
	return a
}

// Clone deep-copies the day so snapshots never share slices.
func (d DaySchedule) Clone() DaySchedule {
	out := DaySchedule{Index: d.Index, Date: d.Date}
	out.PlaceList = make([]PlaceItem, len(d.PlaceList))
	for i, p := range d.PlaceList {
		out.PlaceList[i] = p.Clone()
	}
	if d.Accommodation != nil {
		acc := d.Accommodation.Clone()
		out.Accommodation = &acc
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
