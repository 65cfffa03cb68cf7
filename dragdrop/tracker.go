// Package dragdrop tracks an in-flight drag and turns its drop into a
// schedule mutation.
package dragdrop

import (
	"tripboard/logging"
	"tripboard/models"
	"tripboard/schedule"
)

// Source is an item dragged out of the schedule itself.
type Source struct {
	Day   int          `json:"day"`
	Index int          `json:"index"`
	Entry models.Entry `json:"entry"`
}

// Target is the hovered insertion slot.
type Target struct {
	Day   int `json:"day"`
	Index int `json:"index"`
}

// Tracker is the drag session state. The zero value is idle.
// Source is nil for drags that start outside the schedule.
type Tracker struct {
	Source *Source `json:"source,omitempty"`
	Hover  *Target `json:"hover,omitempty"`
	Active bool    `json:"active"`
}

// DragStart begins a drag. Pass nil for catalogue drags.
func (t *Tracker) DragStart(src *Source) {
	t.Source = src
	t.Hover = nil
	t.Active = true
}

// DragEnterItem records the slot in front of the hovered item.
func (t *Tracker) DragEnterItem(day, index int) {
	t.Hover = &Target{Day: day, Index: index}
}

// DragEnterColumn records a hover over a day column. An empty column targets
// slot 0; entering another non-empty column targets its end.
func (t *Tracker) DragEnterColumn(day, columnLen int) {
	switch {
	case columnLen == 0:
		t.Hover = &Target{Day: day, Index: 0}
	case t.Hover == nil || t.Hover.Day != day:
		t.Hover = &Target{Day: day, Index: columnLen}
	}
}

// Drop applies the drag to s on targetDay and ends the session. Items from
// the schedule are moved; catalogue payloads are inserted. The slot comes
// from the last hover on targetDay, else the item is appended.
func (t *Tracker) Drop(s schedule.Schedule, targetDay int, payload *Payload) (schedule.Schedule, error) {
	defer t.Reset()

	index := schedule.End
	if t.Hover != nil && t.Hover.Day == targetDay {
		index = t.Hover.Index
	}

	if src := t.Source; src != nil {
		if src.Entry.Kind == models.KindAccommodation {
			if src.Day == targetDay {
				return s, nil
			}
			return s.MoveAccommodation(src.Day, targetDay)
		}
		return s.MoveItem(src.Day, locate(s, src), targetDay, index)
	}

	if payload == nil {
		return s, ErrMalformedPayload
	}
	entry, err := payload.Entry()
	if err != nil {
		logging.GetLogger().Warn().Err(err).Int("day", targetDay).Msg("Ignoring drop with unreadable payload")
		return s, err
	}

	if entry.Kind == models.KindAccommodation {
		if from, ok := payload.SourceDay(); ok {
			if from == targetDay {
				return s, nil
			}
			if d, ok := s.Day(from); ok && d.Accommodation != nil &&
				d.Accommodation.AccommodationID == entry.Accommodation.AccommodationID {
				return s.MoveAccommodation(from, targetDay)
			}
		}
	}
	return s.InsertAt(targetDay, index, entry)
}

// DragEnd closes the drag on the source element. If no drop was handled the
// item was released outside every column and is removed from the schedule.
func (t *Tracker) DragEnd(s schedule.Schedule) (schedule.Schedule, error) {
	if !t.Active {
		t.Reset()
		return s, nil
	}
	return t.DropOnDeleteZone(s)
}

// DropOnDeleteZone removes the dragged schedule item and ends the session.
func (t *Tracker) DropOnDeleteZone(s schedule.Schedule) (schedule.Schedule, error) {
	defer t.Reset()

	src := t.Source
	if src == nil {
		return s, nil
	}
	if src.Entry.Kind == models.KindAccommodation {
		return s.RemoveAccommodation(src.Day)
	}
	return s.RemoveAt(src.Day, locate(s, src))
}

// Reset clears the session without touching the schedule, as the
// window-level dragend/drop listeners do.
func (t *Tracker) Reset() {
	t.Source = nil
	t.Hover = nil
	t.Active = false
}

// locate returns the current index of the source place, falling back to the
// recorded index when the place cannot be found by id.
func locate(s schedule.Schedule, src *Source) int {
	d, ok := s.Day(src.Day)
	if !ok || src.Entry.Place == nil {
		return src.Index
	}
	if src.Index >= 0 && src.Index < len(d.PlaceList) && d.PlaceList[src.Index].PlaceID == src.Entry.Place.PlaceID {
		return src.Index
	}
	for i, p := range d.PlaceList {
		if p.PlaceID == src.Entry.Place.PlaceID {
			return i
		}
	}
	return src.Index
}
