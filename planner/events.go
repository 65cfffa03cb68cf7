package planner

import (
	"tripboard/dragdrop"
	"tripboard/models"
	"tripboard/schedule"
)

type DragKind string

const (
	DragStart       DragKind = "drag_start"
	DragEnterItem   DragKind = "drag_enter_item"
	DragEnterColumn DragKind = "drag_enter_column"
	Drop            DragKind = "drop"
	DropDeleteZone  DragKind = "drop_delete_zone"
	DragEnd         DragKind = "drag_end"
	Reset           DragKind = "reset"
)

// DragEvent is one browser drag event forwarded to the session.
//
// For drag_start, Day/Index (or Accommodation) name the schedule item being
// lifted; External marks a drag that starts in a catalogue list instead.
// For drop, Day is the target column and Payload carries catalogue records.
type DragEvent struct {
	Kind          DragKind          `json:"kind" validate:"required,oneof=drag_start drag_enter_item drag_enter_column drop drop_delete_zone drag_end reset"`
	Day           int               `json:"day" validate:"gte=0"`
	Index         int               `json:"index" validate:"gte=-1"`
	Accommodation bool              `json:"accommodation,omitempty"`
	External      bool              `json:"external,omitempty"`
	Payload       *dragdrop.Payload `json:"payload,omitempty"`
}

// mutates reports whether the event kind can change the schedule.
func (k DragKind) mutates() bool {
	switch k {
	case Drop, DropDeleteZone, DragEnd:
		return true
	}
	return false
}

// DragResult is the session after an event plus the placement rule that
// refused it, if any. A rejection leaves the schedule unchanged.
type DragResult struct {
	Session   *Session                `json:"session"`
	Rejection *schedule.RejectedError `json:"rejection,omitempty"`
}

// sourceFor resolves the lifted schedule item for a drag_start.
func sourceFor(s schedule.Schedule, ev DragEvent) (*dragdrop.Source, error) {
	if ev.External || ev.Payload != nil {
		return nil, nil
	}
	d, ok := s.Day(ev.Day)
	if !ok {
		return nil, &schedule.RejectedError{Reason: schedule.ReasonDayOutOfRange, Day: ev.Day}
	}
	if ev.Accommodation {
		if d.Accommodation == nil {
			return nil, &schedule.RejectedError{Reason: schedule.ReasonItemOutOfRange, Day: ev.Day}
		}
		return &dragdrop.Source{Day: ev.Day, Index: -1, Entry: models.AccommodationEntry(*d.Accommodation)}, nil
	}
	if ev.Index < 0 || ev.Index >= len(d.PlaceList) {
		return nil, &schedule.RejectedError{Reason: schedule.ReasonItemOutOfRange, Day: ev.Day, ID: int64(ev.Index)}
	}
	return &dragdrop.Source{Day: ev.Day, Index: ev.Index, Entry: models.PlaceEntry(d.PlaceList[ev.Index])}, nil
}
