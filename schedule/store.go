// Package schedule holds the ordered per-day itinerary buckets and the
// placement rules applied when items are inserted, removed or moved.
//
// A Schedule is an immutable snapshot: every mutation returns a new value and
// leaves the receiver untouched, so callers replace the reference they hold.
// Rejected mutations return the receiver together with a *RejectedError.
package schedule

import (
	"encoding/json"
	"math"
	"time"

	"tripboard/models"
)

// End as an item index means "append to the end of the day".
const End = -1

const day = 24 * time.Hour

type Schedule struct {
	days []models.DaySchedule
}

// New builds dayCount empty days starting at start.
func New(start time.Time, dayCount int) Schedule {
	if dayCount < 1 {
		dayCount = 1
	}
	days := make([]models.DaySchedule, dayCount)
	for i := range days {
		days[i] = models.DaySchedule{
			Index:     i,
			Date:      start.AddDate(0, 0, i),
			PlaceList: []models.PlaceItem{},
		}
	}
	return Schedule{days: days}
}

// FromDays builds a schedule from raw day buckets. Days are re-indexed by
// position, duplicate places within a day are dropped and an accommodation on
// the last day is cleared.
func FromDays(days []models.DaySchedule) Schedule {
	out := make([]models.DaySchedule, len(days))
	for i, d := range days {
		c := d.Clone()
		c.Index = i
		seen := make(map[int64]bool, len(c.PlaceList))
		places := c.PlaceList[:0]
		for _, p := range c.PlaceList {
			if seen[p.PlaceID] {
				continue
			}
			seen[p.PlaceID] = true
			places = append(places, p)
		}
		c.PlaceList = places
		out[i] = c
	}
	if n := len(out); n > 0 {
		out[n-1].Accommodation = nil
	}
	return Schedule{days: out}
}

// DeriveDayCount returns the inclusive number of days between start and end,
// ceil((end-start)/24h) + 1, never less than one.
func DeriveDayCount(start, end time.Time) int {
	n := int(math.Ceil(float64(end.Sub(start))/float64(day))) + 1
	if n < 1 {
		return 1
	}
	return n
}

func (s Schedule) Len() int { return len(s.days) }

// LastDay is the index of the final day; it never holds an accommodation.
func (s Schedule) LastDay() int { return len(s.days) - 1 }

// Days returns a deep copy of every day bucket.
func (s Schedule) Days() []models.DaySchedule {
	out := make([]models.DaySchedule, len(s.days))
	for i, d := range s.days {
		out[i] = d.Clone()
	}
	return out
}

// Day returns a copy of one day bucket.
func (s Schedule) Day(i int) (models.DaySchedule, bool) {
	if i < 0 || i >= len(s.days) {
		return models.DaySchedule{}, false
	}
	return s.days[i].Clone(), true
}

// HasPlace reports whether placeID is already scheduled on the given day.
func (s Schedule) HasPlace(dayIndex int, placeID int64) bool {
	if dayIndex < 0 || dayIndex >= len(s.days) {
		return false
	}
	for _, p := range s.days[dayIndex].PlaceList {
		if p.PlaceID == placeID {
			return true
		}
	}
	return false
}

// InsertAt inserts a place at index (End appends) or sets the day's
// accommodation, depending on the entry kind.
func (s Schedule) InsertAt(dayIndex, index int, e models.Entry) (Schedule, error) {
	switch {
	case e.Kind == models.KindPlace && e.Place != nil:
		return s.InsertPlace(dayIndex, index, *e.Place)
	case e.Kind == models.KindAccommodation && e.Accommodation != nil:
		return s.SetAccommodation(dayIndex, *e.Accommodation)
	}
	return s, &RejectedError{Reason: ReasonInvalidItem, Day: dayIndex}
}

// InsertPlace inserts p before position index. An index of End, or one past
// the list, appends. The same place may not appear twice in one day.
func (s Schedule) InsertPlace(dayIndex, index int, p models.PlaceItem) (Schedule, error) {
	if err := s.checkDay(dayIndex); err != nil {
		return s, err
	}
	if s.HasPlace(dayIndex, p.PlaceID) {
		return s, &RejectedError{Reason: ReasonDuplicatePlace, Day: dayIndex, ID: p.PlaceID}
	}

	out := s.copyDays()
	d := out[dayIndex].Clone()
	if index < 0 || index > len(d.PlaceList) {
		index = len(d.PlaceList)
	}
	d.PlaceList = append(d.PlaceList, models.PlaceItem{})
	copy(d.PlaceList[index+1:], d.PlaceList[index:])
	d.PlaceList[index] = p.Clone()
	out[dayIndex] = d
	return Schedule{days: out}, nil
}

// SetAccommodation fills the day's single accommodation slot, replacing any
// previous one. The last day is rejected.
func (s Schedule) SetAccommodation(dayIndex int, a models.AccommodationItem) (Schedule, error) {
	if err := s.checkDay(dayIndex); err != nil {
		return s, err
	}
	if dayIndex == s.LastDay() {
		return s, &RejectedError{Reason: ReasonLastDayAccommodation, Day: dayIndex, ID: a.AccommodationID}
	}

	out := s.copyDays()
	d := out[dayIndex].Clone()
	acc := a.Clone()
	d.Accommodation = &acc
	out[dayIndex] = d
	return Schedule{days: out}, nil
}

// RemoveAt removes the place at index, shifting later places down by one.
func (s Schedule) RemoveAt(dayIndex, index int) (Schedule, error) {
	if err := s.checkDay(dayIndex); err != nil {
		return s, err
	}
	if index < 0 || index >= len(s.days[dayIndex].PlaceList) {
		return s, &RejectedError{Reason: ReasonItemOutOfRange, Day: dayIndex, ID: int64(index)}
	}

	out := s.copyDays()
	d := out[dayIndex].Clone()
	d.PlaceList = append(d.PlaceList[:index], d.PlaceList[index+1:]...)
	out[dayIndex] = d
	return Schedule{days: out}, nil
}

// RemoveAccommodation clears the day's accommodation slot.
func (s Schedule) RemoveAccommodation(dayIndex int) (Schedule, error) {
	if err := s.checkDay(dayIndex); err != nil {
		return s, err
	}
	if s.days[dayIndex].Accommodation == nil {
		return s, nil
	}

	out := s.copyDays()
	d := out[dayIndex].Clone()
	d.Accommodation = nil
	out[dayIndex] = d
	return Schedule{days: out}, nil
}

// MoveItem moves a place from (fromDay, fromIndex) to the insertion slot
// toIndex of toDay. toIndex is counted in the list as it looks before the
// move, so when the item travels forward inside the same day the slot is
// shifted down by one to account for its own removal: on [A B C], moving A
// to slot 2 yields [B A C] and to slot 3 yields [B C A].
//
// If the insert is rejected the source day is left as it was.
func (s Schedule) MoveItem(fromDay, fromIndex, toDay, toIndex int) (Schedule, error) {
	if err := s.checkDay(fromDay); err != nil {
		return s, err
	}
	if err := s.checkDay(toDay); err != nil {
		return s, err
	}
	if fromIndex < 0 || fromIndex >= len(s.days[fromDay].PlaceList) {
		return s, &RejectedError{Reason: ReasonItemOutOfRange, Day: fromDay, ID: int64(fromIndex)}
	}

	item := s.days[fromDay].PlaceList[fromIndex]
	if fromDay == toDay && toIndex != End && fromIndex < toIndex {
		toIndex--
	}

	removed, err := s.RemoveAt(fromDay, fromIndex)
	if err != nil {
		return s, err
	}
	moved, err := removed.InsertPlace(toDay, toIndex, item)
	if err != nil {
		return s, err
	}
	return moved, nil
}

// MoveAccommodation moves the accommodation of fromDay to toDay.
func (s Schedule) MoveAccommodation(fromDay, toDay int) (Schedule, error) {
	if err := s.checkDay(fromDay); err != nil {
		return s, err
	}
	acc := s.days[fromDay].Accommodation
	if acc == nil {
		return s, &RejectedError{Reason: ReasonItemOutOfRange, Day: fromDay}
	}
	if fromDay == toDay {
		return s, nil
	}

	cleared, err := s.RemoveAccommodation(fromDay)
	if err != nil {
		return s, err
	}
	moved, err := cleared.SetAccommodation(toDay, *acc)
	if err != nil {
		return s, err
	}
	return moved, nil
}

// ReplaceAll swaps the whole schedule, as after generation or a load.
func (s Schedule) ReplaceAll(days []models.DaySchedule) Schedule {
	return FromDays(days)
}

// Resize rebuilds the schedule for a new trip length starting at start.
// Items of days that still exist are kept; the new last day loses its
// accommodation.
func (s Schedule) Resize(start time.Time, dayCount int) Schedule {
	next := New(start, dayCount)
	for i := range next.days {
		if i >= len(s.days) {
			break
		}
		d := s.days[i].Clone()
		next.days[i].PlaceList = d.PlaceList
		next.days[i].Accommodation = d.Accommodation
	}
	next.days[len(next.days)-1].Accommodation = nil
	return next
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	if s.days == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.days)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var days []models.DaySchedule
	if err := json.Unmarshal(data, &days); err != nil {
		return err
	}
	*s = FromDays(days)
	return nil
}

func (s Schedule) checkDay(i int) error {
	if i < 0 || i >= len(s.days) {
		return &RejectedError{Reason: ReasonDayOutOfRange, Day: i}
	}
	return nil
}

// copyDays returns a new outer slice; day contents are still shared and must
// be cloned before they are modified.
func (s Schedule) copyDays() []models.DaySchedule {
	out := make([]models.DaySchedule, len(s.days))
	copy(out, s.days)
	return out
}
