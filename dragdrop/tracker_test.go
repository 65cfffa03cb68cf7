package dragdrop

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripboard/models"
	"tripboard/schedule"
)

var tripStart = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func placePayload(t *testing.T, id int64) *Payload {
	t.Helper()
	data, err := json.Marshal(models.PlaceInfo{PlaceID: id, Name: "P", ImageURL: "x.jpg;y.jpg"})
	require.NoError(t, err)
	return &Payload{Data: string(data)}
}

func stayPayload(t *testing.T, id int64) *Payload {
	t.Helper()
	data, err := json.Marshal(models.Accommodation{AccommodationID: id, Name: "Acc"})
	require.NoError(t, err)
	return &Payload{Data: string(data), Type: TypeAccommodation}
}

func ids(s schedule.Schedule, day int) []int64 {
	d, _ := s.Day(day)
	out := []int64{}
	for _, p := range d.PlaceList {
		out = append(out, p.PlaceID)
	}
	return out
}

func sourceAt(t *testing.T, s schedule.Schedule, day, index int) *Source {
	t.Helper()
	d, ok := s.Day(day)
	require.True(t, ok)
	require.Less(t, index, len(d.PlaceList))
	return &Source{Day: day, Index: index, Entry: models.PlaceEntry(d.PlaceList[index])}
}

func seed(t *testing.T, days int, perDay map[int][]int64) schedule.Schedule {
	t.Helper()
	s := schedule.New(tripStart, days)
	var tr Tracker
	for day := 0; day < days; day++ {
		for _, id := range perDay[day] {
			var err error
			s, err = tr.Drop(s, day, placePayload(t, id))
			require.NoError(t, err)
		}
	}
	return s
}

func TestScenarioThreeDayTrip(t *testing.T) {
	s := schedule.New(tripStart, 3)
	var tr Tracker

	tr.DragStart(nil)
	tr.DragEnterColumn(0, 0)
	s, err := tr.Drop(s, 0, placePayload(t, 1))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(s, 0))
	assert.False(t, tr.Active)

	tr.DragStart(nil)
	s, err = tr.Drop(s, 0, stayPayload(t, 10))
	require.NoError(t, err)
	d0, _ := s.Day(0)
	require.NotNil(t, d0.Accommodation)
	assert.Equal(t, int64(10), d0.Accommodation.AccommodationID)

	tr.DragStart(nil)
	s, err = tr.Drop(s, 2, stayPayload(t, 10))
	assert.ErrorIs(t, err, schedule.ErrLastDayAccommodation)
	d2, _ := s.Day(2)
	assert.Nil(t, d2.Accommodation)
	assert.False(t, tr.Active)
}

func TestDropUsesHoverSlot(t *testing.T) {
	s := seed(t, 1, map[int][]int64{0: {1, 2, 3}})
	var tr Tracker

	tr.DragStart(nil)
	tr.DragEnterItem(0, 1)
	s, err := tr.Drop(s, 0, placePayload(t, 4))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4, 2, 3}, ids(s, 0))
}

func TestDropIgnoresHoverOnOtherDay(t *testing.T) {
	s := seed(t, 2, map[int][]int64{0: {1}, 1: {2}})
	var tr Tracker

	tr.DragStart(nil)
	tr.DragEnterItem(0, 0)
	s, err := tr.Drop(s, 1, placePayload(t, 3))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids(s, 1))
}

func TestSameDayReorder(t *testing.T) {
	tests := []struct {
		name  string
		hover int
		want  []int64
	}{
		{"drop after last", 3, []int64{2, 3, 1}},
		{"drop before last", 2, []int64{2, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seed(t, 1, map[int][]int64{0: {1, 2, 3}})
			var tr Tracker

			tr.DragStart(sourceAt(t, s, 0, 0))
			tr.DragEnterItem(0, tt.hover)
			s, err := tr.Drop(s, 0, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(s, 0))
		})
	}
}

func TestCrossDayMove(t *testing.T) {
	s := seed(t, 2, map[int][]int64{0: {1, 2}})
	var tr Tracker

	tr.DragStart(sourceAt(t, s, 0, 0))
	tr.DragEnterColumn(1, 0)
	s, err := tr.Drop(s, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(s, 0))
	assert.Equal(t, []int64{1}, ids(s, 1))
}

func TestEnterNonEmptyColumnAppends(t *testing.T) {
	var tr Tracker
	tr.DragEnterColumn(1, 3)
	assert.Equal(t, &Target{Day: 1, Index: 3}, tr.Hover)

	tr.DragEnterItem(1, 1)
	tr.DragEnterColumn(1, 3)
	assert.Equal(t, &Target{Day: 1, Index: 1}, tr.Hover)
}

func TestDragEndOutsideRemovesItem(t *testing.T) {
	s := seed(t, 2, map[int][]int64{0: {1, 2}, 1: {3}})
	var tr Tracker

	tr.DragStart(sourceAt(t, s, 0, 0))
	tr.DragEnterItem(1, 0)
	s, err := tr.DragEnd(s)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(s, 0))
	assert.Equal(t, []int64{3}, ids(s, 1))
	assert.False(t, tr.Active)
}

func TestDragEndAfterDropIsNoop(t *testing.T) {
	s := seed(t, 2, map[int][]int64{0: {1, 2}})
	var tr Tracker

	tr.DragStart(sourceAt(t, s, 0, 1))
	s, err := tr.Drop(s, 1, nil)
	require.NoError(t, err)

	after, err := tr.DragEnd(s)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(after, 0))
	assert.Equal(t, []int64{2}, ids(after, 1))
}

func TestDeleteZoneRemovesAccommodation(t *testing.T) {
	s := schedule.New(tripStart, 3)
	var tr Tracker
	s, err := tr.Drop(s, 1, stayPayload(t, 5))
	require.NoError(t, err)

	d1, _ := s.Day(1)
	tr.DragStart(&Source{Day: 1, Index: -1, Entry: models.AccommodationEntry(*d1.Accommodation)})
	s, err = tr.DropOnDeleteZone(s)
	require.NoError(t, err)
	d1, _ = s.Day(1)
	assert.Nil(t, d1.Accommodation)
}

func TestExternalDragEndDoesNothing(t *testing.T) {
	s := seed(t, 1, map[int][]int64{0: {1}})
	var tr Tracker

	tr.DragStart(nil)
	after, err := tr.DragEnd(s)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(after, 0))
	assert.False(t, tr.Active)
}

func TestMalformedPayloadIsNoop(t *testing.T) {
	s := seed(t, 1, map[int][]int64{0: {1}})
	var tr Tracker

	tests := []*Payload{
		{Data: "{not json"},
		{Data: `{"name":"no id"}`},
		{Data: `{"name":"no id"}`, Type: TypeAccommodation},
		nil,
	}
	for _, p := range tests {
		tr.DragStart(nil)
		after, err := tr.Drop(s, 0, p)
		assert.ErrorIs(t, err, ErrMalformedPayload)
		assert.Equal(t, []int64{1}, ids(after, 0))
		assert.False(t, tr.Active)
	}
}

func TestDuplicateDropRejected(t *testing.T) {
	s := seed(t, 1, map[int][]int64{0: {1}})
	var tr Tracker

	after, err := tr.Drop(s, 0, placePayload(t, 1))
	assert.ErrorIs(t, err, schedule.ErrDuplicatePlace)
	assert.Equal(t, []int64{1}, ids(after, 0))
}

func TestAccommodationPayloadFromSameDayIsNoop(t *testing.T) {
	s := schedule.New(tripStart, 3)
	var tr Tracker
	s, err := tr.Drop(s, 0, stayPayload(t, 5))
	require.NoError(t, err)

	p := stayPayload(t, 6)
	p.Day = "0"
	after, err := tr.Drop(s, 0, p)
	require.NoError(t, err)
	d0, _ := after.Day(0)
	assert.Equal(t, int64(5), d0.Accommodation.AccommodationID)

	moved := stayPayload(t, 5)
	moved.Day = "0"
	after, err = tr.Drop(s, 1, moved)
	require.NoError(t, err)
	d0, _ = after.Day(0)
	d1, _ := after.Day(1)
	assert.Nil(t, d0.Accommodation)
	require.NotNil(t, d1.Accommodation)
	assert.Equal(t, int64(5), d1.Accommodation.AccommodationID)
}

func TestPayloadParsesImages(t *testing.T) {
	e, err := placePayload(t, 3).Entry()
	require.NoError(t, err)
	require.NotNil(t, e.Place)
	assert.Equal(t, []string{"x.jpg", "y.jpg"}, e.Place.Info.Images)
	assert.True(t, e.Place.IsRequired)
}

func TestResetClearsState(t *testing.T) {
	var tr Tracker
	tr.DragStart(&Source{Day: 0})
	tr.DragEnterItem(0, 2)
	tr.Reset()
	assert.Equal(t, Tracker{}, tr)
}
