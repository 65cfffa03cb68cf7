// Package codec converts between the day schedule and the flat itinerary
// shapes exchanged with the generation backend and the itinerary store.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"tripboard/logging"
	"tripboard/models"
	"tripboard/schedule"
)

// SlotLength is the synthetic visit length used for items without times.
const SlotLength = 2 * time.Hour

const (
	day        = 24 * time.Hour
	bucketBias = 12 * time.Hour
)

// DayIndex maps a timestamp to its day bucket relative to the trip start:
// floor((t - start + 12h) / 24h). The bias puts a time-of-day in the day it
// was meant for even when it drifts off a midnight boundary.
func DayIndex(t, start time.Time) int {
	return int(math.Floor(float64(t.Sub(start)+bucketBias) / float64(day)))
}

// ClampDayIndex limits idx to [0, dayCount-1] and reports whether it had to.
func ClampDayIndex(idx, dayCount int) (int, bool) {
	switch {
	case idx < 0:
		return 0, true
	case idx >= dayCount:
		return dayCount - 1, true
	}
	return idx, false
}

// ToGenerationRequest flattens every day's places into one draft. Places
// without explicit times get consecutive slots from the day's date at the
// trip's start time-of-day. Slots are two hours long unless a day holds more
// than fits in the 12h after that anchor, in which case they are shortened so
// every slot still buckets back onto its own day.
func ToGenerationRequest(days []models.DaySchedule, plan models.TravelPlan, modelName string) (models.GenerationRequest, error) {
	draft, err := draftFromPlan(plan)
	if err != nil {
		return models.GenerationRequest{}, err
	}
	clock := draft.StartAt.Sub(truncateDay(draft.StartAt))

	for _, d := range days {
		step := slotStep(len(d.PlaceList))
		for i, p := range d.PlaceList {
			start, end := p.StartTime, p.EndTime
			if start == nil || end == nil {
				s := d.Date.Add(clock + time.Duration(i)*step)
				e := s.Add(step)
				start, end = &s, &e
			}
			placeID := p.Info.PlaceID
			if placeID == 0 {
				placeID = p.PlaceID
			}
			draft.Items = append(draft.Items, models.ItineraryItem{
				ItemType:        models.KindPlace,
				PlaceID:         placeID,
				AccommodationID: 0,
				StartTime:       start,
				EndTime:         end,
				IsRequired:      p.IsRequired,
			})
		}
	}

	return models.GenerationRequest{BaseItinerary: draft, ModelName: modelName}, nil
}

// slotStep is the synthetic slot length for a day of n places; n slots never
// reach past bucketBias.
func slotStep(n int) time.Duration {
	if n <= 0 || time.Duration(n)*SlotLength <= bucketBias {
		return SlotLength
	}
	return bucketBias / time.Duration(n)
}

// FromGenerationResponse rebuilds a schedule from a generation response.
// Items are bucketed with DayIndex against start_at; places are appended in
// response order and accommodations fill their day's slot.
func FromGenerationResponse(resp models.GenerationResponse) schedule.Schedule {
	logger := logging.GetLogger()

	startDate := truncateDay(resp.StartAt)
	count := schedule.DeriveDayCount(startDate, truncateDay(resp.EndAt))
	s := schedule.New(startDate, count)

	for n, item := range resp.Items {
		idx := 0
		if item.Data.StartTime != nil {
			idx = DayIndex(*item.Data.StartTime, resp.StartAt)
		} else {
			logger.Warn().Int("item", n).Msg("Generated item has no start time; placing on first day")
		}
		if clamped, changed := ClampDayIndex(idx, count); changed {
			logger.Warn().
				Int("item", n).
				Int("day_index", idx).
				Int("day_count", count).
				Msg("Generated item falls outside the trip; clamping day index")
			idx = clamped
		}

		var err error
		switch item.ItemType {
		case models.KindPlace:
			s, err = s.InsertPlace(idx, schedule.End, placeFromData(item.Data))
		case models.KindAccommodation:
			s, err = s.SetAccommodation(idx, accommodationFromData(item.Data))
		default:
			logger.Warn().Str("item_type", string(item.ItemType)).Msg("Unknown generated item type; skipping")
			continue
		}
		if err != nil {
			logger.Debug().Err(err).Int("item", n).Msg("Generated item rejected by schedule")
		}
	}

	return s
}

// ToPersistRequest flattens places and accommodations into an
// itinerary-creation request, keeping whatever times the items already have.
func ToPersistRequest(days []models.DaySchedule, plan models.TravelPlan, name, userID string) (models.ItineraryCreate, error) {
	req, err := draftFromPlan(plan)
	if err != nil {
		return models.ItineraryCreate{}, err
	}
	req.Name = name
	req.UserID = userID

	for _, d := range days {
		dayIndex := d.Index
		for _, p := range d.PlaceList {
			info := p.Info.Clone()
			req.Items = append(req.Items, models.ItineraryItem{
				ItemType:        models.KindPlace,
				PlaceID:         p.PlaceID,
				AccommodationID: 0,
				StartTime:       p.StartTime,
				EndTime:         p.EndTime,
				IsRequired:      p.IsRequired,
				Day:             &dayIndex,
				Place:           &info,
			})
		}
		if a := d.Accommodation; a != nil {
			info := a.Info.Clone()
			req.Items = append(req.Items, models.ItineraryItem{
				ItemType:        models.KindAccommodation,
				PlaceID:         0,
				AccommodationID: a.AccommodationID,
				StartTime:       a.StartTime,
				EndTime:         a.EndTime,
				IsRequired:      a.IsRequired,
				Day:             &dayIndex,
				Accommodation:   &info,
			})
		}
	}

	return req, nil
}

// FromItinerary reopens a stored itinerary as a schedule. Items remember the
// day they were saved on; older items without it are bucketed by start time.
func FromItinerary(it models.Itinerary) schedule.Schedule {
	logger := logging.GetLogger()

	startDate := truncateDay(it.StartAt)
	count := schedule.DeriveDayCount(startDate, truncateDay(it.EndAt))
	s := schedule.New(startDate, count)

	for n, item := range it.Items {
		idx := 0
		switch {
		case item.Day != nil:
			idx = *item.Day
		case item.StartTime != nil:
			idx = DayIndex(*item.StartTime, it.StartAt)
		}
		idx, _ = ClampDayIndex(idx, count)

		var err error
		switch item.ItemType {
		case models.KindAccommodation:
			a := models.AccommodationItem{
				AccommodationID: item.AccommodationID,
				StartTime:       item.StartTime,
				EndTime:         item.EndTime,
				IsRequired:      item.IsRequired,
			}
			if item.Accommodation != nil {
				a.Info = item.Accommodation.Clone()
			}
			a.Info.AccommodationID = item.AccommodationID
			s, err = s.SetAccommodation(idx, a)
		default:
			p := models.PlaceItem{
				PlaceID:    item.PlaceID,
				StartTime:  item.StartTime,
				EndTime:    item.EndTime,
				IsRequired: item.IsRequired,
			}
			if item.Place != nil {
				p.Info = item.Place.Clone()
			}
			p.Info.PlaceID = item.PlaceID
			s, err = s.InsertPlace(idx, schedule.End, p)
		}
		if err != nil {
			logger.Debug().Err(err).Int("item", n).Str("itinerary_id", it.ItineraryID).Msg("Stored item rejected by schedule")
		}
	}

	return s
}

func draftFromPlan(plan models.TravelPlan) (models.ItineraryCreate, error) {
	startAt, err := plan.StartAt()
	if err != nil {
		return models.ItineraryCreate{}, fmt.Errorf("trip start: %w", err)
	}
	endAt, err := plan.EndAt()
	if err != nil {
		return models.ItineraryCreate{}, fmt.Errorf("trip end: %w", err)
	}
	return models.ItineraryCreate{
		Relation: plan.Companion,
		StartAt:  startAt,
		EndAt:    endAt,
		Location: plan.Location,
		Theme:    append([]string(nil), plan.Themes...),
		Items:    []models.ItineraryItem{},
	}, nil
}

func placeFromData(data models.ItemData) models.PlaceItem {
	var info models.PlaceInfo
	if len(data.Info) > 0 {
		if err := json.Unmarshal(data.Info, &info); err != nil {
			logging.GetLogger().Warn().Err(err).Int64("place_id", data.PlaceID).Msg("Unreadable place info in generated item")
		}
	}
	if info.PlaceID == 0 {
		info.PlaceID = data.PlaceID
	}
	if len(info.Images) == 0 {
		info.Images = ParseImageList(info.ImageURL)
	}
	return models.PlaceItem{
		PlaceID:    info.PlaceID,
		StartTime:  data.StartTime,
		EndTime:    data.EndTime,
		IsRequired: data.IsRequired,
		Info:       info,
	}
}

func accommodationFromData(data models.ItemData) models.AccommodationItem {
	var info models.Accommodation
	if len(data.Info) > 0 {
		if err := json.Unmarshal(data.Info, &info); err != nil {
			logging.GetLogger().Warn().Err(err).Int64("accommodation_id", data.AccommodationID).Msg("Unreadable accommodation info in generated item")
		}
	}
	if info.AccommodationID == 0 {
		info.AccommodationID = data.AccommodationID
	}
	if len(info.Images) == 0 {
		info.Images = ParseImageList(info.ImageURL)
	}
	return models.AccommodationItem{
		AccommodationID: info.AccommodationID,
		StartTime:       data.StartTime,
		EndTime:         data.EndTime,
		IsRequired:      data.IsRequired,
		Info:            info,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
