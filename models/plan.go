package models

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// TravelPlan is the trip-level draft the schedule is derived from.
type TravelPlan struct {
	Location  string   `json:"location" bson:"location" validate:"required"`
	StartDate string   `json:"start_date" bson:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" bson:"end_date" validate:"required,datetime=2006-01-02"`
	StartTime string   `json:"start_time,omitempty" bson:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime   string   `json:"end_time,omitempty" bson:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Companion string   `json:"companion" bson:"companion"`
	Themes    []string `json:"themes" bson:"themes"`
	Latitude  float64  `json:"latitude" bson:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"longitude" bson:"longitude" validate:"gte=-180,lte=180"`
}

// Start returns the first day of the trip at midnight UTC.
func (p TravelPlan) Start() (time.Time, error) {
	return time.Parse(DateLayout, p.StartDate)
}

// End returns the last day of the trip at midnight UTC.
func (p TravelPlan) End() (time.Time, error) {
	return time.Parse(DateLayout, p.EndDate)
}

// StartAt is the start date combined with the start time-of-day.
func (p TravelPlan) StartAt() (time.Time, error) {
	return combine(p.StartDate, p.StartTime)
}

// EndAt is the end date combined with the end time-of-day.
func (p TravelPlan) EndAt() (time.Time, error) {
	return combine(p.EndDate, p.EndTime)
}

func combine(date, clock string) (time.Time, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	if clock == "" {
		return day, nil
	}
	c, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return day.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute), nil
}
