package models

import "time"

const (
	EventScheduleUpdated    = "schedule_updated"
	EventGenerationStarted  = "generation_started"
	EventGenerationFinished = "generation_finished"
	EventSessionDeleted     = "session_deleted"
)

// ScheduleEvent is fanned out to everyone watching a planner session.
type ScheduleEvent struct {
	Type       string        `json:"type"`
	SessionID  string        `json:"session_id"`
	Days       []DaySchedule `json:"days,omitempty"`
	Generating bool          `json:"generating"`
	At         time.Time     `json:"at"`
}
