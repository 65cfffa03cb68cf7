package schedule

import (
	"errors"
	"fmt"
)

// Reason names why a mutation was rejected.
type Reason string

const (
	ReasonDuplicatePlace       Reason = "DUPLICATE_PLACE"
	ReasonLastDayAccommodation Reason = "LAST_DAY_NO_ACCOMMODATION"
	ReasonDayOutOfRange        Reason = "DAY_OUT_OF_RANGE"
	ReasonItemOutOfRange       Reason = "ITEM_OUT_OF_RANGE"
	ReasonInvalidItem          Reason = "INVALID_ITEM"
)

// RejectedError is returned when a mutation would break a placement rule.
// The schedule returned alongside it is always the unchanged input.
type RejectedError struct {
	Reason Reason `json:"reason"`
	Day    int    `json:"day"`
	ID     int64  `json:"id,omitempty"`
}

func (e *RejectedError) Error() string {
	switch e.Reason {
	case ReasonDuplicatePlace:
		return fmt.Sprintf("place %d already scheduled on day %d", e.ID, e.Day)
	case ReasonLastDayAccommodation:
		return fmt.Sprintf("day %d is the last day and cannot hold an accommodation", e.Day)
	case ReasonDayOutOfRange:
		return fmt.Sprintf("day %d out of range", e.Day)
	case ReasonItemOutOfRange:
		return fmt.Sprintf("item %d out of range on day %d", e.ID, e.Day)
	}
	return string(e.Reason)
}

// Is matches any RejectedError with the same reason.
func (e *RejectedError) Is(target error) bool {
	t, ok := target.(*RejectedError)
	return ok && t.Reason == e.Reason
}

var (
	ErrDuplicatePlace       = &RejectedError{Reason: ReasonDuplicatePlace}
	ErrLastDayAccommodation = &RejectedError{Reason: ReasonLastDayAccommodation}
	ErrDayOutOfRange        = &RejectedError{Reason: ReasonDayOutOfRange}
	ErrItemOutOfRange       = &RejectedError{Reason: ReasonItemOutOfRange}
	ErrInvalidItem          = &RejectedError{Reason: ReasonInvalidItem}
)

// ReasonOf extracts the rejection reason from err.
func ReasonOf(err error) (Reason, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
