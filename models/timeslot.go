package models

import "time"

// TimeSlot represents one bookable time window for a specialist.
//
// A persisted slot is a durable row. A virtual slot is computed on read from
// the working-hours template and only materializes into a persisted row when
// a booking is created against it. A merged slot is a synthetic aggregate
// spanning several consecutive slots; it carries the ordered constituent ids
// and never exists as a row itself.
type TimeSlot struct {
	ID           string    `bson:"id" json:"id"`
	SpecialistID string    `bson:"specialistId" json:"specialistId"`
	StartTime    time.Time `bson:"startTime" json:"startTime"` // absolute instant, stored UTC
	EndTime      time.Time `bson:"endTime" json:"endTime"`     // absolute instant, stored UTC
	IsAvailable  bool      `bson:"isAvailable" json:"isAvailable"`
	IsBooked     bool      `bson:"isBooked" json:"isBooked"`

	// Virtual marks slots computed on demand, never loaded from the store.
	Virtual bool `bson:"-" json:"virtual,omitempty"`
	// MergedSlotIDs is set only on merged aggregates.
	MergedSlotIDs []string `bson:"-" json:"mergedSlotIds,omitempty"`
}

// Duration returns the slot length.
func (ts *TimeSlot) Duration() time.Duration {
	return ts.EndTime.Sub(ts.StartTime)
}

// Free reports whether the slot can accept a booking.
func (ts *TimeSlot) Free() bool {
	return ts.IsAvailable && !ts.IsBooked
}

// Overlaps reports whether two half-open intervals [start, end) intersect.
func (ts *TimeSlot) Overlaps(start, end time.Time) bool {
	return ts.StartTime.Before(end) && start.Before(ts.EndTime)
}
