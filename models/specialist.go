package models

import "time"

// BreakInterval is a within-day pause, wall-clock "HH:MM" strings in UTC.
type BreakInterval struct {
	StartTime string `bson:"startTime" json:"startTime"`
	EndTime   string `bson:"endTime" json:"endTime"`
}

// DaySchedule describes one weekday of the working-hours template.
type DaySchedule struct {
	IsWorking bool            `bson:"isWorking" json:"isWorking"`
	StartTime string          `bson:"startTime,omitempty" json:"startTime,omitempty"` // "HH:MM", UTC wall clock
	EndTime   string          `bson:"endTime,omitempty" json:"endTime,omitempty"`     // "HH:MM", UTC wall clock
	Breaks    []BreakInterval `bson:"breaks,omitempty" json:"breaks,omitempty"`
}

// WorkingHoursTemplate holds one entry per weekday, indexed by time.Weekday
// (Sunday = 0).
type WorkingHoursTemplate [7]DaySchedule

// ForDate resolves the template entry for the weekday of the given date.
func (t WorkingHoursTemplate) ForDate(date time.Time) DaySchedule {
	return t[int(date.Weekday())]
}

// Specialist is a bookable staff resource owned by a tenant.
type Specialist struct {
	ID                         string               `bson:"id" json:"id"`
	TenantID                   string               `bson:"tenantId" json:"tenantId"`
	Name                       string               `bson:"name" json:"name"`
	Template                   WorkingHoursTemplate `bson:"template" json:"template"`
	DefaultSlotDurationMinutes int                  `bson:"defaultSlotDurationMinutes" json:"defaultSlotDurationMinutes"`
	BufferMinutes              int                  `bson:"bufferMinutes" json:"bufferMinutes"`
	IsActive                   bool                 `bson:"isActive" json:"isActive"`
	CreatedAt                  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt                  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// SlotDuration returns the base slot length.
func (s *Specialist) SlotDuration() time.Duration {
	return time.Duration(s.DefaultSlotDurationMinutes) * time.Minute
}

// Buffer returns the gap inserted after every slot.
func (s *Specialist) Buffer() time.Duration {
	return time.Duration(s.BufferMinutes) * time.Minute
}
