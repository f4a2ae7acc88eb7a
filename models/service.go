package models

import "time"

// Service is a bookable offering. Duration drives slot merging: a service
// longer than one base slot needs consecutive free slots merged together.
type Service struct {
	ID              string    `bson:"id" json:"id"`
	TenantID        string    `bson:"tenantId" json:"tenantId"`
	Name            string    `bson:"name" json:"name"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	SpecialistIDs   []string  `bson:"specialistIds,omitempty" json:"specialistIds,omitempty"`
	IsActive        bool      `bson:"isActive" json:"isActive"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Duration returns the service length.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// OfferedBy reports whether the service is linked to the given specialist.
func (s *Service) OfferedBy(specialistID string) bool {
	for _, id := range s.SpecialistIDs {
		if id == specialistID {
			return true
		}
	}
	return false
}
