package scheduling

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	serviceRepo "schedly/database/repository/service"
	specialistRepo "schedly/database/repository/specialist"
	timeslotRepo "schedly/database/repository/timeslot"
	"schedly/models"
)

// SlotService exposes the read-side slot computations.
type SlotService interface {
	GenerateSlots(ctx context.Context, specialistID string, date time.Time) ([]models.TimeSlot, error)
	FindAvailable(ctx context.Context, specialistID, serviceID string, date time.Time) ([]models.TimeSlot, error)
}

// DefaultSlotService is the production implementation.
type DefaultSlotService struct {
	Specialists specialistRepo.SpecialistRepository
	Services    serviceRepo.ServiceRepository
	Slots       timeslotRepo.TimeSlotRepository
	// Cache holds computed day sequences; nil disables caching.
	Cache  SlotCache
	Logger *zap.Logger
}

// DayBounds returns the UTC midnight bounds of the date's day.
func DayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// GenerateSlots produces the full ordered slot sequence for one day,
// persisted and virtual combined.
func (s *DefaultSlotService) GenerateSlots(ctx context.Context, specialistID string, date time.Time) ([]models.TimeSlot, error) {
	sp, err := s.Specialists.GetByID(ctx, specialistID)
	if err != nil {
		if errors.Is(err, specialistRepo.ErrNotFound) {
			return nil, models.NewNotFound("specialist %s not found", specialistID)
		}
		return nil, err
	}
	if !sp.IsActive {
		return nil, models.NewNotFound("specialist %s is not active", specialistID)
	}

	from, to := DayBounds(date)
	if s.Cache != nil {
		if cached, ok := s.Cache.GetDay(ctx, specialistID, from); ok {
			return cached, nil
		}
	}

	persisted, err := s.Slots.GetBySpecialistAndRange(ctx, specialistID, from, to)
	if err != nil {
		return nil, err
	}

	slots, err := BuildDaySlots(sp, date, persisted)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.SetDay(ctx, specialistID, from, slots)
	}

	s.Logger.Debug("generated day slots",
		zap.String("specialistId", specialistID),
		zap.String("date", from.Format("2006-01-02")),
		zap.Int("persisted", len(persisted)),
		zap.Int("total", len(slots)))
	return slots, nil
}

// FindAvailable returns the bookable windows for the day. When a service is
// given and its duration exceeds the base slot, consecutive free slots are
// merged into windows long enough to hold it.
func (s *DefaultSlotService) FindAvailable(ctx context.Context, specialistID, serviceID string, date time.Time) ([]models.TimeSlot, error) {
	slots, err := s.GenerateSlots(ctx, specialistID, date)
	if err != nil {
		return nil, err
	}
	if serviceID == "" {
		return slots, nil
	}

	svc, err := s.Services.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrNotFound) {
			return nil, models.NewNotFound("service %s not found", serviceID)
		}
		return nil, err
	}
	if !svc.OfferedBy(specialistID) {
		return nil, models.NewValidation("service %s is not offered by specialist %s", serviceID, specialistID)
	}
	if svc.DurationMinutes <= 0 {
		return nil, models.NewValidation("service %s has non-positive duration", serviceID)
	}

	return MergeForDuration(slots, svc.Duration()), nil
}
