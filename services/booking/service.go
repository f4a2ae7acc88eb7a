package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	serviceRepo "schedly/database/repository/service"
	specialistRepo "schedly/database/repository/specialist"
	timeslotRepo "schedly/database/repository/timeslot"
	"schedly/models"
	"schedly/services/events"
	"schedly/services/scheduling"
	"schedly/utils"
)

// CreateBooking validates the request, materializes virtual slots,
// atomically occupies every constituent slot and persists the booking.
// Reminder scheduling runs best-effort afterwards; its failure never rolls
// the booking back.
func (e *DefaultEngine) CreateBooking(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	if req.ClientName == "" {
		return nil, models.NewValidation("client name is required")
	}
	for _, r := range req.Reminders {
		if r.TimeValue <= 0 {
			return nil, models.NewValidation("reminder time value must be positive")
		}
		switch r.TimeUnit {
		case models.UnitMinutes, models.UnitHours, models.UnitDays:
		default:
			return nil, models.NewValidation("unknown reminder unit %q", r.TimeUnit)
		}
	}

	sp, err := e.loadActiveSpecialist(ctx, req.SpecialistID)
	if err != nil {
		return nil, err
	}

	svc, err := e.Services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrNotFound) {
			return nil, models.NewNotFound("service %s not found", req.ServiceID)
		}
		return nil, err
	}
	if !svc.OfferedBy(sp.ID) {
		return nil, models.NewValidation("service %s is not offered by specialist %s", svc.ID, sp.ID)
	}
	if svc.DurationMinutes <= 0 {
		return nil, models.NewValidation("service %s has non-positive duration", svc.ID)
	}

	ref, err := models.ParseSlotRef(req.SlotID)
	if err != nil {
		return nil, models.NewValidation("%v", err)
	}

	resolved, err := e.resolveRef(ctx, sp, ref)
	if err != nil {
		return nil, err
	}

	now := e.Clock.Now()
	start, end := windowSpan(resolved)
	if !start.After(now) {
		return nil, models.NewValidation("cannot book a slot in the past")
	}
	if end.Sub(start) < svc.Duration() {
		return nil, models.NewValidation("window of %s is shorter than the service duration %s",
			end.Sub(start), svc.Duration())
	}

	// Materialize virtual constituents. The upsert is idempotent, so a
	// window another request already persisted resolves to the same row.
	slotIDs := make([]string, len(resolved))
	for i := range resolved {
		if !resolved[i].Virtual {
			slotIDs[i] = resolved[i].ID
			continue
		}
		persisted, err := e.Slots.Materialize(ctx, &models.TimeSlot{
			ID:           uuid.New().String(),
			SpecialistID: sp.ID,
			StartTime:    resolved[i].StartTime,
			EndTime:      resolved[i].EndTime,
			IsAvailable:  true,
		})
		if err != nil {
			return nil, err
		}
		slotIDs[i] = persisted.ID
	}

	// Guarded occupancy: each write flips isBooked only if still unbooked.
	// On a lost race the already-marked constituents are released before
	// reporting the conflict.
	marked := make([]string, 0, len(slotIDs))
	for _, id := range slotIDs {
		if err := e.Slots.MarkBooked(ctx, id); err != nil {
			e.releaseSlots(ctx, marked)
			if errors.Is(err, timeslotRepo.ErrSlotTaken) {
				return nil, models.NewConflict("time slot %s was booked by someone else", id)
			}
			return nil, err
		}
		marked = append(marked, id)
	}

	b := &models.Booking{
		ID:                     uuid.New().String(),
		SpecialistID:           sp.ID,
		ServiceID:              svc.ID,
		TimeSlotID:             slotIDs[0],
		SlotStart:              start,
		SlotEnd:                end,
		ClientName:             req.ClientName,
		ClientPhone:            req.ClientPhone,
		ClientEmail:            req.ClientEmail,
		Source:                 req.Source,
		ClientUTCOffsetMinutes: req.ClientUTCOffsetMinutes,
		ClientData:             req.ClientData,
		Status:                 models.StatusPending,
		Reminders:              req.Reminders,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if len(slotIDs) > 1 {
		b.MergedSlotIDs = slotIDs
	}

	if e.Policy.RequireConfirmation || !e.Policy.AutoConfirm {
		code := utils.GenerateConfirmationCode()
		expires := now.Add(e.Policy.CodeTTL)
		b.ConfirmationCode = &code
		b.ConfirmationCodeExpiresAt = &expires
	} else {
		confirmedAt := now
		b.Status = models.StatusConfirmed
		b.ConfirmedAt = &confirmedAt
	}

	if err := e.Bookings.Insert(ctx, b); err != nil {
		e.releaseSlots(ctx, marked)
		return nil, err
	}

	e.invalidateDayCache(ctx, sp.ID, start)

	e.Logger.Info("booking created",
		zap.String("bookingId", b.ID),
		zap.String("specialistId", sp.ID),
		zap.Time("slotStart", start),
		zap.Int("slots", len(slotIDs)))

	// Best-effort side effects; the booking stands regardless.
	e.Reminders.ScheduleForBooking(ctx, b)
	e.Bus.Publish(ctx, events.Event{Type: events.BookingCreated, Booking: *b, At: now})

	return b, nil
}

func (e *DefaultEngine) loadActiveSpecialist(ctx context.Context, id string) (*models.Specialist, error) {
	sp, err := e.Specialists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, specialistRepo.ErrNotFound) {
			return nil, models.NewNotFound("specialist %s not found", id)
		}
		return nil, err
	}
	if !sp.IsActive {
		return nil, models.NewNotFound("specialist %s is not active", id)
	}
	return sp, nil
}

// invalidateDayCache drops the cached day sequence whose occupancy just
// changed. Cache misses only cost a recompute, so failures are absorbed by
// the cache itself.
func (e *DefaultEngine) invalidateDayCache(ctx context.Context, specialistID string, at time.Time) {
	if e.SlotCache == nil {
		return
	}
	day, _ := scheduling.DayBounds(at)
	e.SlotCache.InvalidateDay(ctx, specialistID, day)
}

func (e *DefaultEngine) releaseSlots(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := e.Slots.Release(ctx, id); err != nil {
			e.Logger.Error("failed to release slot",
				zap.String("slotId", id), zap.Error(err))
		}
	}
}

// ListForDay returns the specialist's bookings whose slot starts on the
// given day, ordered by start time.
func (e *DefaultEngine) ListForDay(ctx context.Context, specialistID string, date time.Time) ([]models.Booking, error) {
	if _, err := e.loadActiveSpecialist(ctx, specialistID); err != nil {
		return nil, err
	}
	from, to := scheduling.DayBounds(date)
	return e.Bookings.ListBySpecialistAndRange(ctx, specialistID, from, to)
}
