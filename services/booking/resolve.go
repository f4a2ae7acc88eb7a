package booking

import (
	"context"
	"errors"
	"sort"
	"time"

	timeslotRepo "schedly/database/repository/timeslot"
	"schedly/models"
	"schedly/services/scheduling"
)

// resolveRef expands a slot reference into the ordered list of concrete
// slots (persisted or virtual) it denotes, validating ownership and
// freshness along the way. Nested merged references are rejected.
func (e *DefaultEngine) resolveRef(ctx context.Context, sp *models.Specialist, ref models.SlotRef) ([]models.TimeSlot, error) {
	dayCache := map[string][]models.TimeSlot{}

	switch ref.Kind {
	case models.SlotRefPhysical:
		slot, err := e.resolvePhysical(ctx, sp, ref.ID)
		if err != nil {
			return nil, err
		}
		return []models.TimeSlot{*slot}, nil

	case models.SlotRefVirtual:
		slot, err := e.resolveVirtual(ctx, sp, ref, dayCache)
		if err != nil {
			return nil, err
		}
		return []models.TimeSlot{*slot}, nil

	case models.SlotRefMerged:
		slots := make([]models.TimeSlot, 0, len(ref.SlotIDs))
		for _, id := range ref.SlotIDs {
			sub, err := models.ParseSlotRef(id)
			if err != nil {
				return nil, models.NewValidation("merged slot constituent %q: %v", id, err)
			}
			switch sub.Kind {
			case models.SlotRefPhysical:
				slot, err := e.resolvePhysical(ctx, sp, sub.ID)
				if err != nil {
					return nil, err
				}
				slots = append(slots, *slot)
			case models.SlotRefVirtual:
				slot, err := e.resolveVirtual(ctx, sp, sub, dayCache)
				if err != nil {
					return nil, err
				}
				slots = append(slots, *slot)
			default:
				return nil, models.NewValidation("merged slot ids cannot nest merged constituents")
			}
		}
		if err := validateContiguous(slots); err != nil {
			return nil, err
		}
		return slots, nil

	default:
		return nil, models.NewValidation("unrecognized slot reference")
	}
}

func (e *DefaultEngine) resolvePhysical(ctx context.Context, sp *models.Specialist, id string) (*models.TimeSlot, error) {
	slot, err := e.Slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, timeslotRepo.ErrNotFound) {
			return nil, models.NewNotFound("time slot %s not found", id)
		}
		return nil, err
	}
	if slot.SpecialistID != sp.ID {
		return nil, models.NewValidation("time slot %s does not belong to specialist %s", id, sp.ID)
	}
	if !slot.Free() {
		return nil, models.NewConflict("time slot %s is not available", id)
	}
	return slot, nil
}

// resolveVirtual accepts a virtual reference only when its bounds match a
// candidate the working-hours template actually generates for that day.
func (e *DefaultEngine) resolveVirtual(ctx context.Context, sp *models.Specialist, ref models.SlotRef, dayCache map[string][]models.TimeSlot) (*models.TimeSlot, error) {
	dayKey := ref.Start.UTC().Format("2006-01-02")
	daySlots, ok := dayCache[dayKey]
	if !ok {
		from, to := scheduling.DayBounds(ref.Start)
		persisted, err := e.Slots.GetBySpecialistAndRange(ctx, sp.ID, from, to)
		if err != nil {
			return nil, err
		}
		daySlots, err = scheduling.BuildDaySlots(sp, ref.Start, persisted)
		if err != nil {
			return nil, err
		}
		dayCache[dayKey] = daySlots
	}

	for i := range daySlots {
		cand := &daySlots[i]
		if cand.Virtual && cand.StartTime.Equal(ref.Start) && cand.EndTime.Equal(ref.End) {
			return cand, nil
		}
	}
	return nil, models.NewConflict("requested window %s is no longer available", ref.String())
}

// validateContiguous enforces the merged-window shape: ascending, free,
// consecutive within the merge gap tolerance.
func validateContiguous(slots []models.TimeSlot) error {
	if len(slots) < 2 {
		return models.NewValidation("merged window needs at least two slots")
	}
	if !sort.SliceIsSorted(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	}) {
		return models.NewValidation("merged slot constituents must be ordered by start time")
	}
	for i := 1; i < len(slots); i++ {
		gap := slots[i].StartTime.Sub(slots[i-1].EndTime)
		if gap < 0 {
			return models.NewValidation("merged slot constituents overlap")
		}
		if gap > scheduling.MergeGapTolerance {
			return models.NewValidation("merged slot constituents are not consecutive")
		}
	}
	return nil
}

// windowSpan returns the overall bounds of the resolved slots.
func windowSpan(slots []models.TimeSlot) (time.Time, time.Time) {
	return slots[0].StartTime, slots[len(slots)-1].EndTime
}
