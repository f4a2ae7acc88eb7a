package scheduling

import (
	"sort"
	"time"

	"schedly/models"
)

// MergeGapTolerance is the maximum end-to-next-start gap two slots may have
// and still be treated as consecutive.
const MergeGapTolerance = time.Minute

// MergeForDuration turns the sorted day sequence into bookable windows for a
// service of the required duration.
//
// Free slots already long enough pass through unchanged. Shorter free slots
// are merged forward across consecutive free neighbours until the required
// duration is reached; a slot consumed by a merge never starts another merge,
// so merged windows never overlap. Runs that cannot reach the duration emit
// nothing. Booked or unavailable slots are never merged and pass through so
// callers can render full-day occupancy.
func MergeForDuration(slots []models.TimeSlot, required time.Duration) []models.TimeSlot {
	if required <= 0 {
		return slots
	}

	out := make([]models.TimeSlot, 0, len(slots))
	consumed := make([]bool, len(slots))

	for i, slot := range slots {
		if consumed[i] {
			continue
		}

		if !slot.Free() {
			out = append(out, slot)
			continue
		}

		if slot.Duration() >= required {
			out = append(out, slot)
			continue
		}

		run := []int{i}
		total := slot.Duration()
		last := slot

		for j := i + 1; j < len(slots) && total < required; j++ {
			next := slots[j]
			if consumed[j] || !next.Free() {
				break
			}
			if next.StartTime.Sub(last.EndTime) > MergeGapTolerance {
				break
			}
			run = append(run, j)
			total += next.Duration()
			last = next
		}

		if total < required {
			continue
		}

		ids := make([]string, len(run))
		for k, idx := range run {
			ids[k] = slots[idx].ID
			consumed[idx] = true
		}

		out = append(out, models.TimeSlot{
			ID:            models.MergedSlotID(ids),
			SpecialistID:  slot.SpecialistID,
			StartTime:     slot.StartTime,
			EndTime:       last.EndTime,
			IsAvailable:   true,
			MergedSlotIDs: ids,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
