package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"schedly/models"
)

// resolveWallClock anchors an "HH:MM" template string on the given date, in UTC.
func resolveWallClock(date time.Time, hhmm string) (time.Time, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("malformed wall-clock time %q", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("malformed wall-clock time %q", hhmm)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("malformed wall-clock time %q", hhmm)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC), nil
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// BuildDaySlots produces the ordered slot sequence for one specialist and one
// day: virtual candidates walked from the working-hours template, excluding
// breaks and windows already covered by persisted slots, plus every persisted
// slot as-is. Past slots are not filtered here; only booking rejects the past.
func BuildDaySlots(sp *models.Specialist, date time.Time, persisted []models.TimeSlot) ([]models.TimeSlot, error) {
	day := sp.Template.ForDate(date)
	if !day.IsWorking {
		return nil, nil
	}

	if sp.DefaultSlotDurationMinutes <= 0 {
		return nil, models.NewValidation("specialist %s has non-positive slot duration", sp.ID)
	}

	dayStart, err := resolveWallClock(date, day.StartTime)
	if err != nil {
		return nil, models.NewValidation("specialist %s: %v", sp.ID, err)
	}
	dayEnd, err := resolveWallClock(date, day.EndTime)
	if err != nil {
		return nil, models.NewValidation("specialist %s: %v", sp.ID, err)
	}
	if !dayEnd.After(dayStart) {
		return nil, models.NewValidation("specialist %s: start %s is not before end %s", sp.ID, day.StartTime, day.EndTime)
	}

	type interval struct{ start, end time.Time }
	var breaks []interval
	for _, br := range day.Breaks {
		bs, err := resolveWallClock(date, br.StartTime)
		if err != nil {
			return nil, models.NewValidation("specialist %s break: %v", sp.ID, err)
		}
		be, err := resolveWallClock(date, br.EndTime)
		if err != nil {
			return nil, models.NewValidation("specialist %s break: %v", sp.ID, err)
		}
		breaks = append(breaks, interval{bs, be})
	}

	slotDur := sp.SlotDuration()
	buffer := sp.Buffer()

	slots := make([]models.TimeSlot, 0, len(persisted))
	slots = append(slots, persisted...)

	for cur := dayStart; !cur.Add(slotDur).After(dayEnd); cur = cur.Add(slotDur + buffer) {
		candStart := cur
		candEnd := cur.Add(slotDur)

		blocked := false
		for _, br := range breaks {
			if overlaps(candStart, candEnd, br.start, br.end) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		// Persisted slots own their window; never duplicate them as virtual.
		for _, ps := range persisted {
			if ps.Overlaps(candStart, candEnd) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		slots = append(slots, models.TimeSlot{
			ID:           models.VirtualSlotID(candStart, candEnd),
			SpecialistID: sp.ID,
			StartTime:    candStart,
			EndTime:      candEnd,
			IsAvailable:  true,
			Virtual:      true,
		})
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
	return slots, nil
}
