package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotRefKind tags the three slot identities a booking request may carry.
type SlotRefKind int

const (
	SlotRefPhysical SlotRefKind = iota
	SlotRefVirtual
	SlotRefMerged
)

const (
	virtualIDPrefix = "virtual_"
	mergedIDPrefix  = "merged_"
	mergedIDSep     = "+"
)

// SlotRef is the internal, tagged representation of a slot identity.
// The string forms (virtual_<startMs>_<endMs>, merged_<id>+<id>...) exist
// only at the external boundary; ParseSlotRef and String convert between
// the two.
type SlotRef struct {
	Kind    SlotRefKind
	ID      string    // physical id
	Start   time.Time // virtual bounds
	End     time.Time
	SlotIDs []string // ordered constituents of a merged window
}

// PhysicalRef references a persisted slot by id.
func PhysicalRef(id string) SlotRef {
	return SlotRef{Kind: SlotRefPhysical, ID: id}
}

// VirtualRef references an ephemeral slot by its bounds.
func VirtualRef(start, end time.Time) SlotRef {
	return SlotRef{Kind: SlotRefVirtual, Start: start.UTC(), End: end.UTC()}
}

// MergedRef references a merged window by its ordered constituent ids.
func MergedRef(slotIDs []string) SlotRef {
	return SlotRef{Kind: SlotRefMerged, SlotIDs: slotIDs}
}

// VirtualSlotID encodes the external id of a virtual slot.
func VirtualSlotID(start, end time.Time) string {
	return fmt.Sprintf("%s%d_%d", virtualIDPrefix, start.UnixMilli(), end.UnixMilli())
}

// MergedSlotID encodes the external id of a merged window.
func MergedSlotID(slotIDs []string) string {
	return mergedIDPrefix + strings.Join(slotIDs, mergedIDSep)
}

// ParseSlotRef decodes an external slot id into its tagged form.
func ParseSlotRef(s string) (SlotRef, error) {
	switch {
	case strings.HasPrefix(s, virtualIDPrefix):
		parts := strings.Split(strings.TrimPrefix(s, virtualIDPrefix), "_")
		if len(parts) != 2 {
			return SlotRef{}, fmt.Errorf("malformed virtual slot id %q", s)
		}
		startMs, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return SlotRef{}, fmt.Errorf("malformed virtual slot id %q: %w", s, err)
		}
		endMs, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return SlotRef{}, fmt.Errorf("malformed virtual slot id %q: %w", s, err)
		}
		start := time.UnixMilli(startMs).UTC()
		end := time.UnixMilli(endMs).UTC()
		if !end.After(start) {
			return SlotRef{}, fmt.Errorf("virtual slot id %q has end before start", s)
		}
		return VirtualRef(start, end), nil

	case strings.HasPrefix(s, mergedIDPrefix):
		ids := strings.Split(strings.TrimPrefix(s, mergedIDPrefix), mergedIDSep)
		if len(ids) < 2 {
			return SlotRef{}, fmt.Errorf("merged slot id %q needs at least two constituents", s)
		}
		for _, id := range ids {
			if id == "" || strings.HasPrefix(id, mergedIDPrefix) {
				return SlotRef{}, fmt.Errorf("merged slot id %q has invalid constituent %q", s, id)
			}
		}
		return MergedRef(ids), nil

	case s == "":
		return SlotRef{}, fmt.Errorf("empty slot id")

	default:
		return PhysicalRef(s), nil
	}
}

// String renders the external id form.
func (r SlotRef) String() string {
	switch r.Kind {
	case SlotRefVirtual:
		return VirtualSlotID(r.Start, r.End)
	case SlotRefMerged:
		return MergedSlotID(r.SlotIDs)
	default:
		return r.ID
	}
}
