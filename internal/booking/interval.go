package booking

import "time"

// Overlaps treats both ranges as half-open, so touching endpoints do not
// overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// FindConflict returns the first active booking in existing, other than
// excludeID, whose slot overlaps [start, end). Pass excludeID 0 to check
// against every booking.
func FindConflict(existing []Booking, start, end time.Time, excludeID int) *Booking {
	for i := range existing {
		b := &existing[i]
		if b.ID == excludeID && excludeID != 0 {
			continue
		}
		if !b.Status.Active() {
			continue
		}
		if Overlaps(b.StartTime, b.EndTime, start, end) {
			return b
		}
	}
	return nil
}
