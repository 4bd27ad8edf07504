// Package schedule validates trainer schedule slots against double-booking.
package schedule

import (
	"institute-admin/internal/models"

	"gorm.io/gorm"
)

// Overlaps reports whether two half-open [start, end) time ranges intersect.
// Times are HH:MM strings, which compare correctly lexicographically.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

// FindConflict returns the first non-cancelled schedule for the same trainer
// on the same date that overlaps the candidate slot, or nil when the slot is
// free. The candidate's own ID is excluded so updates don't conflict with
// themselves.
func FindConflict(db *gorm.DB, candidate *models.Schedule) (*models.Schedule, error) {
	var existing []models.Schedule
	q := db.Where("trainer_id = ? AND date = ? AND status <> ?",
		candidate.TrainerID, candidate.Date, models.ScheduleStatusCancelled)
	if candidate.ID != 0 {
		q = q.Where("id <> ?", candidate.ID)
	}
	if err := q.Find(&existing).Error; err != nil {
		return nil, err
	}

	for i := range existing {
		if Overlaps(candidate.StartTime, candidate.EndTime, existing[i].StartTime, existing[i].EndTime) {
			return &existing[i], nil
		}
	}
	return nil, nil
}
