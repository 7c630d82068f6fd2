package service

import (
	"time"

	"github.com/ilumap/pqr-api/internal/models"
)

// DefaultDeadlineDays applies to any type outside the legal table.
const DefaultDeadlineDays = 10

var deadlineDays = map[models.PQRType]int{
	models.TypePetition:  5,
	models.TypeComplaint: 15,
	models.TypeClaim:     15,
	models.TypeReport:    3,
}

// DaysFor returns the legal response window in calendar days.
func DaysFor(t models.PQRType) int {
	if days, ok := deadlineDays[t]; ok {
		return days
	}
	return DefaultDeadlineDays
}

// DueAt adds days calendar days to submittedAt in loc and returns UTC.
func DueAt(submittedAt time.Time, days int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return submittedAt.In(loc).AddDate(0, 0, days).UTC()
}
