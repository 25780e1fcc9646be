package usage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type is a metered resource dimension.
type Type string

const (
	TypeComputeHours Type = "compute_hours"
	TypeTeamSeats    Type = "team_seats"
	TypeDatasetCount Type = "dataset_count"
	TypeTrainingJobs Type = "training_jobs"
	TypeAPICalls     Type = "api_calls"
)

// ParseType converts a usage type string into a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeComputeHours, TypeTeamSeats, TypeDatasetCount, TypeTrainingJobs, TypeAPICalls:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUsageType, s)
	}
}

// Record is one metered consumption entry.
type Record struct {
	ID         uuid.UUID
	OrgID      *uuid.UUID
	UserID     uuid.UUID
	Type       Type
	Quantity   int64
	RecordedAt time.Time
}

// Item is one dimension of a usage summary. Limit below zero means
// unlimited.
type Item struct {
	Type  Type
	Used  int64
	Limit int64
}

// Summary is the current month's usage against the plan's limits.
type Summary struct {
	MonthStart time.Time
	Items      []Item
}

// monthStart truncates t to the first instant of its month in UTC.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
