package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PenaltyType classifies a client's week of workouts.
type PenaltyType string

const (
	PenaltyNone    PenaltyType = "none"
	PenaltyWarning PenaltyType = "warning"
	PenaltyMode    PenaltyType = "penalty_mode"
)

// ClassifyMissedWorkouts maps a weekly missed count to a penalty type.
// More than two misses triggers penalty mode; one or two is a warning.
func ClassifyMissedWorkouts(missed int) PenaltyType {
	switch {
	case missed > 2:
		return PenaltyMode
	case missed > 0:
		return PenaltyWarning
	default:
		return PenaltyNone
	}
}

// PenaltyRecord is the weekly snapshot produced by the penalty sweep,
// upserted on (clientId, weekStartDate).
type PenaltyRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID      primitive.ObjectID `bson:"clientId" json:"clientId"`
	WeekStartDate time.Time          `bson:"weekStartDate" json:"weekStartDate"` // UTC Monday midnight

	ScheduledCount int         `bson:"scheduledCount" json:"scheduledCount"`
	MissedCount    int         `bson:"missedCount" json:"missedCount"`
	CompletionRate float64     `bson:"completionRate" json:"completionRate"`
	PenaltyType    PenaltyType `bson:"penaltyType" json:"penaltyType"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
