package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FitnessLevel is a coarse self-assessment used by trainers when planning.
type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

// ClientProfile extends a client User with trainer assignment, the active
// plan window and the gamification counters mutated by workout completion
// and the weekly penalty job.
type ClientProfile struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"userId" json:"userId"` // Unique
	TrainerID *primitive.ObjectID `bson:"trainerId,omitempty" json:"trainerId,omitempty"`

	// Active plan window, set by plan assignment.
	CurrentPlanID *primitive.ObjectID `bson:"currentPlanId,omitempty" json:"currentPlanId,omitempty"`
	PlanStartDate *time.Time          `bson:"planStartDate,omitempty" json:"planStartDate,omitempty"`
	PlanEndDate   *time.Time          `bson:"planEndDate,omitempty" json:"planEndDate,omitempty"`

	// Fitness attributes.
	FitnessGoal  string       `bson:"fitnessGoal,omitempty" json:"fitnessGoal,omitempty"`
	FitnessLevel FitnessLevel `bson:"fitnessLevel,omitempty" json:"fitnessLevel,omitempty"`
	HeightCm     float64      `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	WeightKg     float64      `bson:"weightKg,omitempty" json:"weightKg,omitempty"`

	// Gamification counters.
	CurrentStreak             int  `bson:"currentStreak" json:"currentStreak"`
	TotalWorkoutsCompleted    int  `bson:"totalWorkoutsCompleted" json:"totalWorkoutsCompleted"`
	ConsecutiveMissedWorkouts int  `bson:"consecutiveMissedWorkouts" json:"consecutiveMissedWorkouts"`
	IsPenaltyMode             bool `bson:"isPenaltyMode" json:"isPenaltyMode"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TrainerRef is a trainer reference that may or may not have been loaded.
// Callers switch on Resolved instead of duck-typing a maybe-populated field.
type TrainerRef struct {
	ID       primitive.ObjectID
	Resolved *TrainerProfile
}

// UnresolvedTrainerRef wraps a bare trainer profile ID.
func UnresolvedTrainerRef(id primitive.ObjectID) TrainerRef {
	return TrainerRef{ID: id}
}

// ResolvedTrainerRef wraps a loaded trainer profile.
func ResolvedTrainerRef(p *TrainerProfile) TrainerRef {
	return TrainerRef{ID: p.ID, Resolved: p}
}

// IsResolved reports whether the profile has been loaded.
func (r TrainerRef) IsResolved() bool {
	return r.Resolved != nil
}
