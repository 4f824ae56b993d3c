package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletedExercise records what the client actually did for one exercise.
type CompletedExercise struct {
	Name     string  `bson:"name" json:"name"`
	Sets     int     `bson:"sets" json:"sets"`
	Reps     string  `bson:"reps" json:"reps"`
	WeightKg float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	Notes    string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutLog is one client's workout for one calendar day, materialized from
// a WeeklyPlan at assignment time. WorkoutDate is normalized to UTC midnight;
// at most one log exists per (clientId, workoutDate), enforced by a unique
// compound index.
type WorkoutLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`

	WorkoutDate time.Time `bson:"workoutDate" json:"workoutDate"`
	DayOfWeek   int       `bson:"dayOfWeek" json:"dayOfWeek"` // 1 (Monday) .. 7 (Sunday)
	Title       string    `bson:"title" json:"title"`

	PlannedExercises   []PlannedExercise   `bson:"plannedExercises" json:"plannedExercises"`
	CompletedExercises []CompletedExercise `bson:"completedExercises,omitempty" json:"completedExercises,omitempty"`

	IsCompleted bool       `bson:"isCompleted" json:"isCompleted"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	IsMissed    bool       `bson:"isMissed" json:"isMissed"`
	ClientNotes string     `bson:"clientNotes,omitempty" json:"clientNotes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
