package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlannedExercise is a single exercise prescription within a plan day.
type PlannedExercise struct {
	Name  string `bson:"name" json:"name"`
	Sets  int    `bson:"sets" json:"sets"`
	Reps  string `bson:"reps" json:"reps"` // e.g. "8-12" or "AMRAP"
	Rest  string `bson:"rest,omitempty" json:"rest,omitempty"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// PlanDay describes the workout for one weekday of a WeeklyPlan.
// DayOfWeek is Monday-first: 1 (Monday) .. 7 (Sunday).
type PlanDay struct {
	DayOfWeek int               `bson:"dayOfWeek" json:"dayOfWeek"`
	Title     string            `bson:"title" json:"title"` // e.g. "Upper Body", "Rest"
	Exercises []PlannedExercise `bson:"exercises,omitempty" json:"exercises,omitempty"`
}

// WeeklyPlan is a trainer-owned template of up to 7 workout days.
// IsTemplate distinguishes reusable templates; AssignedClientIDs tracks the
// fan-out of assignments (set semantics, maintained with $addToSet).
type WeeklyPlan struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	TrainerID         primitive.ObjectID   `bson:"trainerId" json:"trainerId"`
	Name              string               `bson:"name" json:"name"`
	Description       string               `bson:"description,omitempty" json:"description,omitempty"`
	IsTemplate        bool                 `bson:"isTemplate" json:"isTemplate"`
	Workouts          []PlanDay            `bson:"workouts" json:"workouts"`
	AssignedClientIDs []primitive.ObjectID `bson:"assignedClientIds,omitempty" json:"assignedClientIds,omitempty"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// DayFor returns the plan entry for a Monday-first weekday (1..7),
// or nil when the plan defines nothing for that day.
func (p *WeeklyPlan) DayFor(dayOfWeek int) *PlanDay {
	for i := range p.Workouts {
		if p.Workouts[i].DayOfWeek == dayOfWeek {
			return &p.Workouts[i]
		}
	}
	return nil
}
