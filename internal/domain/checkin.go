package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckInStatus is set by the trainer when reviewing a gym visit.
type CheckInStatus string

const (
	CheckInPending  CheckInStatus = "pending"
	CheckInApproved CheckInStatus = "approved"
	CheckInRejected CheckInStatus = "rejected"
)

// CheckIn is a client-submitted gym visit. The photo itself lives in object
// storage; only the key is stored here. CheckInDate is normalized to UTC
// midnight and at most one check-in exists per (clientId, checkInDate).
type CheckIn struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Denormalized for trainer queries

	CheckInDate    time.Time `bson:"checkInDate" json:"checkInDate"`
	PhotoObjectKey string    `bson:"photoObjectKey" json:"-"`
	Latitude       float64   `bson:"latitude" json:"latitude"`
	Longitude      float64   `bson:"longitude" json:"longitude"`

	Status         CheckInStatus `bson:"status" json:"status"`
	TrainerComment string        `bson:"trainerComment,omitempty" json:"trainerComment,omitempty"`
	VerifiedAt     *time.Time    `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
