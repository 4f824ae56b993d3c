package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStatus captures the lifecycle of a trainer's subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// SubscriptionTier determines how many clients a trainer may manage.
type SubscriptionTier string

const (
	TierBasic SubscriptionTier = "basic"
	TierPro   SubscriptionTier = "pro"
	TierElite SubscriptionTier = "elite"
)

// MaxClientsForTier returns the client-capacity limit of a tier.
// Unknown tiers fall back to the basic limit.
func MaxClientsForTier(tier SubscriptionTier) int {
	switch tier {
	case TierPro:
		return 50
	case TierElite:
		return 200
	default:
		return 10
	}
}

// ValidTier reports whether the tier is one of the known set.
func ValidTier(tier SubscriptionTier) bool {
	return tier == TierBasic || tier == TierPro || tier == TierElite
}

// Subscription is embedded in TrainerProfile. ExpiresAt is checked lazily by
// the kill-switch guard and proactively by the nightly expiry sweep.
type Subscription struct {
	Status    SubscriptionStatus `bson:"status" json:"status"`
	Tier      SubscriptionTier   `bson:"tier" json:"tier"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
}

// IsHealthy reports whether the subscription allows client traffic right now.
func (s Subscription) IsHealthy(now time.Time) bool {
	return s.Status == SubscriptionActive && s.ExpiresAt.After(now)
}

// TrainerProfile extends a trainer User with subscription state and roster.
type TrainerProfile struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID   `bson:"userId" json:"userId"` // Unique
	Subscription    Subscription         `bson:"subscription" json:"subscription"`
	IsActive        bool                 `bson:"isActive" json:"isActive"`
	MaxClients      int                  `bson:"maxClients" json:"maxClients"`
	ClientIDs       []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`
	Bio             string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Specializations []string             `bson:"specializations,omitempty" json:"specializations,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasCapacity reports whether the trainer can take one more client.
func (t *TrainerProfile) HasCapacity() bool {
	return len(t.ClientIDs) < t.MaxClients
}
