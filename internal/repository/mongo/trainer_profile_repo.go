package mongo

import (
	"context"
	"errors"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trainerProfileCollectionName = "trainer_profiles"

// mongoTrainerProfileRepository implements repository.TrainerProfileRepository.
type mongoTrainerProfileRepository struct {
	collection *mongo.Collection
}

func NewMongoTrainerProfileRepository(db *mongo.Database) repository.TrainerProfileRepository {
	return &mongoTrainerProfileRepository{
		collection: db.Collection(trainerProfileCollectionName),
	}
}

func (r *mongoTrainerProfileRepository) Create(ctx context.Context, profile *domain.TrainerProfile) (primitive.ObjectID, error) {
	if profile.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("trainer profile requires a user ID")
	}

	profile.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return profile.ID, nil
}

func (r *mongoTrainerProfileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerProfile, error) {
	var profile domain.TrainerProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *mongoTrainerProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	var profile domain.TrainerProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *mongoTrainerProfileRepository) UpdateDetails(ctx context.Context, id primitive.ObjectID, bio string, specializations []string) error {
	update := bson.M{
		"$set": bson.M{
			"bio":             bio,
			"specializations": specializations,
			"updatedAt":       time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateSubscription replaces the embedded subscription along with the
// derived capacity and activity flags.
func (r *mongoTrainerProfileRepository) UpdateSubscription(ctx context.Context, id primitive.ObjectID, sub domain.Subscription, maxClients int, isActive bool) error {
	update := bson.M{
		"$set": bson.M{
			"subscription": sub,
			"maxClients":   maxClients,
			"isActive":     isActive,
			"updatedAt":    time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddClientID adds a client to the trainer's roster. $addToSet keeps the
// roster duplicate-free under repeated calls.
func (r *mongoTrainerProfileRepository) AddClientID(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"clientIds": clientID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": trainerID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTrainerProfileRepository) RemoveClientID(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"clientIds": clientID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": trainerID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SuspendIfExpired flips a single expired trainer to suspended. The filter
// requires status=active so concurrent guard invocations flip at most once.
func (r *mongoTrainerProfileRepository) SuspendIfExpired(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	filter := bson.M{
		"_id":                    id,
		"subscription.status":    domain.SubscriptionActive,
		"subscription.expiresAt": bson.M{"$lt": now.UTC()},
	}
	update := bson.M{
		"$set": bson.M{
			"subscription.status": domain.SubscriptionSuspended,
			"isActive":            false,
			"updatedAt":           now.UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// SuspendAllExpired is the nightly sweep: one UpdateMany, no per-document loop.
func (r *mongoTrainerProfileRepository) SuspendAllExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"subscription.status":    domain.SubscriptionActive,
		"subscription.expiresAt": bson.M{"$lt": now.UTC()},
	}
	update := bson.M{
		"$set": bson.M{
			"subscription.status": domain.SubscriptionSuspended,
			"isActive":            false,
			"updatedAt":           now.UTC(),
		},
	}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoTrainerProfileRepository) ListAll(ctx context.Context) ([]domain.TrainerProfile, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []domain.TrainerProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// EnsureTrainerProfileIndexes creates indexes for the trainer_profiles collection.
func EnsureTrainerProfileIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// The expiry sweep filters on these two together.
			Keys:    bson.D{{Key: "subscription.status", Value: 1}, {Key: "subscription.expiresAt", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
