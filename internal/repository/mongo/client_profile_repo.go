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

const clientProfileCollectionName = "client_profiles"

// mongoClientProfileRepository implements repository.ClientProfileRepository.
type mongoClientProfileRepository struct {
	collection *mongo.Collection
}

func NewMongoClientProfileRepository(db *mongo.Database) repository.ClientProfileRepository {
	return &mongoClientProfileRepository{
		collection: db.Collection(clientProfileCollectionName),
	}
}

func (r *mongoClientProfileRepository) Create(ctx context.Context, profile *domain.ClientProfile) (primitive.ObjectID, error) {
	if profile.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("client profile requires a user ID")
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

func (r *mongoClientProfileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientProfile, error) {
	var profile domain.ClientProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *mongoClientProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.ClientProfile, error) {
	var profile domain.ClientProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *mongoClientProfileRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ClientProfile, error) {
	if len(ids) == 0 {
		return []domain.ClientProfile{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []domain.ClientProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *mongoClientProfileRepository) UpdateAttributes(ctx context.Context, id primitive.ObjectID, goal string, level domain.FitnessLevel, heightCm, weightKg float64) error {
	update := bson.M{
		"$set": bson.M{
			"fitnessGoal":  goal,
			"fitnessLevel": level,
			"heightCm":     heightCm,
			"weightKg":     weightKg,
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

func (r *mongoClientProfileRepository) SetTrainer(ctx context.Context, id, trainerID primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"trainerId": trainerID,
			"updatedAt": time.Now().UTC(),
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

// ClearTrainer detaches the client from their trainer and drops the active
// plan pointers, since the plan belonged to that trainer.
func (r *mongoClientProfileRepository) ClearTrainer(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$unset": bson.M{
			"trainerId":     "",
			"currentPlanId": "",
			"planStartDate": "",
			"planEndDate":   "",
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
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

func (r *mongoClientProfileRepository) SetActivePlan(ctx context.Context, id, planID primitive.ObjectID, start, end time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"currentPlanId": planID,
			"planStartDate": start.UTC(),
			"planEndDate":   end.UTC(),
			"updatedAt":     time.Now().UTC(),
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

// RecordCompletion bumps streak/total and clears the consecutive-missed
// counter in one update, so a torn write cannot leave the counters split.
func (r *mongoClientProfileRepository) RecordCompletion(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{
			"currentStreak":          1,
			"totalWorkoutsCompleted": 1,
		},
		"$set": bson.M{
			"consecutiveMissedWorkouts": 0,
			"updatedAt":                 time.Now().UTC(),
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

func (r *mongoClientProfileRepository) ApplyPenaltyOutcome(ctx context.Context, id primitive.ObjectID, penalty bool, missedDelta int, resetStreak bool) error {
	set := bson.M{
		"isPenaltyMode": penalty,
		"updatedAt":     time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if penalty {
		update["$inc"] = bson.M{"consecutiveMissedWorkouts": missedDelta}
	} else {
		set["consecutiveMissedWorkouts"] = 0
	}
	if resetStreak {
		set["currentStreak"] = 0
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

func (r *mongoClientProfileRepository) ListAll(ctx context.Context) ([]domain.ClientProfile, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []domain.ClientProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// EnsureClientProfileIndexes creates indexes for the client_profiles collection.
func EnsureClientProfileIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
