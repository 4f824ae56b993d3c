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

const weeklyPlanCollectionName = "weekly_plans"

// mongoWeeklyPlanRepository implements repository.WeeklyPlanRepository.
type mongoWeeklyPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoWeeklyPlanRepository(db *mongo.Database) repository.WeeklyPlanRepository {
	return &mongoWeeklyPlanRepository{
		collection: db.Collection(weeklyPlanCollectionName),
	}
}

func (r *mongoWeeklyPlanRepository) Create(ctx context.Context, plan *domain.WeeklyPlan) (primitive.ObjectID, error) {
	if plan.TrainerID == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan trainer ID and name are required")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return plan.ID, nil
}

func (r *mongoWeeklyPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyPlan, error) {
	var plan domain.WeeklyPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *mongoWeeklyPlanRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WeeklyPlan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"trainerId": trainerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.WeeklyPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *mongoWeeklyPlanRepository) Update(ctx context.Context, plan *domain.WeeklyPlan) error {
	plan.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"name":        plan.Name,
			"description": plan.Description,
			"isTemplate":  plan.IsTemplate,
			"workouts":    plan.Workouts,
			"updatedAt":   plan.UpdatedAt,
		},
	}
	// Ownership re-checked in the filter so a stale plan object cannot
	// overwrite another trainer's document.
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID, "trainerId": plan.TrainerID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWeeklyPlanRepository) Delete(ctx context.Context, id, trainerID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "trainerId": trainerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddAssignedClients records assignment fan-out. $addToSet/$each keeps
// re-assignment from producing duplicate entries.
func (r *mongoWeeklyPlanRepository) AddAssignedClients(ctx context.Context, planID primitive.ObjectID, clientIDs []primitive.ObjectID) error {
	if len(clientIDs) == 0 {
		return nil
	}

	update := bson.M{
		"$addToSet": bson.M{"assignedClientIds": bson.M{"$each": clientIDs}},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": planID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWeeklyPlanIndexes creates indexes for the weekly_plans collection.
func EnsureWeeklyPlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "isTemplate", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
