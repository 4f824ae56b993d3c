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

const workoutLogCollectionName = "workout_logs"

// mongoWorkoutLogRepository implements repository.WorkoutLogRepository.
type mongoWorkoutLogRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutLogRepository(db *mongo.Database) repository.WorkoutLogRepository {
	return &mongoWorkoutLogRepository{
		collection: db.Collection(workoutLogCollectionName),
	}
}

// InsertMany bulk-inserts logs with ordered=false so one duplicate-key hit
// does not stop the rest of the batch. The caller gets the count of
// documents that were written plus ErrDuplicate when any collided with the
// (clientId, workoutDate) unique index.
func (r *mongoWorkoutLogRepository) InsertMany(ctx context.Context, logs []domain.WorkoutLog) (int, error) {
	if len(logs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(logs))
	for i := range logs {
		if logs[i].ID == primitive.NilObjectID {
			logs[i].ID = primitive.NewObjectID()
		}
		logs[i].CreatedAt = now
		logs[i].UpdatedAt = now
		docs = append(docs, logs[i])
	}

	opts := options.InsertMany().SetOrdered(false)
	result, err := r.collection.InsertMany(ctx, docs, opts)

	inserted := 0
	if result != nil {
		inserted = len(result.InsertedIDs)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return inserted, repository.ErrDuplicate
		}
		return inserted, err
	}
	return inserted, nil
}

func (r *mongoWorkoutLogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	var log domain.WorkoutLog
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// GetByClientAndRange returns the client's logs with workoutDate in [from, to),
// sorted by date ascending.
func (r *mongoWorkoutLogRepository) GetByClientAndRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutLog, error) {
	filter := bson.M{
		"clientId":    clientID,
		"workoutDate": bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "workoutDate", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.WorkoutLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *mongoWorkoutLogRepository) GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, day time.Time) (*domain.WorkoutLog, error) {
	var log domain.WorkoutLog
	filter := bson.M{"clientId": clientID, "workoutDate": domain.StartOfDayUTC(day)}
	err := r.collection.FindOne(ctx, filter).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

func (r *mongoWorkoutLogRepository) Update(ctx context.Context, log *domain.WorkoutLog) error {
	log.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"completedExercises": log.CompletedExercises,
			"isCompleted":        log.IsCompleted,
			"completedAt":        log.CompletedAt,
			"isMissed":           log.IsMissed,
			"clientNotes":        log.ClientNotes,
			"updatedAt":          log.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": log.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWorkoutLogRepository) CountScheduled(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (int64, error) {
	filter := bson.M{
		"clientId":    clientID,
		"workoutDate": bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *mongoWorkoutLogRepository) CountMissed(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (int64, error) {
	filter := bson.M{
		"clientId":    clientID,
		"workoutDate": bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
		"isMissed":    true,
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *mongoWorkoutLogRepository) CountCompleted(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (int64, error) {
	filter := bson.M{
		"clientId":    clientID,
		"workoutDate": bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
		"isCompleted": true,
	}
	return r.collection.CountDocuments(ctx, filter)
}

// MarkOverdueMissed flags logs dated strictly before today that were neither
// completed nor already marked. Re-running is a no-op for flagged logs.
func (r *mongoWorkoutLogRepository) MarkOverdueMissed(ctx context.Context, today time.Time) (int64, error) {
	filter := bson.M{
		"workoutDate": bson.M{"$lt": domain.StartOfDayUTC(today)},
		"isCompleted": false,
		"isMissed":    false,
	}
	update := bson.M{
		"$set": bson.M{
			"isMissed":  true,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoWorkoutLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"workoutDate": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureWorkoutLogIndexes creates indexes for the workout_logs collection.
// The unique compound index is what makes duplicate-day logs impossible.
func EnsureWorkoutLogIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "workoutDate", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "planId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Serves the overdue sweep filter.
			Keys:    bson.D{{Key: "workoutDate", Value: 1}, {Key: "isCompleted", Value: 1}, {Key: "isMissed", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
