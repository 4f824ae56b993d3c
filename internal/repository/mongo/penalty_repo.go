package mongo

import (
	"context"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const penaltyRecordCollectionName = "penalty_records"

// mongoPenaltyRecordRepository implements repository.PenaltyRecordRepository.
type mongoPenaltyRecordRepository struct {
	collection *mongo.Collection
}

func NewMongoPenaltyRecordRepository(db *mongo.Database) repository.PenaltyRecordRepository {
	return &mongoPenaltyRecordRepository{
		collection: db.Collection(penaltyRecordCollectionName),
	}
}

// Upsert writes the weekly snapshot keyed on (clientId, weekStartDate).
// The sweep re-running for the same week overwrites rather than duplicates;
// the returned bool tells the caller whether this run inserted the record.
func (r *mongoPenaltyRecordRepository) Upsert(ctx context.Context, record *domain.PenaltyRecord) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"clientId":      record.ClientID,
		"weekStartDate": record.WeekStartDate.UTC(),
	}
	update := bson.M{
		"$set": bson.M{
			"scheduledCount": record.ScheduledCount,
			"missedCount":    record.MissedCount,
			"completionRate": record.CompletionRate,
			"penaltyType":    record.PenaltyType,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{
			"clientId":      record.ClientID,
			"weekStartDate": record.WeekStartDate.UTC(),
			"createdAt":     now,
		},
	}

	opts := options.Update().SetUpsert(true)
	res, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (r *mongoPenaltyRecordRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.PenaltyRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "weekStartDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.PenaltyRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// EnsurePenaltyRecordIndexes creates indexes for the penalty_records collection.
func EnsurePenaltyRecordIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "weekStartDate", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
