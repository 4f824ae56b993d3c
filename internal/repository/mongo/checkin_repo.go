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

const checkInCollectionName = "checkins"

// mongoCheckInRepository implements repository.CheckInRepository.
type mongoCheckInRepository struct {
	collection *mongo.Collection
}

func NewMongoCheckInRepository(db *mongo.Database) repository.CheckInRepository {
	return &mongoCheckInRepository{
		collection: db.Collection(checkInCollectionName),
	}
}

func (r *mongoCheckInRepository) Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	if checkIn.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("check-in requires a client ID")
	}

	checkIn.ID = primitive.NewObjectID()
	checkIn.CheckInDate = domain.StartOfDayUTC(checkIn.CheckInDate)
	now := time.Now().UTC()
	checkIn.CreatedAt = now
	checkIn.UpdatedAt = now
	if checkIn.Status == "" {
		checkIn.Status = domain.CheckInPending
	}

	_, err := r.collection.InsertOne(ctx, checkIn)
	if err != nil {
		// One check-in per (client, day), enforced by the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return checkIn.ID, nil
}

func (r *mongoCheckInRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	var checkIn domain.CheckIn
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&checkIn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &checkIn, nil
}

func (r *mongoCheckInRepository) GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, day time.Time) (*domain.CheckIn, error) {
	var checkIn domain.CheckIn
	filter := bson.M{"clientId": clientID, "checkInDate": domain.StartOfDayUTC(day)}
	err := r.collection.FindOne(ctx, filter).Decode(&checkIn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &checkIn, nil
}

func (r *mongoCheckInRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.CheckIn, error) {
	opts := options.Find().SetSort(bson.D{{Key: "checkInDate", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var checkIns []domain.CheckIn
	if err = cursor.All(ctx, &checkIns); err != nil {
		return nil, err
	}
	return checkIns, nil
}

func (r *mongoCheckInRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID, status domain.CheckInStatus, limit int64) ([]domain.CheckIn, error) {
	filter := bson.M{"trainerId": trainerID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "checkInDate", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var checkIns []domain.CheckIn
	if err = cursor.All(ctx, &checkIns); err != nil {
		return nil, err
	}
	return checkIns, nil
}

func (r *mongoCheckInRepository) SetVerification(ctx context.Context, id primitive.ObjectID, status domain.CheckInStatus, comment string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"status":         status,
			"trainerComment": comment,
			"verifiedAt":     at.UTC(),
			"updatedAt":      time.Now().UTC(),
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

// EnsureCheckInIndexes creates indexes for the checkins collection.
func EnsureCheckInIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "checkInDate", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
