package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	trainerserrors "gymsched/internal/trainers/errors"
	"gymsched/pkg/config"
	"gymsched/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Trainers"
)

// TrainerRepository is a read-only view of the trainer roster. Trainer
// records are maintained by a separate administration flow.
type TrainerRepository interface {
	FindByID(ctx context.Context, id string) (*model.Trainer, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Trainer, error)
	FindActive(ctx context.Context) ([]*model.Trainer, error)
	Count(ctx context.Context) (int64, error)
}

type mongoTrainerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTrainerRepository(cfg *config.Config) TrainerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTrainerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTrainerRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoTrainerRepository) FindByID(ctx context.Context, id string) (*model.Trainer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", trainerserrors.ErrInvalidID, id)
	}

	var trainer model.Trainer
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trainer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, trainerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find trainer: %w", err)
	}

	return &trainer, nil
}

func (r *mongoTrainerRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Trainer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find trainers: %w", err)
	}
	defer cursor.Close(ctx)

	var trainers []*model.Trainer
	if err = cursor.All(ctx, &trainers); err != nil {
		return nil, fmt.Errorf("failed to decode trainers: %w", err)
	}

	return trainers, nil
}

func (r *mongoTrainerRepository) FindActive(ctx context.Context) ([]*model.Trainer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"status": model.TrainerActive}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find active trainers: %w", err)
	}
	defer cursor.Close(ctx)

	var trainers []*model.Trainer
	if err = cursor.All(ctx, &trainers); err != nil {
		return nil, fmt.Errorf("failed to decode trainers: %w", err)
	}

	return trainers, nil
}

func (r *mongoTrainerRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count trainers: %w", err)
	}

	return count, nil
}
