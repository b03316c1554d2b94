package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	blockserrors "gymsched/internal/blocks/errors"
	"gymsched/pkg/config"
	mongotx "gymsched/pkg/db/mongo"
	"gymsched/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Blocks"
)

type BlockRepository interface {
	Create(ctx context.Context, block *model.Block) error
	FindByID(ctx context.Context, id string) (*model.Block, error)
	FindByTrainerAndDate(ctx context.Context, trainerID, date string) ([]*model.Block, error)
	FindOverlapping(ctx context.Context, trainerID, date, start, end string) ([]*model.Block, error)
	List(ctx context.Context, trainerID, date string, limit int, offset int64) ([]*model.Block, error)
	CountFiltered(ctx context.Context, trainerID, date string) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBlockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBlockRepository(cfg *config.Config) BlockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBlockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBlockRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoBlockRepository) Create(ctx context.Context, block *model.Block) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	block.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, block)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		block.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBlockRepository) FindByID(ctx context.Context, id string) (*model.Block, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", blockserrors.ErrInvalidID, id)
	}

	var block model.Block
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&block)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, blockserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find block: %w", err)
	}

	return &block, nil
}

func (r *mongoBlockRepository) FindByTrainerAndDate(ctx context.Context, trainerID, date string) ([]*model.Block, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"trainer_id": trainerID,
		"date":       date,
	}

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find blocks by trainer and date: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.Block
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode blocks: %w", err)
	}

	return blocks, nil
}

// FindOverlapping returns blocks on the trainer's date intersecting the
// half-open [start, end) window. HH:MM strings compare lexicographically.
func (r *mongoBlockRepository) FindOverlapping(ctx context.Context, trainerID, date, start, end string) ([]*model.Block, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"trainer_id": trainerID,
		"date":       date,
		"start":      bson.M{"$lt": end},
		"end":        bson.M{"$gt": start},
	}

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.Block
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode blocks: %w", err)
	}

	return blocks, nil
}

func (r *mongoBlockRepository) List(ctx context.Context, trainerID, date string, limit int, offset int64) ([]*model.Block, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, r.buildListFilter(trainerID, date), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.Block
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode blocks: %w", err)
	}

	return blocks, nil
}

func (r *mongoBlockRepository) CountFiltered(ctx context.Context, trainerID, date string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, r.buildListFilter(trainerID, date))
	if err != nil {
		return 0, fmt.Errorf("failed to count blocks: %w", err)
	}

	return count, nil
}

func (r *mongoBlockRepository) buildListFilter(trainerID, date string) bson.M {
	filter := bson.M{}
	if trainerID != "" {
		filter["trainer_id"] = trainerID
	}
	if date != "" {
		filter["date"] = date
	}
	return filter
}

func (r *mongoBlockRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", blockserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}

	if result.DeletedCount == 0 {
		return blockserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBlockRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", blockserrors.ErrInvalidID, id)
		}
		objectIDs = append(objectIDs, objectID)
	}

	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete blocks: %w", err)
	}

	return result.DeletedCount, nil
}

func (r *mongoBlockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
