package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/stocktake-service/internal/domain"
)

type CountStatisticsRepository struct {
	collection *mongo.Collection
}

func NewCountStatisticsRepository(db *mongo.Database) *CountStatisticsRepository {
	repo := &CountStatisticsRepository{collection: db.Collection("count_statistics")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *CountStatisticsRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "statisticsId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "assignmentId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *CountStatisticsRepository) Save(ctx context.Context, stats *domain.CountStatistics) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"assignmentId": stats.AssignmentID}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": stats}, opts)
	return err
}

func (r *CountStatisticsRepository) FindByAssignmentID(ctx context.Context, assignmentID string) (*domain.CountStatistics, error) {
	var stats domain.CountStatistics
	err := r.collection.FindOne(ctx, bson.M{"assignmentId": assignmentID}).Decode(&stats)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &stats, err
}

func (r *CountStatisticsRepository) DeleteByAssignmentID(ctx context.Context, assignmentID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"assignmentId": assignmentID})
	return err
}
