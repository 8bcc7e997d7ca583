package repository

import (
	"context"

	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type logErrorRepository struct {
	mongoStore[domain.LogError]
}

// NewLogErrorRepository creates a new error log repository
func NewLogErrorRepository(db *database.Mongo) LogErrorRepository {
	return &logErrorRepository{
		mongoStore: newMongoStore[domain.LogError](db.Collection(database.LogErrorsCollection)),
	}
}

// groupByCodePipeline counts matching records per code, most frequent first
func groupByCodePipeline(filter Filter) mongo.Pipeline {
	if filter == nil {
		filter = Filter{}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$code"},
			{Key: "quantity", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "code", Value: "$_id"},
			{Key: "quantity", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}, {Key: "code", Value: 1}}}},
	}
}

func (r *logErrorRepository) GroupByCode(ctx context.Context, filter Filter) ([]domain.ErrorsGroupedByCode, error) {
	cursor, err := r.coll.Aggregate(ctx, groupByCodePipeline(filter))
	if err != nil {
		return nil, handleError(err)
	}

	grouped := make([]domain.ErrorsGroupedByCode, 0)
	if err := cursor.All(ctx, &grouped); err != nil {
		return nil, handleError(err)
	}
	return grouped, nil
}
