package store

import (
	"context"
	"errors"
	"fmt"

	"protv/internal/utils"
	"protv/pkg/types"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const applicationCollectionName = "applications"

type MongoApplicationRepository struct {
	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection
}

func NewMongoApplicationRepository(client *mongo.Client, databaseName string) *MongoApplicationRepository {
	database := client.Database(databaseName)
	return &MongoApplicationRepository{
		client:     client,
		database:   database,
		collection: database.Collection(applicationCollectionName),
	}
}

// Insert writes the record as a single document keyed by submission id.
func (r *MongoApplicationRepository) Insert(ctx context.Context, app *types.Application) error {
	_, err := r.collection.InsertOne(ctx, app)
	return mongoInsertError(app, err)
}

func mongoInsertError(app *types.Application, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert application %s: %w: %v", app.ApplicationID, types.ErrDuplicateApplication, err)
	}
	return fmt.Errorf("insert application %s: %w", app.ApplicationID, err)
}

func (r *MongoApplicationRepository) ApplicationBySubmissionID(ctx context.Context, submissionID string) (*types.Application, error) {
	var app = new(types.Application)
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: submissionID}}).Decode(app)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find application %s: %w", submissionID, err)
	}

	if app.Files == nil {
		app.Files = make(map[types.FileSlot]*types.FileDescriptor)
	}

	return app, nil
}

func (r *MongoApplicationRepository) ListCollections(ctx context.Context) ([]string, error) {
	names, err := r.database.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

func (r *MongoApplicationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "application_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_application_id"),
		},
		{
			Keys:    bson.D{{Key: "submission_date", Value: -1}},
			Options: options.Index().SetName("submission_date_desc"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email"),
		},
	})
	return utils.ErrorWrapOrNil(err, "create application indexes")
}

func (r *MongoApplicationRepository) Close(ctx context.Context) error {
	return utils.ErrorWrapOrNil(r.client.Disconnect(ctx), "disconnect mongo")
}
