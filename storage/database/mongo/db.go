package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
)

const (
	usersColl     = "users"
	coursesColl   = "courses"
	forumsColl    = "forums"
	exercisesColl = "exercises"
	tasksColl     = "tasks"
	attemptsColl  = "attempts"
)

// DB is a MongoDB document store. Transactions need a replica set.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ core.Transactor = (*DB)(nil)

func Open(ctx context.Context, conf core.DatabaseConfig) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging mongo")
	}
	return &DB{client: client, db: client.Database(conf.Name)}, nil
}

func (db *DB) Database() *mongo.Database { return db.db }

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on, including the one allowing
// a single running attempt per respondent and exercise.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		attemptsColl: {
			{
				Keys: bson.D{{Key: "respondent", Value: 1}, {Key: "exerciseRef", Value: 1}},
				Options: options.Index().
					SetName("running_attempt").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"running": true}),
			},
			{Keys: bson.D{{Key: "exerciseRef", Value: 1}, {Key: "startTime", Value: 1}}},
		},
		coursesColl: {
			{Keys: bson.D{{Key: "creator", Value: 1}}},
			{Keys: bson.D{{Key: "teachers", Value: 1}}},
			{Keys: bson.D{{Key: "students", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// WithinTransaction runs `fn` in a session transaction. Nested calls join the running transaction.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := db.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (db *DB) findOne(ctx context.Context, coll, id string, v interface{}, notFound error) error {
	err := db.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return errors.Wrapf(err, "finding %s/%s", coll, id)
}

func (db *DB) replace(ctx context.Context, coll, id string, v interface{}) error {
	_, err := db.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, v, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "saving %s/%s", coll, id)
}

func (db *DB) deleteOne(ctx context.Context, coll, id string, notFound error) error {
	res, err := db.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "deleting %s/%s", coll, id)
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}
