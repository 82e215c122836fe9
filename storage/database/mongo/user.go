package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) GetUser(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	err := repo.db.findOne(ctx, usersColl, id, &usr, user.ErrNotFound)
	return usr, err
}

func (repo *userRepository) SaveUser(ctx context.Context, usr user.User) error {
	return repo.db.replace(ctx, usersColl, usr.ID, usr)
}

func (repo *userRepository) AppendNotification(ctx context.Context, userID string, n user.Notification) error {
	res, err := repo.db.db.Collection(usersColl).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"notifications": n}},
	)
	if err != nil {
		return errors.Wrap(err, "appending notification")
	}
	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}
