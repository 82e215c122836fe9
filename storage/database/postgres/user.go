package pgrepos

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

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
	err := repo.db.get(ctx, usersColl, id, &usr, user.ErrNotFound)
	return usr, err
}

func (repo *userRepository) SaveUser(ctx context.Context, usr user.User) error {
	return repo.db.save(ctx, usersColl, usr.ID, usr)
}

func (repo *userRepository) AppendNotification(ctx context.Context, userID string, n user.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "encoding notification")
	}
	res, err := repo.db.q(ctx).ExecContext(ctx, `
		UPDATE documents
		SET doc = jsonb_set(doc, '{notifications}', COALESCE(doc->'notifications', '[]'::jsonb) || jsonb_build_array($3::jsonb)),
			updated_at = NOW()
		WHERE collection = $1 AND id = $2`,
		usersColl, userID, raw,
	)
	if err != nil {
		return errors.Wrap(err, "appending notification")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}
