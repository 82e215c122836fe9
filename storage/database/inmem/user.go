package inmemdb

import (
	"context"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) GetUser(_ context.Context, id string) (user.User, error) {
	var usr user.User
	err := repo.db.view(func(s *store) error {
		found, err := s.get(CollUsers, id, &usr)
		if err == nil && !found {
			return user.ErrNotFound
		}
		return err
	})
	return usr, err
}

func (repo *userRepository) SaveUser(_ context.Context, usr user.User) error {
	return repo.db.update(func(s *store) error {
		return s.put(CollUsers, usr.ID, usr)
	})
}

func (repo *userRepository) AppendNotification(_ context.Context, userID string, n user.Notification) error {
	return repo.db.update(func(s *store) error {
		var usr user.User
		found, err := s.get(CollUsers, userID, &usr)
		if err != nil {
			return err
		}
		if !found {
			return user.ErrNotFound
		}
		usr.Notifications = append(usr.Notifications, n)
		return s.put(CollUsers, usr.ID, usr)
	})
}
