package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("user not found")
)

type (
	Repository interface {
		GetUser(ctx context.Context, id string) (User, error)
		SaveUser(ctx context.Context, usr User) error
		// AppendNotification adds `n` to the inbox of the user without rewriting the whole document.
		AppendNotification(ctx context.Context, userID string, n Notification) error
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
	}
)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, validate: validate}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}

	usr := User{
		ID:            uuid.NewString(),
		Name:          nu.Name,
		Email:         nu.Email,
		Notifications: []Notification{},
		CreatedAt:     time.Now().UTC(),
	}
	if err := svc.repo.SaveUser(ctx, usr); err != nil {
		return User{}, core.StorageError(err, "saving user")
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, core.StorageError(err, "getting user")
	}
	return usr, nil
}

// Notify appends `n` to the inbox of user `userID` and mails it when the user has an e-mail address.
// A failing inbox write fails the call; mails are fire-and-forget.
func (svc *Service) Notify(ctx context.Context, userID string, n Notification) error {
	usr, err := svc.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if n.Created.IsZero() {
		n.Created = time.Now().UTC()
	}
	if err := svc.repo.AppendNotification(ctx, usr.ID, n); err != nil {
		return core.StorageError(err, "appending notification")
	}

	if usr.Email != "" && svc.mailSvc != nil {
		data := map[string]string{"Name": usr.Name}
		for k, v := range n.Data {
			data[k] = v
		}
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{usr.Address()},
			Subject:      n.Title,
			TemplateName: n.Type,
			TemplateData: data,
		})
	}
	return nil
}

// Notifications returns the inbox of the user, newest first.
func (svc *Service) Notifications(ctx context.Context, userID string) ([]Notification, error) {
	usr, err := svc.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := make([]Notification, 0, len(usr.Notifications))
	for i := len(usr.Notifications) - 1; i >= 0; i-- {
		res = append(res, usr.Notifications[i])
	}
	return res, nil
}
