package user

import (
	"net/mail"
	"time"
)

// Notification types; each one is also the name of the e-mail template sent with it.
const (
	NotificationTeacherInvite = "teacher_invite"
	NotificationTeacherJoined = "teacher_joined"
)

type User struct {
	ID            string         `json:"_id" bson:"_id"`
	Name          string         `json:"name" bson:"name"`
	Email         string         `json:"email" bson:"email"`
	Notifications []Notification `json:"notifications" bson:"notifications"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"` // UTC
}

func (u User) Address() mail.Address {
	return mail.Address{Name: u.Name, Address: u.Email}
}

// Notification is an entry of a user's inbox.
type Notification struct {
	Type    string            `json:"type" bson:"type"`
	Title   string            `json:"title" bson:"title"`
	Text    string            `json:"text" bson:"text"`
	Data    map[string]string `json:"data,omitempty" bson:"data,omitempty"`
	Created time.Time         `json:"created" bson:"created"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}
