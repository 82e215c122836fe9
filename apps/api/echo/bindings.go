package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
)

type (
	SignupResponse struct {
		User  user.User `json:"user"`
		Token string    `json:"token"`
	}

	EnrollRequest struct {
		Password string `json:"password"`
	}

	InviteTeacherRequest struct {
		UserID string `json:"userId" validate:"required"`
	}

	AnswersRequest struct {
		Answers []exercise.Answer `json:"answers" validate:"required"`
	}
)

func (ir *InviteTeacherRequest) Validate(validate *validator.Validate) error {
	ir.UserID = core.CleanString(ir.UserID)
	return validate.Struct(ir)
}

func (ar *AnswersRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}
