package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
)

var (
	courseTypeTag  = "coursetype"
	courseTypeText = "{0} must be one of open, public, hidden"

	entryKindTag  = "entrykind"
	entryKindText = "{0} must be one of file, text, forum"

	entryAccessTag  = "entryaccess"
	entryAccessText = "{0} must be one of all, teachers"

	taskKindTag  = "taskkind"
	taskKindText = "{0} must be one of OneChoiceTask, MultipleChoiceTask, TextTask"
)

// InitValidators registers the validation tags of course payloads.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(courseTypeTag, func(fl validator.FieldLevel) bool {
		switch Type(fl.Field().String()) {
		case TypeOpen, TypePublic, TypeHidden:
			return true
		}
		return false
	})
	core.RegisterCustomTranslation(validate, translator, courseTypeTag, courseTypeText)

	_ = validate.RegisterValidation(entryKindTag, func(fl validator.FieldLevel) bool {
		switch EntryKind(fl.Field().String()) {
		case EntryFile, EntryText, EntryForum:
			return true
		}
		return false
	})
	core.RegisterCustomTranslation(validate, translator, entryKindTag, entryKindText)

	_ = validate.RegisterValidation(entryAccessTag, func(fl validator.FieldLevel) bool {
		switch Access(fl.Field().String()) {
		case AccessAll, AccessTeachers:
			return true
		}
		return false
	})
	core.RegisterCustomTranslation(validate, translator, entryAccessTag, entryAccessText)

	_ = validate.RegisterValidation(taskKindTag, func(fl validator.FieldLevel) bool {
		return exercise.TaskKind(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, taskKindTag, taskKindText)
}
