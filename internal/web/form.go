package web

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report form field names instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("weekday", weekday)
	_ = v.RegisterValidation("clock", clock)
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func weekday(fl validator.FieldLevel) bool {
	_, ok := models.NormalizeDay(fl.Field().String())
	return ok
}

func clock(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", strings.TrimSpace(fl.Field().String()))
	return err == nil
}

// Validate checks a decoded form struct and reports the first failing field
// as an *apperr.ValidationError.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return apperr.NewValidationError(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "this field cannot be blank"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "weekday":
		return "must be a day of the week"
	case "clock":
		return "must be a time like 09:30"
	default:
		return "is invalid"
	}
}
