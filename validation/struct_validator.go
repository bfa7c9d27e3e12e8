package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/authkit/errors"
)

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return v
})

// fieldName reports the json (then form) name so violations match the body.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(fld.Name)
}

var tagMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"url":      "must be a valid URL",
}

// Validate checks s against its `validate` struct tags.
func Validate(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.BadRequest("request body could not be validated")
	}
	fields := make([]FieldError, len(verrs))
	for i, e := range verrs {
		fields[i] = FieldError{Field: e.Field(), Message: message(e)}
	}
	return fieldsError(fields)
}

func message(e validator.FieldError) string {
	if msg, ok := tagMessages[e.Tag()]; ok {
		return msg
	}
	switch e.Tag() {
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "oneof":
		return "must be one of: " + e.Param()
	}
	return "is invalid"
}
