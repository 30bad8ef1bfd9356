package app

import (
	"errors"

	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/go-playground/validator/v10"
)

type SignupForm struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

var signupMessages = map[string]string{
	"Name.required":           "Name is required",
	"Email.required":          "Email is required",
	"Password.required":       "Password is required",
	"Password.min":            "Password must be at least 6 characters",
	"ConfirmPassword.eqfield": "Passwords do not match",
}

func (a *App) validateSignup(f SignupForm) error {
	err := a.validate.Struct(f)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := make(errs.FieldErrors, 0, len(ve))
	for _, fe := range ve {
		msg, ok := signupMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out = append(out, errs.FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}
