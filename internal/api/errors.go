package api

import (
	"context"
	"errors"

	"github.com/fathima-sithara/snip/internal/app"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/gofiber/fiber/v2"
)

func statusFor(err error) int {
	var fe errs.FieldErrors
	var ae *errs.AuthError
	var se *errs.StoreError
	switch {
	case errors.As(err, &fe), errors.Is(err, errs.ErrInvalidArgument), errors.Is(err, app.ErrEmptyMessage):
		return fiber.StatusBadRequest
	case errors.As(err, &ae):
		switch ae.Code {
		case errs.AuthEmailInUse:
			return fiber.StatusConflict
		case errs.AuthWeakPassword, errs.AuthInvalidEmail:
			return fiber.StatusBadRequest
		}
		return fiber.StatusUnauthorized
	case errors.As(err, &se):
		if se.Kind == errs.StoreIndexNotReady {
			return fiber.StatusServiceUnavailable
		}
		return fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := errs.UserMessage(err)
	if status == fiber.StatusInternalServerError {
		msg = "internal error"
	}
	body := fiber.Map{"error": msg}
	var fe errs.FieldErrors
	if errors.As(err, &fe) {
		body["fields"] = fe
	}
	return c.Status(status).JSON(body)
}
