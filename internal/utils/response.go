package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Response envelope: {code, message, data} on success, {code, message, error}
// on failure. Extra top-level fields (pagination etc.) can be attached.

func JSONSuccess(c *fiber.Ctx, data any, msg string) error {
	return JSONSuccessExtra(c, data, msg, nil)
}

func JSONSuccessExtra(c *fiber.Ctx, data any, msg string, extra fiber.Map) error {
	body := fiber.Map{"code": fiber.StatusOK, "message": msg, "data": data}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

func JSONError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"code": status, "message": msg, "error": nil})
}

// JSONFromError maps the error taxonomy onto the envelope. Unrecognized
// errors become a generic 500; the detail is only exposed in dev mode.
func JSONFromError(c *fiber.Ctx, err error, dev bool) error {
	var (
		ve *ValidationError
		nf *NotFoundError
		cf *ConflictError
		iu *IncompleteUploadError
		ue *UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		return JSONError(c, fiber.StatusBadRequest, ve.Msg)
	case errors.As(err, &cf):
		return JSONError(c, fiber.StatusConflict, cf.Msg)
	case errors.As(err, &nf):
		return JSONError(c, fiber.StatusNotFound, nf.Error())
	case errors.As(err, &iu):
		return JSONError(c, fiber.StatusBadRequest, iu.Error())
	case errors.As(err, &ue):
		return JSONError(c, fiber.StatusBadGateway, "object storage unavailable")
	default:
		msg := "internal server error"
		if dev {
			msg = err.Error()
		}
		return JSONError(c, fiber.StatusInternalServerError, msg)
	}
}
