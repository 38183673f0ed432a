package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hexymap/hexy/src/database"
	"github.com/hexymap/hexy/src/session"
	"github.com/hexymap/hexy/src/strava"
)

func statusFor(err error) int {
	var (
		apiErr   *strava.APIError
		dbErr    *database.Error
		fiberErr *fiber.Error
	)
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, session.ErrInvalid):
		return fiber.StatusUnauthorized
	case errors.As(err, &apiErr):
		return fiber.StatusUnauthorized
	case errors.As(err, &dbErr):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler only picks the status. The request logger writes the error
// on the same line as the request.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	return c.SendStatus(statusFor(err))
}
