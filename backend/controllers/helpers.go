package controllers

import (
	"errors"
	"strconv"

	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// paramID reads a positive integer path parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, utils.NewValidationError("Invalid "+name, utils.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return uint(id), nil
}

// lookupError turns a failed First into a not-found or infrastructure error.
func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NewNotFoundError(what + " not found")
	}
	return utils.NewInfrastructureError("Could not query database", err)
}
