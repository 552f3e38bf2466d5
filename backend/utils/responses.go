package utils

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Data      interface{}  `json:"data"`
	Errors    []FieldError `json:"errors"`
	Timestamp string       `json:"timestamp"`
	Stack     string       `json:"stack,omitempty"`
}

// Page wraps a slice of list results.
type Page struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Success writes a successful envelope.
func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: timestamp(),
	})
}

// OK sends 200 OK.
func OK(c *fiber.Ctx, message string, data interface{}) error {
	return Success(c, fiber.StatusOK, message, data)
}

// Created sends 201 Created.
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return Success(c, fiber.StatusCreated, message, data)
}

// Paginate sends a page of results.
func Paginate(c *fiber.Ctx, message string, items interface{}, total int64, page, pageSize int) error {
	return OK(c, message, Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// Error writes a failure envelope for err. The diagnostic stack is only
// attached to 5xx responses outside production.
func Error(c *fiber.Ctx, err error, production bool) error {
	appErr := AsAppError(err)
	status := appErr.StatusCode()

	errs := appErr.Fields
	if len(errs) == 0 {
		errs = []FieldError{{Message: appErr.Message}}
	}

	env := Envelope{
		Success:   false,
		Message:   appErr.Message,
		Errors:    errs,
		Timestamp: timestamp(),
	}
	if status >= fiber.StatusInternalServerError && !production {
		if appErr.Err != nil {
			env.Stack = fmt.Sprintf("%+v", appErr.Err)
		} else {
			env.Stack = appErr.Error()
		}
	}

	return c.Status(status).JSON(env)
}

// ErrorHandler is the single place where handler errors become responses.
func ErrorHandler(production bool, logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := AsAppError(err)
		if appErr.StatusCode() >= fiber.StatusInternalServerError {
			logger.Error().
				Err(appErr.Err).
				Str("kind", appErr.Kind.String()).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg(appErr.Message)
		}
		return Error(c, appErr, production)
	}
}

// PageParams reads page/pageSize query parameters with sane bounds.
func PageParams(c *fiber.Ctx) (page, pageSize, offset int) {
	page = c.QueryInt("page", 1)
	pageSize = c.QueryInt("pageSize", 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}
