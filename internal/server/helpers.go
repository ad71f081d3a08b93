package server

import (
	"errors"
	"strconv"
	"strings"

	"haven/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize    = 10
	maxPaginationLimit = 100
)

// errResponseWritten signals that a handler helper already wrote an error
// response to the client; the caller should just return nil.
var errResponseWritten = errors.New("response written")

// parseID parses a URL parameter as a uint ID. On failure it writes a 400
// response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam turns a camelCase route param into words ("commentId" -> "comment id").
func humanizeParam(param string) string {
	return strings.ToLower(strings.Join(splitCamel(param), " "))
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parsePagination reads page/page_size (with limit/offset accepted as
// aliases) from the query string and returns (limit, offset).
func parsePagination(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("page_size", 0)
	if limit <= 0 {
		limit = c.QueryInt("limit", defaultPageSize)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := 0
	if page := c.QueryInt("page", 0); page > 1 {
		offset = (page - 1) * limit
	} else {
		offset = c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}
	}
	return limit, offset
}

// currentUserID returns the authenticated user ID set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// respondServiceError maps a service-layer error onto an HTTP status and
// writes the standard error body.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, appErr)
		case "UNAUTHORIZED":
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		case "FORBIDDEN":
			return models.RespondWithError(c, fiber.StatusForbidden, appErr)
		}
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}
