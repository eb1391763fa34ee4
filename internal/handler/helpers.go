package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/middleware"
	"github.com/noah-isme/drumschool-api/internal/service"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

func withGuards(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	handlers = append(handlers, guards...)
	return append(handlers, handler)
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

// parsePagination reads page and page_size, clamping the page size.
func parsePagination(c *fiber.Ctx) (int, int, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return 0, 0, errors.New("invalid page")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return 0, 0, errors.New("invalid page size")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	} else if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, nil
}

// dateRangeFromQuery accepts from_date/to_date and the data_inicial/data_final aliases.
func dateRangeFromQuery(c *fiber.Ctx) dto.DateRangeRequest {
	return dto.DateRangeRequest{
		From: firstQuery(c, "from_date", "data_inicial"),
		To:   firstQuery(c, "to_date", "data_final"),
	}
}

func firstQuery(c *fiber.Ctx, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(c.Query(key)); value != "" {
			return value
		}
	}
	return ""
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   userIDFromContext(c),
		Role: middleware.RoleFromContext(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// validationDetails flattens struct tag and business rule failures into a field map.
func validationDetails(err error) (map[string]string, bool) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			key := fieldErr.Namespace()
			if idx := strings.Index(key, "."); idx >= 0 {
				key = key[idx+1:]
			}
			details[key] = describeRule(fieldErr)
		}
		return details, true
	}

	var ruleErr *service.ValidationError
	if errors.As(err, &ruleErr) {
		return ruleErr.Fields, true
	}
	return nil, false
}

func describeRule(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "this field is required"
	case "oneof":
		return "must be one of: " + fieldErr.Param()
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must use the " + fieldErr.Param() + " format"
	case "min", "max", "gt":
		return "failed the " + fieldErr.Tag() + "=" + fieldErr.Param() + " constraint"
	default:
		return "is invalid"
	}
}
