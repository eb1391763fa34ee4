package service

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

// NewValidator builds the shared validator. Field errors are reported under their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

// ValidationError is a field-level rejection produced by business rules that struct tags
// cannot express (membership checks, cross-field rules).
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// parseDateRange turns the optional YYYY-MM-DD bounds into a repository filter.
func parseDateRange(req dto.DateRangeRequest) (repository.DateRange, error) {
	var result repository.DateRange

	if from := strings.TrimSpace(req.From); from != "" {
		parsed, err := time.ParseInLocation(dto.DateLayout, from, time.UTC)
		if err != nil {
			return repository.DateRange{}, newValidationError("from_date", "must use the YYYY-MM-DD format")
		}
		result.From = &parsed
	}
	if to := strings.TrimSpace(req.To); to != "" {
		parsed, err := time.ParseInLocation(dto.DateLayout, to, time.UTC)
		if err != nil {
			return repository.DateRange{}, newValidationError("to_date", "must use the YYYY-MM-DD format")
		}
		result.To = &parsed
	}

	if result.From != nil && result.To != nil && result.To.Before(*result.From) {
		return repository.DateRange{}, newValidationError("to_date", "must not be earlier than from_date")
	}
	return result, nil
}

func paginationMeta(page, pageSize int, total int64) dto.PaginationMeta {
	meta := dto.PaginationMeta{
		Page:       maxInt(page, 1),
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: 1,
	}
	if pageSize > 0 {
		meta.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return meta
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
