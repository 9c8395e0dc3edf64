package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/interview-coach/internal/questions"
	"github.com/jonathan/interview-coach/internal/review"
)

// ErrNotFound indicates a requested record does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		notFound   *ErrNotFound
		validation *ErrValidation
		generate   *questions.GenerateError
		transition *review.ErrInvalidTransition
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &transition):
		return http.StatusConflict
	case errors.As(err, &generate):
		return http.StatusBadGateway
	case errors.Is(err, review.ErrNoUser):
		return http.StatusUnauthorized
	case errors.Is(err, review.ErrNoGrade), errors.Is(err, review.ErrAnswerTooShort):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
