package common

import (
	"errors"

	"github.com/evanschultz/taskflow/internal/backend"
	"github.com/evanschultz/taskflow/internal/domain"
)

// Subject names the resource an operation addressed.
type Subject string

const (
	SubjectTask     Subject = "task"
	SubjectCategory Subject = "category"
)

// FailureKind classifies an error independent of transport.
type FailureKind int

const (
	FailureInternal FailureKind = iota
	FailureNotFound
	FailureBadRequest
	FailureInvalid
)

// Failure is the client-facing form of a service error.
type Failure struct {
	Kind   FailureKind
	Detail string
}

var validationErrors = []error{
	ErrInvalidRequest,
	domain.ErrInvalidID,
	domain.ErrInvalidTitle,
	domain.ErrInvalidName,
	domain.ErrInvalidColor,
	domain.ErrInvalidStatus,
	domain.ErrInvalidPriority,
	domain.ErrInvalidDueDate,
}

// Describe maps a service error to its kind and the detail text clients see.
// Internal errors never leak their message.
func Describe(err error, subject Subject) Failure {
	switch {
	case err == nil:
		return Failure{Kind: FailureInternal, Detail: "unknown error"}
	case errors.Is(err, backend.ErrDefaultCategory),
		subject == SubjectCategory && errors.Is(err, backend.ErrNotFound):
		return Failure{Kind: FailureNotFound, Detail: "Category not found or cannot delete default category"}
	case errors.Is(err, backend.ErrNotFound):
		return Failure{Kind: FailureNotFound, Detail: "Task not found"}
	case errors.Is(err, domain.ErrEmptyPatch):
		return Failure{Kind: FailureBadRequest, Detail: "No update data provided"}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return Failure{Kind: FailureInvalid, Detail: err.Error()}
		}
	}
	return Failure{Kind: FailureInternal, Detail: "Internal Server Error"}
}
