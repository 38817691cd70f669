package service

import (
	"errors"
	"fmt"

	"case-service/internal/models"

	"github.com/google/uuid"
)

// LogicalError is a rejection of a well-formed call. Its message is meant for
// the end user and travels to the client verbatim.
type LogicalError struct {
	Message string
}

func (e *LogicalError) Error() string {
	return e.Message
}

var (
	ErrRequestNotFound    = &LogicalError{Message: "Request not found"}
	ErrCategoryNotFound   = &LogicalError{Message: "Category not found"}
	ErrAlreadyShortlisted = &LogicalError{Message: "Request already shortlisted"}
	ErrNotShortlisted     = &LogicalError{Message: "Not shortlisted"}
	ErrNotShortlistable   = &LogicalError{Message: "Request is no longer open for shortlisting"}
	ErrNoShortlistees     = &LogicalError{Message: "No shortlistees available to assign"}
	ErrCSRUnavailable     = &LogicalError{Message: "CSR no longer available"}
	ErrEmptyTitle         = &LogicalError{Message: "Title cannot be empty"}
	ErrInvalidStatus      = &LogicalError{Message: "Invalid status value"}
	ErrEmptyCategoryName  = &LogicalError{Message: "Category name cannot be empty"}
	ErrCategoryExists     = &LogicalError{Message: "Category already exists"}
)

func errNotPending(action string, status models.RequestStatus) error {
	return &LogicalError{Message: fmt.Sprintf("Cannot %s a '%s' request", action, status)}
}

func errInvalidTransition(from, to models.RequestStatus) error {
	return &LogicalError{Message: fmt.Sprintf("Cannot move a '%s' request to '%s'", from, to)}
}

func errCategoryMissing(id uuid.UUID) error {
	return &LogicalError{Message: fmt.Sprintf("Category with ID %s does not exist", id)}
}

// IsLogical reports whether err should be answered with its message rather
// than as a server failure.
func IsLogical(err error) bool {
	var logical *LogicalError
	return errors.As(err, &logical)
}
