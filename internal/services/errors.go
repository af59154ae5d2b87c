package services

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// ServiceError is a caller-facing failure: bad input, missing record, forbidden or conflicting
// state. Anything else returned by a service is a backend failure.
type ServiceError struct {
	Status  int
	Message string
	Data    interface{}
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NewValidationError(message string) *ServiceError {
	return &ServiceError{Status: http.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{Status: http.StatusNotFound, Message: message}
}

func NewForbiddenError(message string) *ServiceError {
	return &ServiceError{Status: http.StatusForbidden, Message: message}
}

func NewConflictError(message string, data interface{}) *ServiceError {
	return &ServiceError{Status: http.StatusConflict, Message: message, Data: data}
}

var (
	ErrPaymentNotFound  = NewNotFoundError("payment not found")
	ErrProofNotFound    = NewNotFoundError("payment proof not found")
	ErrTicketNotFound   = NewNotFoundError("ticket not found")
	ErrGroupNotFound    = NewNotFoundError("group not found")
	ErrChargeNotFound   = NewNotFoundError("group charge not found")
	ErrProfileNotFound  = NewNotFoundError("user not found")
	ErrProofReviewed    = NewConflictError("payment proof was already reviewed", nil)
	ErrSyncInProgress   = NewConflictError("group synchronization already running", nil)
	ErrInvalidAmount    = NewValidationError("amount must be greater than zero")
	ErrInvalidReason    = NewValidationError("rejection reason must be one of valor_divergente, data_incorreta, outro")
	ErrNotAllowed       = NewForbiddenError("operation not allowed for this user")
	ErrInvalidLogin     = &ServiceError{Status: http.StatusUnauthorized, Message: "invalid email or password"}
	ErrAccountNotActive = NewForbiddenError("account is not approved or is inactive")
)

// notFound maps gorm's missing-row error onto the given service error.
func notFound(err error, mapped *ServiceError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return mapped
	}
	return err
}

// StatusOf returns the HTTP status for err: the ServiceError status or 500.
func StatusOf(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Status
	}
	return http.StatusInternalServerError
}
