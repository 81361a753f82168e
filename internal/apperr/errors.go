// Package apperr defines the error taxonomy shared by usecases and transports.
package apperr

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports missing or malformed user input. Fields maps the offending
// field to a short reason.
type ValidationError struct {
	MessageID string
	Fields    map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func NewValidation(messageID string, fields map[string]string) *ValidationError {
	if messageID == "" {
		messageID = "validation_failed"
	}
	return &ValidationError{MessageID: messageID, Fields: fields}
}

type EmptyCartError struct{}

func (e *EmptyCartError) Error() string { return "cart is empty" }

type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s): requested %d, available %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}

type PaymentDeclinedError struct {
	Reason         string
	RequiresAction bool
}

func (e *PaymentDeclinedError) Error() string {
	if e.RequiresAction {
		return "payment requires additional authentication: " + e.Reason
	}
	return "payment declined: " + e.Reason
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// PersistenceError is an opaque backend failure. The cause is kept for logs only.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

// InvalidStateError rejects an operation that the entity's current status does not allow.
type InvalidStateError struct {
	Resource string
	ID       string
	Status   string
	Action   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in status %q", e.Action, e.Resource, e.ID, e.Status)
}

type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string { return "unauthorized: " + e.Reason }

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Reason }
