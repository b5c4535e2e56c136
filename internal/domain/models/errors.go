package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by every layer.
var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrFormat               = errors.New("spreadsheet format error")
	ErrConfirmationRequired = errors.New("destructive replace requires explicit confirmation")
	ErrStore                = errors.New("store error")
)

// FormatError reports a spreadsheet that cannot be normalized.
type FormatError struct {
	Missing  []string
	Problems []string
}

func (e *FormatError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", ")))
	}
	parts = append(parts, e.Problems...)
	if len(parts) == 0 {
		return ErrFormat.Error()
	}
	return "spreadsheet: " + strings.Join(parts, "; ")
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// ValidationError describes an invalid field on a direct stock mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientStockError is returned when a removal exceeds the stock on hand.
type InsufficientStockError struct {
	ItemID    int64
	Current   int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for item %d: current %d, requested %d", e.ItemID, e.Current, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StoreError wraps a persistence failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStore.
func (e *StoreError) Is(target error) bool { return target == ErrStore }
