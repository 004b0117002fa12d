package service

import (
	"errors"
	"fmt"
	"strings"
)

// Order lifecycle errors.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderFetchFailed     = errors.New("order fetch failed")
	ErrOrderUpdateFailed    = errors.New("order update failed")
	ErrInvalidTransition    = errors.New("order status transition not allowed")
	ErrOrderTaken           = errors.New("order already taken by another rider")
	ErrMissingPurchaseProof = errors.New("purchase receipt required")
	ErrTransferNotConfirmed = errors.New("transfer receipt not validated")
	ErrNotOrderRider        = errors.New("order belongs to another rider")
)

// Rider and ledger errors.
var (
	ErrRiderNotFound         = errors.New("rider not found")
	ErrRiderInactive         = errors.New("rider is not active")
	ErrCustodyLimitReached   = errors.New("rider cash custody limit reached")
	ErrLedgerCreditFailed    = errors.New("cash ledger credit failed")
	ErrSettlementExceedsHeld = errors.New("settlement exceeds cash on hand")
)

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
)

// Upload errors.
var (
	ErrUploadTooLarge   = errors.New("upload exceeds size limit")
	ErrUploadBadType    = errors.New("upload content type not allowed")
	ErrUploadBadExt     = errors.New("upload extension not allowed")
	ErrUploadSaveFailed = errors.New("upload save failed")
)

// ValidationError reports the rejected fields of a create request.
type ValidationError struct {
	Fields map[string]string
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}
