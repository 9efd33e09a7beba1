package models

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrHardLimitExceeded        = errors.New("hard per-transaction limit exceeded")
	ErrExternalDataUnavailable  = errors.New("external data unavailable")
	ErrInsufficientHistory      = errors.New("insufficient price history")
	ErrWalletLocked             = errors.New("wallet is locked")
	ErrWalletLockedAtSubmission = errors.New("wallet locked at submission")
	ErrTransferRejected         = errors.New("transfer rejected by risk assessment")
	ErrInvalidRecipient         = errors.New("invalid recipient address")
	ErrStrategyNotFound         = errors.New("strategy not found")
)

// HardLimitError carries the amount and cap of a rejected transfer.
// It is never retryable.
type HardLimitError struct {
	AmountWei *big.Int
	LimitWei  *big.Int
}

func (e *HardLimitError) Error() string {
	return fmt.Sprintf("amount %s wei exceeds per-transaction limit %s wei", e.AmountWei, e.LimitWei)
}

func (e *HardLimitError) Is(target error) bool {
	return target == ErrHardLimitExceeded
}

// RejectionError reports a transfer refused because of its risk verdict
type RejectionError struct {
	Assessment RiskAssessment
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("transfer rejected: level=%s factors=%v", e.Assessment.Level, e.Assessment.Factors)
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrTransferRejected
}

// Unavailable wraps a collaborator failure as ErrExternalDataUnavailable
func Unavailable(source string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", source, ErrExternalDataUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", source, ErrExternalDataUnavailable, err)
}
