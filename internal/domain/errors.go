package domain

import (
	"fmt"
	"strings"
)

// TaskNotFoundError is returned when a task ID is not in the catalog.
type TaskNotFoundError struct {
	TaskID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// SessionNotFoundError is returned when a session ID is unknown or expired.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// InsufficientBalanceError is returned when a withdrawal exceeds the balance.
type InsufficientBalanceError struct {
	Requested int
	Balance   int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d, available %d", e.Requested, e.Balance)
}

// InvalidAmountError is returned for non-positive or below-minimum amounts.
type InvalidAmountError struct {
	Amount  int
	Minimum int
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %d: minimum is %d", e.Amount, e.Minimum)
}

// InvalidOTPError is returned when a verification code does not match.
type InvalidOTPError struct{}

func (e *InvalidOTPError) Error() string { return "invalid OTP" }

// InvalidStepError is returned when a KYC step is attempted out of order.
type InvalidStepError struct {
	Want string
	Got  string
}

func (e *InvalidStepError) Error() string {
	return fmt.Sprintf("kyc step %q not allowed, wizard is at %q", e.Want, e.Got)
}

// ValidationError carries field-level input problems.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

// UnknownChannelError is returned when no delivery channel is registered
// under a name.
type UnknownChannelError struct {
	Channel string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("unknown delivery channel: %s", e.Channel)
}
