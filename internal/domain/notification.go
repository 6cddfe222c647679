package domain

import "time"

// NotificationKind names the event a user is being told about.
type NotificationKind string

const (
	NotificationTaskCompleted       NotificationKind = "task.completed"
	NotificationWithdrawalRequested NotificationKind = "withdrawal.requested"
	NotificationKycApproved         NotificationKind = "kyc.approved"
)

// Notification is a fire-and-forget message for the user of a session.
type Notification struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Amount    int              `json:"amount,omitempty"`
	Email     string           `json:"email,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// WithdrawalRequest is published for downstream settlement. Nothing settles it
// in this system.
type WithdrawalRequest struct {
	TransactionID string      `json:"transaction_id"`
	SessionID     string      `json:"session_id"`
	Amount        int         `json:"amount"`
	Bank          BankDetails `json:"bank"`
	RequestedAt   time.Time   `json:"requested_at"`
}
