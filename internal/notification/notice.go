package notification

import (
	"context"
	"time"
)

// ApprovalNotice is published when an administrator approves a registration.
type ApprovalNotice struct {
	RegistrationID string    `json:"registration_id"`
	StudentID      string    `json:"student_id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	ApprovedAt     time.Time `json:"approved_at"`
}

// Sender delivers an approval notice to the attendee.
type Sender interface {
	SendApproval(ctx context.Context, notice ApprovalNotice) error
}

// DirectNotifier sends notices synchronously. It is used when no message
// broker is configured.
type DirectNotifier struct {
	sender Sender
}

func NewDirectNotifier(sender Sender) *DirectNotifier {
	return &DirectNotifier{sender: sender}
}

func (n *DirectNotifier) NotifyApproval(ctx context.Context, notice ApprovalNotice) error {
	return n.sender.SendApproval(ctx, notice)
}
