package models

// Email template identifiers. The notification service owns the subject/body
// for each; callers pass booking-scoped data.
const (
	TemplateBookingConfirmed    = "booking_confirmed"
	TemplateFinalPaymentReceipt = "final_payment_receipt"
	TemplateFinalPaymentAction  = "final_payment_action_needed"
	TemplatePayoutSent          = "payout_sent"
)

// NotifyPayload is the asynq task body for a queued notification.
type NotifyPayload struct {
	Target   string            `json:"target"` // "hiker", "guide" or "ops"
	ID       string            `json:"id,omitempty"`
	Template string            `json:"template,omitempty"`
	Text     string            `json:"text,omitempty"` // ops messages only
	Data     map[string]string `json:"data,omitempty"`
}
