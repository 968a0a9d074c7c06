package dto

import "time"

// RecordPaymentRequest upserts the payment attached to a repair request.
type RecordPaymentRequest struct {
	TotalAmount     float64    `json:"total_amount" validate:"required,gt=0"`
	AdvancedPayment *float64   `json:"advanced_payment" validate:"omitempty,gte=0"`
	PaymentDate     *time.Time `json:"payment_date"`
}
