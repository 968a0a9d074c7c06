package models

import "time"

// Payment is the single payment record attached to a repair request.
// The request_id column carries a unique constraint so the 1:1
// relationship is enforced by the schema, not just the service.
type Payment struct {
	ID              string     `db:"id" json:"id"`
	RequestID       string     `db:"request_id" json:"request_id"`
	TotalAmount     float64    `db:"total_amount" json:"total_amount"`
	AdvancedPayment *float64   `db:"advanced_payment" json:"advanced_payment,omitempty"`
	PaymentDate     *time.Time `db:"payment_date" json:"payment_date,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// RemainingBalance derives the outstanding amount, never negative.
func (p *Payment) RemainingBalance() float64 {
	if p == nil {
		return 0
	}
	advance := 0.0
	if p.AdvancedPayment != nil {
		advance = *p.AdvancedPayment
	}
	remaining := p.TotalAmount - advance
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsPaid reports whether the payment is fully settled and dated.
func (p *Payment) IsPaid() bool {
	if p == nil {
		return false
	}
	return p.RemainingBalance() <= 0 && p.PaymentDate != nil
}

// PaymentView is the API projection including derived fields.
type PaymentView struct {
	Payment
	RemainingBalance float64 `json:"remaining_balance"`
	IsPaid           bool    `json:"is_paid"`
}

// View builds the projection for responses.
func (p *Payment) View() *PaymentView {
	if p == nil {
		return nil
	}
	return &PaymentView{
		Payment:          *p,
		RemainingBalance: p.RemainingBalance(),
		IsPaid:           p.IsPaid(),
	}
}
