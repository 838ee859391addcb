package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents where a payment is in the review workflow
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusDeclined PaymentStatus = "declined"
)

// IsTerminal reports whether no further transitions are allowed
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusDeclined
}

// Payment is a request to pay a cardholder from a study budget.
// A payment moves pending -> approved or pending -> declined exactly once,
// and the reviewer must be someone other than the requester.
type Payment struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	PayeeID         string          `json:"payee"`
	PayerID         string          `json:"payer"`
	RequestedBy     string          `json:"requested_by"`
	Status          PaymentStatus   `json:"status"`
	StatusChangedBy string          `json:"status_changed_by,omitempty"`
	StatusChangedOn *time.Time      `json:"status_changed_date,omitempty"`
	RequestDate     *time.Time      `json:"request_date,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedOn       time.Time       `json:"created_on"`
}

// Approve moves a pending payment to approved
func (p *Payment) Approve(actorID string, at time.Time, note string) error {
	return p.review(PaymentStatusApproved, actorID, at, note)
}

// Decline moves a pending payment to declined
func (p *Payment) Decline(actorID string, at time.Time, note string) error {
	return p.review(PaymentStatusDeclined, actorID, at, note)
}

func (p *Payment) review(to PaymentStatus, actorID string, at time.Time, note string) error {
	if p.Status.IsTerminal() {
		return fmt.Errorf("%w: payment %s is already %s", ErrTerminalStatus, p.ID, p.Status)
	}
	if p.Status != PaymentStatusPending {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, p.Status, to)
	}
	if actorID == "" {
		return NewValidationError("payment", nil, FieldError{Field: "status_changed_by", Message: "reviewer is required"})
	}
	if actorID == p.RequestedBy {
		return NewValidationError("payment", ErrSelfReview,
			FieldError{Field: "status_changed_by", Message: "reviewer must differ from requester"})
	}

	changed := at
	p.Status = to
	p.StatusChangedBy = actorID
	p.StatusChangedOn = &changed
	if note != "" {
		p.Notes = note
	}
	return nil
}

// Validate checks payment fields
func (p *Payment) Validate() error {
	var errs []FieldError
	if !p.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be positive"})
	}
	if p.PayeeID == "" {
		errs = append(errs, FieldError{Field: "payee", Message: "payee is required"})
	}
	if p.PayerID == "" {
		errs = append(errs, FieldError{Field: "payer", Message: "payer is required"})
	}
	if p.RequestedBy == "" {
		errs = append(errs, FieldError{Field: "requested_by", Message: "requester is required"})
	}
	switch p.Status {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusDeclined:
	default:
		errs = append(errs, FieldError{Field: "status", Message: fmt.Sprintf("unknown status %q", p.Status)})
	}
	if p.Status.IsTerminal() && p.StatusChangedBy == p.RequestedBy {
		errs = append(errs, FieldError{Field: "status_changed_by", Message: "reviewer must differ from requester"})
	}
	return validationOrNil("payment", errs)
}

// ManualPayment is the one-to-one detail record of a manually entered payment
type ManualPayment struct {
	ID          string          `json:"id"`
	PaymentID   string          `json:"payment"`
	Amount      decimal.Decimal `json:"amount"`
	Taxable     bool            `json:"taxable"`
	RequestDate *time.Time      `json:"request_date,omitempty"`
}

// Validate checks the manual payment against its payment
func (m *ManualPayment) Validate(p *Payment) error {
	var errs []FieldError
	if !m.Amount.Equal(p.Amount) {
		errs = append(errs, FieldError{Field: "amount", Message: "must equal the payment amount"})
	}
	return validationOrNil("manual payment", errs)
}
