package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func pendingPayment() *Payment {
	return &Payment{
		ID:          "payment:1",
		Amount:      decimal.RequireFromString("42.50"),
		PayeeID:     "cardholder:1",
		PayerID:     "study:1",
		RequestedBy: "user:requester",
		Status:      PaymentStatusPending,
	}
}

var reviewedAt = time.Date(2024, 7, 2, 11, 30, 0, 0, time.UTC)

// ============================================================================
// Review Transitions
// ============================================================================

func TestPayment_Approve(t *testing.T) {
	t.Parallel()

	p := pendingPayment()
	if err := p.Approve("user:reviewer", reviewedAt, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if p.Status != PaymentStatusApproved {
		t.Errorf("status = %q, want approved", p.Status)
	}
	if p.StatusChangedBy != "user:reviewer" {
		t.Errorf("status_changed_by = %q", p.StatusChangedBy)
	}
	if p.StatusChangedOn == nil || !p.StatusChangedOn.Equal(reviewedAt) {
		t.Errorf("status_changed_date = %v, want %v", p.StatusChangedOn, reviewedAt)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("approved payment should validate: %v", err)
	}
}

func TestPayment_DeclineKeepsNote(t *testing.T) {
	t.Parallel()

	p := pendingPayment()
	if err := p.Decline("user:reviewer", reviewedAt, "over budget"); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if p.Status != PaymentStatusDeclined || p.Notes != "over budget" {
		t.Errorf("got status %q notes %q", p.Status, p.Notes)
	}
}

func TestPayment_ReviewOnceOnly(t *testing.T) {
	t.Parallel()

	p := pendingPayment()
	if err := p.Decline("user:reviewer", reviewedAt, ""); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	err := p.Approve("user:reviewer", reviewedAt.Add(time.Hour), "")
	if !errors.Is(err, ErrTerminalStatus) {
		t.Fatalf("expected ErrTerminalStatus, got %v", err)
	}
	if p.Status != PaymentStatusDeclined || !p.StatusChangedOn.Equal(reviewedAt) {
		t.Error("failed transition must not modify the payment")
	}
}

func TestPayment_SelfReview(t *testing.T) {
	t.Parallel()

	p := pendingPayment()
	err := p.Approve(p.RequestedBy, reviewedAt, "")
	if !errors.Is(err, ErrSelfReview) {
		t.Fatalf("expected ErrSelfReview, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Errors[0].Field != "status_changed_by" {
		t.Errorf("expected status_changed_by validation error, got %v", err)
	}
	if p.Status != PaymentStatusPending || p.StatusChangedOn != nil {
		t.Error("self review must leave the payment pending")
	}
}

func TestPayment_ReviewerRequired(t *testing.T) {
	t.Parallel()

	p := pendingPayment()
	var verr *ValidationError
	if err := p.Decline("", reviewedAt, ""); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestPayment_UnknownStatusIsInvalidTransition(t *testing.T) {
	t.Parallel()

	p := pendingPayment()
	p.Status = "void"
	if err := p.Approve("user:reviewer", reviewedAt, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

// ============================================================================
// Validation
// ============================================================================

func TestPayment_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Payment)
		field  string
	}{
		{"zero amount", func(p *Payment) { p.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(p *Payment) { p.Amount = decimal.RequireFromString("-1.00") }, "amount"},
		{"missing payee", func(p *Payment) { p.PayeeID = "" }, "payee"},
		{"missing payer", func(p *Payment) { p.PayerID = "" }, "payer"},
		{"missing requester", func(p *Payment) { p.RequestedBy = "" }, "requested_by"},
		{"unknown status", func(p *Payment) { p.Status = "void" }, "status"},
		{"self reviewed", func(p *Payment) {
			p.Status = PaymentStatusApproved
			p.StatusChangedBy = p.RequestedBy
		}, "status_changed_by"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := pendingPayment()
			tt.mutate(p)

			var verr *ValidationError
			if err := p.Validate(); !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Errors[0].Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Errors[0].Field, tt.field)
			}
		})
	}
}

func TestManualPayment_AmountMatchesPayment(t *testing.T) {
	t.Parallel()

	p := pendingPayment()
	m := &ManualPayment{Amount: decimal.RequireFromString("42.5")}
	if err := m.Validate(p); err != nil {
		t.Errorf("equal amounts with different scale should validate: %v", err)
	}

	m.Amount = decimal.RequireFromString("42.49")
	if err := m.Validate(p); err == nil {
		t.Error("expected mismatch error")
	}
}
