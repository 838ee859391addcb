package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validDeposit() *Deposit {
	return &Deposit{
		Amount:       decimal.RequireFromString("10.00"),
		CardholderID: "cardholder:1",
		StudyID:      "study:1",
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := make([]string, len(verr.Errors))
	for i, fe := range verr.Errors {
		fields[i] = fe.Field
	}
	return fields
}

func TestDeposit_SettledValidates(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	d := validDeposit()
	d.Processed, d.ProcessedOn = true, &at
	d.Sent, d.SentOn = true, &at

	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !d.IsSettled() {
		t.Error("processed and sent deposit should be settled")
	}
}

func TestDeposit_HeldNeedsNoteAndNoProcessing(t *testing.T) {
	t.Parallel()

	d := validDeposit()
	d.Hold = true
	d.Processed = true
	d.ProcessingNotes = "   "

	fields := fieldsOf(t, d.Validate())
	if len(fields) != 2 || fields[0] != "processed" || fields[1] != "processing_notes" {
		t.Errorf("fields = %v", fields)
	}
	if d.IsSettled() {
		t.Error("held deposit is never settled")
	}
}

func TestDeposit_HeldWithNoteValidates(t *testing.T) {
	t.Parallel()

	d := validDeposit()
	d.Hold = true
	d.ProcessingNotes = "Awaiting review"
	if err := d.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDeposit_SentBeforeProcessed(t *testing.T) {
	t.Parallel()

	d := validDeposit()
	d.Sent = true
	fields := fieldsOf(t, d.Validate())
	if len(fields) != 1 || fields[0] != "sent" {
		t.Errorf("fields = %v", fields)
	}
}

func TestDeposit_RequiredFields(t *testing.T) {
	t.Parallel()

	fields := fieldsOf(t, (&Deposit{}).Validate())
	want := []string{"amount", "cardholder", "study"}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}

// ============================================================================
// Escrow
// ============================================================================

func TestEscrowFunding_Validate(t *testing.T) {
	t.Parallel()

	e := &EscrowFunding{
		FundingSourceID:        "funding_source:1",
		TransactionAmount:      decimal.RequireFromString("12.34"),
		TransactionDate:        time.Date(2024, 7, 2, 0, 1, 0, 0, time.UTC),
		TransactionType:        TransactionDebit,
		TransactionDescription: DescriptionFee,
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	e.TransactionType = "transfer"
	e.TransactionDate = time.Time{}
	fields := fieldsOf(t, e.Validate())
	if len(fields) != 2 || fields[0] != "transaction_date" || fields[1] != "transaction_type" {
		t.Errorf("fields = %v", fields)
	}
}
