package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of an escrow transaction
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// TransactionChoices are the selectable escrow transaction types
var TransactionChoices = []TransactionType{TransactionCredit, TransactionDebit}

// TransactionDescription categorizes travel funding transactions
type TransactionDescription string

const (
	DescriptionTravelReimbursement TransactionDescription = "travel_reimbursement"
	DescriptionTravelAdvance       TransactionDescription = "travel_advance"
	DescriptionRefund              TransactionDescription = "refund"
	DescriptionAdjustment          TransactionDescription = "adjustment"
	DescriptionFee                 TransactionDescription = "fee"
)

// TransactionDescriptionChoices are the selectable escrow transaction descriptions
var TransactionDescriptionChoices = []TransactionDescription{
	DescriptionTravelReimbursement,
	DescriptionTravelAdvance,
	DescriptionRefund,
	DescriptionAdjustment,
	DescriptionFee,
}

// EscrowFunding is a travel funding ledger entry against a funding source
type EscrowFunding struct {
	ID                     string                 `json:"id"`
	FundingSourceID        string                 `json:"funding_source"`
	TransactionAmount      decimal.Decimal        `json:"transaction_amount"`
	TransactionDate        time.Time              `json:"transaction_date"`
	TransactionType        TransactionType        `json:"transaction_type"`
	TransactionDescription TransactionDescription `json:"transaction_description"`
	Description            string                 `json:"description,omitempty"`
	CheckNumber            string                 `json:"check_number,omitempty"`
}

// Validate checks escrow funding fields
func (e *EscrowFunding) Validate() error {
	var errs []FieldError
	if e.FundingSourceID == "" {
		errs = append(errs, FieldError{Field: "funding_source", Message: "funding source is required"})
	}
	if !e.TransactionAmount.IsPositive() {
		errs = append(errs, FieldError{Field: "transaction_amount", Message: "amount must be positive"})
	}
	if e.TransactionDate.IsZero() {
		errs = append(errs, FieldError{Field: "transaction_date", Message: "transaction date is required"})
	}
	if e.TransactionType != TransactionCredit && e.TransactionType != TransactionDebit {
		errs = append(errs, FieldError{Field: "transaction_type", Message: "unknown transaction type"})
	}
	return validationOrNil("escrow funding", errs)
}
