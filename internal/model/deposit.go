package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Deposit is a credit of funds to a cardholder account.
// A held deposit is never processed and always carries a processing note.
type Deposit struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	CardholderID    string          `json:"cardholder"`
	StudyID         string          `json:"study"`
	OriginID        string          `json:"origin,omitempty"`
	Hold            bool            `json:"hold"`
	Processed       bool            `json:"processed"`
	ProcessedOn     *time.Time      `json:"processed_on,omitempty"`
	Sent            bool            `json:"sent"`
	SentOn          *time.Time      `json:"sent_on,omitempty"`
	ProcessingNotes string          `json:"processing_notes,omitempty"`
	CreatedOn       time.Time       `json:"created_on"`
}

// IsSettled reports whether the deposit was processed and sent
func (d *Deposit) IsSettled() bool {
	return !d.Hold && d.Processed && d.Sent
}

// Validate checks deposit fields and the hold invariant
func (d *Deposit) Validate() error {
	var errs []FieldError
	if !d.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be positive"})
	}
	if d.CardholderID == "" {
		errs = append(errs, FieldError{Field: "cardholder", Message: "cardholder is required"})
	}
	if d.StudyID == "" {
		errs = append(errs, FieldError{Field: "study", Message: "study is required"})
	}
	if d.Hold {
		if d.Processed {
			errs = append(errs, FieldError{Field: "processed", Message: "held deposit cannot be processed"})
		}
		if strings.TrimSpace(d.ProcessingNotes) == "" {
			errs = append(errs, FieldError{Field: "processing_notes", Message: "held deposit needs a hold reason"})
		}
	}
	if d.Sent && !d.Processed {
		errs = append(errs, FieldError{Field: "sent", Message: "deposit cannot be sent before it is processed"})
	}
	return validationOrNil("deposit", errs)
}
