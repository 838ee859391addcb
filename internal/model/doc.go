// Package model defines the finance entities seeded for the E2E suite.
//
// Entities mirror the records of the application under test: users with
// per-program grants, funding sources, programs, studies, sites,
// coordinators, cardholders, appointments, payments, deposits and escrow
// (travel funding) transactions.
//
// # Monetary Amounts
//
// Every amount is a shopspring/decimal value with two fractional digits.
// Amounts are serialized as strings so no precision is lost in JSON.
//
// # Validation
//
// Entities expose Validate, which returns a *ValidationError listing every
// failed field, or nil:
//
//	if err := deposit.Validate(); err != nil {
//	    var verr *model.ValidationError
//	    errors.As(err, &verr)
//	}
//
// # Payment Review
//
// Payments start pending and are reviewed exactly once. Approve and Decline
// return ErrTerminalStatus on a reviewed payment and a ValidationError
// wrapping ErrSelfReview when the reviewer is the requester.
package model
