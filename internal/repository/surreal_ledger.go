package repository

import (
	"context"

	"github.com/forgo/finance-fixtures/internal/database"
	"github.com/forgo/finance-fixtures/internal/model"
)

const paymentSelect = `SELECT *, <string>amount AS amount FROM `

// CreatePayment writes a payment and its manual payment record in one transaction.
// Record keys are generated client-side so the manual payment can link to the payment
// inside the same batch.
func (s *SurrealStore) CreatePayment(ctx context.Context, payment *model.Payment, manual *model.ManualPayment) error {
	paymentKey := recordKey()

	batch := database.NewAtomicBatch()
	batch.Add(`
		CREATE type::thing("payment", $key) CONTENT {
			amount: <decimal>$amount,
			payee: type::record($payee),
			payer: type::record($payer),
			requested_by: type::record($requested_by),
			status: $status,
			status_changed_by: IF $status_changed_by IS NOT NULL THEN type::record($status_changed_by) ELSE NONE END,
			status_changed_date: IF $status_changed_date IS NOT NULL THEN <datetime>$status_changed_date ELSE NONE END,
			request_date: IF $request_date IS NOT NULL THEN <datetime>$request_date ELSE NONE END,
			notes: $notes,
			created_on: time::now(),
			inserted_on: time::now()
		}
	`, map[string]interface{}{
		"key":                 paymentKey,
		"amount":              amountVar(payment.Amount),
		"payee":               payment.PayeeID,
		"payer":               payment.PayerID,
		"requested_by":        payment.RequestedBy,
		"status":              string(payment.Status),
		"status_changed_by":   nilIfEmpty(payment.StatusChangedBy),
		"status_changed_date": optionalTime(payment.StatusChangedOn),
		"request_date":        optionalTime(payment.RequestDate),
		"notes":               nilIfEmpty(payment.Notes),
	})

	var manualKey string
	if manual != nil {
		manualKey = recordKey()
		batch.Add(`
			CREATE type::thing("manual_payment", $key) CONTENT {
				payment: type::thing("payment", $payment_key),
				amount: <decimal>$amount,
				taxable: $taxable,
				request_date: IF $request_date IS NOT NULL THEN <datetime>$request_date ELSE NONE END
			}
		`, map[string]interface{}{
			"key":          manualKey,
			"payment_key":  paymentKey,
			"amount":       amountVar(manual.Amount),
			"taxable":      manual.Taxable,
			"request_date": optionalTime(manual.RequestDate),
		})
	}

	if err := batch.Execute(ctx, s.db); err != nil {
		return err
	}

	payment.ID = "payment:" + paymentKey
	if manual != nil {
		manual.ID = "manual_payment:" + manualKey
		manual.PaymentID = payment.ID
	}
	return nil
}

// GetPayment retrieves a payment by ID
func (s *SurrealStore) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	results, err := s.db.Query(ctx, paymentSelect+`type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	p, err := decodeOne[model.Payment](results)
	return p, wrapNotFound(err, "payment", id)
}

// ListPaymentsByStatus lists payments with the given status in creation order
func (s *SurrealStore) ListPaymentsByStatus(ctx context.Context, status model.PaymentStatus) ([]*model.Payment, error) {
	results, err := s.db.Query(ctx, paymentSelect+`payment WHERE status = $status ORDER BY inserted_on ASC`,
		map[string]interface{}{"status": string(status)})
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Payment](results)
}

// CreateDeposit creates a deposit, optionally linked to its originating payment
func (s *SurrealStore) CreateDeposit(ctx context.Context, deposit *model.Deposit) error {
	query := `
		CREATE deposit CONTENT {
			amount: <decimal>$amount,
			cardholder: type::record($cardholder),
			study: type::record($study),
			origin: IF $origin IS NOT NULL THEN type::record($origin) ELSE NONE END,
			hold: $hold,
			processed: $processed,
			processed_on: IF $processed_on IS NOT NULL THEN <datetime>$processed_on ELSE NONE END,
			sent: $sent,
			sent_on: IF $sent_on IS NOT NULL THEN <datetime>$sent_on ELSE NONE END,
			processing_notes: $processing_notes,
			created_on: IF $created_on IS NOT NULL THEN <datetime>$created_on ELSE time::now() END,
			inserted_on: time::now()
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"amount":           amountVar(deposit.Amount),
		"cardholder":       deposit.CardholderID,
		"study":            deposit.StudyID,
		"origin":           nilIfEmpty(deposit.OriginID),
		"hold":             deposit.Hold,
		"processed":        deposit.Processed,
		"processed_on":     optionalTime(deposit.ProcessedOn),
		"sent":             deposit.Sent,
		"sent_on":          optionalTime(deposit.SentOn),
		"processing_notes": nilIfEmpty(deposit.ProcessingNotes),
		"created_on":       zeroableTime(deposit.CreatedOn),
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	deposit.ID = created.ID
	if deposit.CreatedOn.IsZero() {
		deposit.CreatedOn = created.CreatedOn
	}
	return nil
}

// ListDepositsByCardholder lists a cardholder's deposits in creation order
func (s *SurrealStore) ListDepositsByCardholder(ctx context.Context, cardholderID string) ([]*model.Deposit, error) {
	query := `SELECT *, <string>amount AS amount FROM deposit WHERE cardholder = type::record($cardholder) ORDER BY inserted_on ASC`
	results, err := s.db.Query(ctx, query, map[string]interface{}{"cardholder": cardholderID})
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Deposit](results)
}

// CreateEscrowFunding records a travel funding transaction
func (s *SurrealStore) CreateEscrowFunding(ctx context.Context, entry *model.EscrowFunding) error {
	query := `
		CREATE escrow_funding CONTENT {
			funding_source: type::record($funding_source),
			transaction_amount: <decimal>$transaction_amount,
			transaction_date: <datetime>$transaction_date,
			transaction_type: $transaction_type,
			transaction_description: $transaction_description,
			description: $description,
			check_number: $check_number,
			inserted_on: time::now()
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"funding_source":          entry.FundingSourceID,
		"transaction_amount":      amountVar(entry.TransactionAmount),
		"transaction_date":        timeVar(entry.TransactionDate),
		"transaction_type":        string(entry.TransactionType),
		"transaction_description": string(entry.TransactionDescription),
		"description":             nilIfEmpty(entry.Description),
		"check_number":            nilIfEmpty(entry.CheckNumber),
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	entry.ID = created.ID
	return nil
}

// ListEscrowByFundingSource lists a funding source's escrow entries by transaction date
func (s *SurrealStore) ListEscrowByFundingSource(ctx context.Context, fundingSourceID string) ([]*model.EscrowFunding, error) {
	query := `
		SELECT *, <string>transaction_amount AS transaction_amount
		FROM escrow_funding
		WHERE funding_source = type::record($funding_source)
		ORDER BY transaction_date ASC
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{"funding_source": fundingSourceID})
	if err != nil {
		return nil, err
	}
	return decodeAll[model.EscrowFunding](results)
}
