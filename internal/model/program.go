package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a funding source does not name one
const DefaultCurrency = "USD"

// FundingSource is the top-level account funding one or more programs
type FundingSource struct {
	ID                       string          `json:"id"`
	Name                     string          `json:"name"`
	DisplayPrograms          string          `json:"display_programs"`
	Currency                 string          `json:"currency"`
	LowBalanceThreshold      decimal.Decimal `json:"low_balance_threshold"`
	CriticalBalanceThreshold decimal.Decimal `json:"critical_balance_threshold"`
	CreatedOn                time.Time       `json:"created_on"`
}

// Validate checks funding source fields
func (f *FundingSource) Validate() error {
	var errs []FieldError
	if f.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}
	if len(f.Currency) != 3 {
		errs = append(errs, FieldError{Field: "currency", Message: "currency must be a 3 letter ISO code"})
	}
	if f.CriticalBalanceThreshold.GreaterThan(f.LowBalanceThreshold) {
		errs = append(errs, FieldError{Field: "critical_balance_threshold", Message: "must not exceed the low balance threshold"})
	}
	return validationOrNil("funding source", errs)
}

// Program groups studies paid from a single funding source
type Program struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	FundingSourceID       string    `json:"funding_source"`
	Currency              string    `json:"currency"`
	GeneratesTaxForms     bool      `json:"greenphire_generates_1099"`
	PreauthPaymentAllowed bool      `json:"preauth_payment_allowed"`
	Countries             []string  `json:"country_list,omitempty"`
	CreatedOn             time.Time `json:"created_on"`
}

// Validate checks program fields
func (p *Program) Validate() error {
	var errs []FieldError
	if p.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}
	if p.FundingSourceID == "" {
		errs = append(errs, FieldError{Field: "funding_source", Message: "funding source is required"})
	}
	return validationOrNil("program", errs)
}

// HasCountry reports whether the program lists the country
func (p *Program) HasCountry(countryID string) bool {
	for _, c := range p.Countries {
		if c == countryID {
			return true
		}
	}
	return false
}

// Country is a country selectable on program forms
type Country struct {
	ID      string `json:"id"`
	ISOCode string `json:"iso_code"`
	Name    string `json:"name"`
}

// StateProvince is a state selectable on site forms
type StateProvince struct {
	ID        string `json:"id"`
	ISOCode   string `json:"iso_code"`
	Name      string `json:"name"`
	CountryID string `json:"country"`
}

// Address places a site or cardholder in a country and state
type Address struct {
	ID              string `json:"id"`
	Line1           string `json:"line1"`
	City            string `json:"city"`
	PostalCode      string `json:"postal_code"`
	CountryID       string `json:"country"`
	StateProvinceID string `json:"stateprovince"`
}

// Funding is an issuance credit added to a funding source
type Funding struct {
	ID              string          `json:"id"`
	FundingSourceID string          `json:"funding_source"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	AddedOn         time.Time       `json:"added_on"`
}

// Validate checks issuance funding fields
func (f *Funding) Validate() error {
	var errs []FieldError
	if f.FundingSourceID == "" {
		errs = append(errs, FieldError{Field: "funding_source", Message: "funding source is required"})
	}
	if !f.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be positive"})
	}
	return validationOrNil("funding", errs)
}
