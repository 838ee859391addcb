package repository

import (
	"context"
	"errors"

	"github.com/forgo/finance-fixtures/internal/database"
	"github.com/forgo/finance-fixtures/internal/model"
)

// CreateFundingSource creates a funding source
func (s *SurrealStore) CreateFundingSource(ctx context.Context, fs *model.FundingSource) error {
	query := `
		CREATE funding_source CONTENT {
			name: $name,
			display_programs: $display_programs,
			currency: $currency,
			low_balance_threshold: <decimal>$low_balance_threshold,
			critical_balance_threshold: <decimal>$critical_balance_threshold,
			created_on: time::now(),
			inserted_on: time::now()
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"name":                       fs.Name,
		"display_programs":           fs.DisplayPrograms,
		"currency":                   fs.Currency,
		"low_balance_threshold":      amountVar(fs.LowBalanceThreshold),
		"critical_balance_threshold": amountVar(fs.CriticalBalanceThreshold),
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	fs.ID = created.ID
	fs.CreatedOn = created.CreatedOn
	return nil
}

// GetFundingSource retrieves a funding source by ID
func (s *SurrealStore) GetFundingSource(ctx context.Context, id string) (*model.FundingSource, error) {
	query := `
		SELECT *,
			<string>low_balance_threshold AS low_balance_threshold,
			<string>critical_balance_threshold AS critical_balance_threshold
		FROM type::record($id)
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	fs, err := decodeOne[model.FundingSource](results)
	return fs, wrapNotFound(err, "funding_source", id)
}

// CreateProgram creates a program linked to its funding source
func (s *SurrealStore) CreateProgram(ctx context.Context, program *model.Program) error {
	query := `
		CREATE program CONTENT {
			name: $name,
			funding_source: type::record($funding_source),
			currency: $currency,
			greenphire_generates_1099: $generates_1099,
			preauth_payment_allowed: $preauth_payment_allowed,
			country_list: [],
			created_on: time::now(),
			inserted_on: time::now()
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"name":                    program.Name,
		"funding_source":          program.FundingSourceID,
		"currency":                program.Currency,
		"generates_1099":          program.GeneratesTaxForms,
		"preauth_payment_allowed": program.PreauthPaymentAllowed,
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	program.ID = created.ID
	program.CreatedOn = created.CreatedOn
	return nil
}

// GetProgram retrieves a program by ID
func (s *SurrealStore) GetProgram(ctx context.Context, id string) (*model.Program, error) {
	results, err := s.db.Query(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	p, err := decodeOne[model.Program](results)
	return p, wrapNotFound(err, "program", id)
}

// AddProgramCountry adds a country to the program country list
func (s *SurrealStore) AddProgramCountry(ctx context.Context, programID, countryID string) error {
	query := `UPDATE type::record($program) SET country_list = array::union(country_list ?? [], [type::record($country)])`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"program": programID,
		"country": countryID,
	})
	if err != nil {
		return err
	}
	if _, err := database.FirstRecord(results); err != nil {
		return wrapNotFound(err, "program", programID)
	}
	return nil
}

// CreateCountry creates a country, reusing an existing row with the same ISO code
func (s *SurrealStore) CreateCountry(ctx context.Context, country *model.Country) error {
	existing, err := s.db.QueryOne(ctx, `SELECT id FROM country WHERE iso_code = $iso_code LIMIT 1`,
		map[string]interface{}{"iso_code": country.ISOCode})
	switch {
	case err == nil:
		if m, ok := existing.(map[string]interface{}); ok {
			country.ID = convertSurrealID(m["id"])
			return nil
		}
	case !errors.Is(err, database.ErrNotFound):
		return err
	}

	results, err := s.db.Query(ctx, `CREATE country CONTENT { iso_code: $iso_code, name: $name }`,
		map[string]interface{}{"iso_code": country.ISOCode, "name": country.Name})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	country.ID = created.ID
	return nil
}

// CreateStateProvince creates a state, reusing an existing row for the same country and ISO code
func (s *SurrealStore) CreateStateProvince(ctx context.Context, state *model.StateProvince) error {
	vars := map[string]interface{}{
		"iso_code": state.ISOCode,
		"name":     state.Name,
		"country":  state.CountryID,
	}
	existing, err := s.db.QueryOne(ctx,
		`SELECT id FROM stateprovince WHERE iso_code = $iso_code AND country = type::record($country) LIMIT 1`, vars)
	switch {
	case err == nil:
		if m, ok := existing.(map[string]interface{}); ok {
			state.ID = convertSurrealID(m["id"])
			return nil
		}
	case !errors.Is(err, database.ErrNotFound):
		return err
	}

	results, err := s.db.Query(ctx,
		`CREATE stateprovince CONTENT { iso_code: $iso_code, name: $name, country: type::record($country) }`, vars)
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	state.ID = created.ID
	return nil
}

// CreateAddress creates an address
func (s *SurrealStore) CreateAddress(ctx context.Context, address *model.Address) error {
	query := `
		CREATE address CONTENT {
			line1: $line1,
			city: $city,
			postal_code: $postal_code,
			country: type::record($country),
			stateprovince: IF $stateprovince IS NOT NULL THEN type::record($stateprovince) ELSE NONE END
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"line1":         address.Line1,
		"city":          address.City,
		"postal_code":   address.PostalCode,
		"country":       address.CountryID,
		"stateprovince": nilIfEmpty(address.StateProvinceID),
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	address.ID = created.ID
	return nil
}

// CreateFunding records an issuance funding credit
func (s *SurrealStore) CreateFunding(ctx context.Context, funding *model.Funding) error {
	query := `
		CREATE funding CONTENT {
			funding_source: type::record($funding_source),
			amount: <decimal>$amount,
			currency: $currency,
			added_on: IF $added_on IS NOT NULL THEN <datetime>$added_on ELSE time::now() END,
			inserted_on: time::now()
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"funding_source": funding.FundingSourceID,
		"amount":         amountVar(funding.Amount),
		"currency":       funding.Currency,
		"added_on":       zeroableTime(funding.AddedOn),
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	funding.ID = created.ID
	return nil
}
