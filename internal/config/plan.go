package config

import (
	"errors"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forgo/finance-fixtures/internal/fixtures"
)

// PlanFile is a decoded seed plan.
// Seed is nil when the file does not set one.
type PlanFile struct {
	Seed *uint64
	Plan fixtures.Plan
}

type planDocument struct {
	Seed              *uint64       `yaml:"seed"`
	DepositPairs      int           `yaml:"deposit_pairs"`
	DeclinedAttempts  int           `yaml:"declined_attempts"`
	AppointmentRounds int           `yaml:"appointment_rounds"`
	EscrowRounds      int           `yaml:"escrow_rounds"`
	EscrowStep        time.Duration `yaml:"escrow_step"`
}

// DecodePlan reads a YAML plan; keys it omits keep their value from base.
// Unknown keys are rejected.
//
//	seed: 17
//	deposit_pairs: 5
//	declined_attempts: 3
//	appointment_rounds: 2
//	escrow_rounds: 4
//	escrow_step: 1m
func DecodePlan(r io.Reader, base fixtures.Plan) (PlanFile, error) {
	doc := planDocument{
		DepositPairs:      base.DepositPairs,
		DeclinedAttempts:  base.DeclinedAttempts,
		AppointmentRounds: base.AppointmentRounds,
		EscrowRounds:      base.EscrowRounds,
		EscrowStep:        base.EscrowStep,
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return PlanFile{}, err
	}

	return PlanFile{
		Seed: doc.Seed,
		Plan: fixtures.Plan{
			DepositPairs:      doc.DepositPairs,
			DeclinedAttempts:  doc.DeclinedAttempts,
			AppointmentRounds: doc.AppointmentRounds,
			EscrowRounds:      doc.EscrowRounds,
			EscrowStep:        doc.EscrowStep,
		},
	}, nil
}
