package fixtures

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/forgo/finance-fixtures/internal/model"
	"github.com/forgo/finance-fixtures/internal/money"
)

// Credentials is a seeded login
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Fixture holds handles to everything a build created.
// Accessors return copies.
type Fixture struct {
	password      string
	referenceDate time.Time

	users         []model.User
	fundingSource model.FundingSource
	program       model.Program
	address       model.Address
	funding       model.Funding
	study         model.Study
	site          model.Site
	coordinators  []model.SiteCoordinator
	cardholders   []model.Cardholder

	depositTotals map[string]decimal.Decimal
	approved      []model.Payment
	settled       []model.Deposit
	held          []model.Deposit
	declined      []model.Payment
	appointments  []model.Appointment
	travelFunding []model.EscrowFunding
}

func newFixture(password string, referenceDate time.Time) *Fixture {
	return &Fixture{
		password:      password,
		referenceDate: referenceDate,
		depositTotals: make(map[string]decimal.Decimal),
	}
}

func (f *Fixture) addUsers(users ...*model.User) {
	f.users = f.users[:0]
	for _, u := range users {
		f.users = append(f.users, *u)
	}
}

func (f *Fixture) addCardholder(ch model.Cardholder) {
	f.cardholders = append(f.cardholders, ch)
	f.depositTotals[ch.ID] = decimal.Zero
}

func (f *Fixture) addDepositPair(payment model.Payment, settled, held model.Deposit) {
	f.approved = append(f.approved, payment)
	f.settled = append(f.settled, settled)
	f.held = append(f.held, held)
	f.depositTotals[settled.CardholderID] = money.Sum(f.depositTotals[settled.CardholderID], settled.Amount)
}

// Login returns the primary user's credentials
func (f *Fixture) Login() Credentials {
	return Credentials{Username: PrimaryUsername, Password: f.password}
}

// Credentials returns the login of a seeded user
func (f *Fixture) Credentials(username string) (Credentials, bool) {
	for _, u := range f.users {
		if u.Username == username {
			return Credentials{Username: u.Username, Password: f.password}, true
		}
	}
	return Credentials{}, false
}

// ReferenceDate is the date stamped on generated records
func (f *Fixture) ReferenceDate() time.Time { return f.referenceDate }

// Users returns the seeded users: primary, reviewer, requester, user manager
func (f *Fixture) Users() []model.User { return cloneUsers(f.users) }

// User returns a seeded user by username
func (f *Fixture) User(username string) (model.User, bool) {
	for _, u := range f.users {
		if u.Username == username {
			return cloneUsers([]model.User{u})[0], true
		}
	}
	return model.User{}, false
}

func (f *Fixture) FundingSource() model.FundingSource { return f.fundingSource }
func (f *Fixture) Funding() model.Funding             { return f.funding }
func (f *Fixture) Study() model.Study                 { return f.study }
func (f *Fixture) Site() model.Site                   { return f.site }
func (f *Fixture) Address() model.Address             { return f.address }

// Program returns the seeded program
func (f *Fixture) Program() model.Program {
	p := f.program
	p.Countries = append([]string(nil), p.Countries...)
	return p
}

// Coordinators returns one site coordinator per seeded user
func (f *Fixture) Coordinators() []model.SiteCoordinator {
	out := make([]model.SiteCoordinator, len(f.coordinators))
	for i, c := range f.coordinators {
		c.StudyIDs = append([]string(nil), c.StudyIDs...)
		out[i] = c
	}
	return out
}

// Cardholders returns the cardholders in creation order
func (f *Fixture) Cardholders() []model.Cardholder { return append([]model.Cardholder(nil), f.cardholders...) }

// DepositTotal is the sum of a cardholder's settled deposits
func (f *Fixture) DepositTotal(cardholderID string) decimal.Decimal {
	return f.depositTotals[cardholderID]
}

// DepositTotals returns settled deposit sums keyed by cardholder ID
func (f *Fixture) DepositTotals() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(f.depositTotals))
	for id, total := range f.depositTotals {
		out[id] = total
	}
	return out
}

func (f *Fixture) ApprovedPayments() []model.Payment { return append([]model.Payment(nil), f.approved...) }
func (f *Fixture) DeclinedPayments() []model.Payment { return append([]model.Payment(nil), f.declined...) }
func (f *Fixture) SettledDeposits() []model.Deposit  { return append([]model.Deposit(nil), f.settled...) }
func (f *Fixture) HeldDeposits() []model.Deposit     { return append([]model.Deposit(nil), f.held...) }

func (f *Fixture) Appointments() []model.Appointment {
	return append([]model.Appointment(nil), f.appointments...)
}

// TravelFunding returns escrow entries in creation order
func (f *Fixture) TravelFunding() []model.EscrowFunding {
	return append([]model.EscrowFunding(nil), f.travelFunding...)
}

// Summary is the JSON handoff to the browser suite
type Summary struct {
	ReferenceDate time.Time           `json:"reference_date"`
	Login         Credentials         `json:"login"`
	Usernames     []string            `json:"usernames"`
	FundingSource string              `json:"funding_source"`
	Program       string              `json:"program"`
	Study         string              `json:"study"`
	Site          string              `json:"site"`
	Funding       string              `json:"funding_amount"`
	Cardholders   []CardholderSummary `json:"cardholders"`
	Counts        map[string]int      `json:"counts"`
}

// CardholderSummary lists a cardholder with its settled deposit total
type CardholderSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepositTotal string `json:"deposit_total"`
}

// Summary reports IDs, logins and counts
func (f *Fixture) Summary() Summary {
	s := Summary{
		ReferenceDate: f.referenceDate,
		Login:         f.Login(),
		FundingSource: f.fundingSource.ID,
		Program:       f.program.ID,
		Study:         f.study.ID,
		Site:          f.site.ID,
		Funding:       money.Format(f.funding.Amount),
		Counts: map[string]int{
			"users":             len(f.users),
			"coordinators":      len(f.coordinators),
			"approved_payments": len(f.approved),
			"settled_deposits":  len(f.settled),
			"held_deposits":     len(f.held),
			"declined_payments": len(f.declined),
			"appointments":      len(f.appointments),
			"travel_funding":    len(f.travelFunding),
		},
	}
	for _, u := range f.users {
		s.Usernames = append(s.Usernames, u.Username)
	}
	for _, ch := range f.cardholders {
		s.Cardholders = append(s.Cardholders, CardholderSummary{
			ID:           ch.ID,
			Name:         ch.FullName(),
			DepositTotal: money.Format(f.depositTotals[ch.ID]),
		})
	}
	return s
}

func cloneUsers(users []model.User) []model.User {
	out := make([]model.User, len(users))
	for i, u := range users {
		u.AdminPrograms = append([]string(nil), u.AdminPrograms...)
		u.ReportPrograms = append([]string(nil), u.ReportPrograms...)
		u.Programs1099 = append([]string(nil), u.Programs1099...)
		out[i] = u
	}
	return out
}
