// Package memory provides an in-memory repository.Store.
//
// Records are copied on the way in and on the way out, so callers never hold
// a pointer into the store. IDs use the "table:uuid" shape of SurrealDB record
// IDs so fixtures built against either store look alike.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/finance-fixtures/internal/database"
	"github.com/forgo/finance-fixtures/internal/model"
	"github.com/forgo/finance-fixtures/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// table keeps rows by ID plus their insertion order
type table[T any] struct {
	name  string
	rows  map[string]T
	order []string
}

func newTable[T any](name string) *table[T] {
	return &table[T]{name: name, rows: make(map[string]T)}
}

func (t *table[T]) insert(id string, row T) {
	t.rows[id] = row
	t.order = append(t.order, id)
}

func (t *table[T]) get(id string) (T, error) {
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %s", database.ErrNotFound, t.name, id)
	}
	return row, nil
}

func (t *table[T]) each(fn func(T)) {
	for _, id := range t.order {
		fn(t.rows[id])
	}
}

// Store is a mutex-guarded, map-backed repository.Store
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users         *table[model.User]
	usernames     map[string]string
	fundingSource *table[model.FundingSource]
	programs      *table[model.Program]
	countries     *table[model.Country]
	states        *table[model.StateProvince]
	addresses     *table[model.Address]
	funding       *table[model.Funding]
	studies       *table[model.Study]
	sites         *table[model.Site]
	siteStudies   *table[model.SiteStudy]
	coordinators  *table[model.SiteCoordinator]
	cardholders   *table[model.Cardholder]
	appointments  *table[model.Appointment]
	payments      *table[model.Payment]
	manual        *table[model.ManualPayment]
	deposits      *table[model.Deposit]
	escrow        *table[model.EscrowFunding]
}

// New creates an empty store
func New() *Store {
	s := &Store{now: time.Now}
	s.clear()
	return s
}

// clear allocates empty tables; callers hold mu or own s exclusively
func (s *Store) clear() {
	s.users = newTable[model.User]("user")
	s.usernames = make(map[string]string)
	s.fundingSource = newTable[model.FundingSource]("funding_source")
	s.programs = newTable[model.Program]("program")
	s.countries = newTable[model.Country]("country")
	s.states = newTable[model.StateProvince]("stateprovince")
	s.addresses = newTable[model.Address]("address")
	s.funding = newTable[model.Funding]("funding")
	s.studies = newTable[model.Study]("study")
	s.sites = newTable[model.Site]("site")
	s.siteStudies = newTable[model.SiteStudy]("site_study")
	s.coordinators = newTable[model.SiteCoordinator]("site_coordinator")
	s.cardholders = newTable[model.Cardholder]("cardholder")
	s.appointments = newTable[model.Appointment]("appointment")
	s.payments = newTable[model.Payment]("payment")
	s.manual = newTable[model.ManualPayment]("manual_payment")
	s.deposits = newTable[model.Deposit]("deposit")
	s.escrow = newTable[model.EscrowFunding]("escrow_funding")
}

// Reset drops every record
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	return nil
}

func newID(tb string) string {
	return tb + ":" + uuid.NewString()
}

// Counts returns the number of rows per table
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]int{
		s.users.name:         len(s.users.order),
		s.fundingSource.name: len(s.fundingSource.order),
		s.programs.name:      len(s.programs.order),
		s.countries.name:     len(s.countries.order),
		s.states.name:        len(s.states.order),
		s.addresses.name:     len(s.addresses.order),
		s.funding.name:       len(s.funding.order),
		s.studies.name:       len(s.studies.order),
		s.sites.name:         len(s.sites.order),
		s.siteStudies.name:   len(s.siteStudies.order),
		s.coordinators.name:  len(s.coordinators.order),
		s.cardholders.name:   len(s.cardholders.order),
		s.appointments.name:  len(s.appointments.order),
		s.payments.name:      len(s.payments.order),
		s.manual.name:        len(s.manual.order),
		s.deposits.name:      len(s.deposits.order),
		s.escrow.name:        len(s.escrow.order),
	}
}

// ============================================================================
// Users
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[user.Username]; taken {
		return fmt.Errorf("%w: username %q already exists", database.ErrDuplicate, user.Username)
	}
	user.ID = newID(s.users.name)
	if user.CreatedOn.IsZero() {
		user.CreatedOn = s.now()
	}
	s.users.insert(user.ID, cloneUser(*user))
	s.usernames[user.Username] = user.ID
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.users.get(id)
	if err != nil {
		return nil, err
	}
	out := cloneUser(u)
	return &out, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.usernames[username]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: username %q", database.ErrNotFound, username)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GrantProgram(ctx context.Context, userID, programID string, grant model.ProgramGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !grant.IsValid() {
		return fmt.Errorf("%w: unknown grant %q", database.ErrQuery, grant)
	}
	u, err := s.users.get(userID)
	if err != nil {
		return err
	}
	if _, err := s.programs.get(programID); err != nil {
		return err
	}
	u = cloneUser(u)
	u.AddGrant(programID, grant)
	s.users.rows[userID] = u
	return nil
}

// ============================================================================
// Programs
// ============================================================================

func (s *Store) CreateFundingSource(ctx context.Context, fs *model.FundingSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs.ID = newID(s.fundingSource.name)
	if fs.CreatedOn.IsZero() {
		fs.CreatedOn = s.now()
	}
	s.fundingSource.insert(fs.ID, *fs)
	return nil
}

func (s *Store) GetFundingSource(ctx context.Context, id string) (*model.FundingSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fs, err := s.fundingSource.get(id)
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

func (s *Store) CreateProgram(ctx context.Context, program *model.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	program.ID = newID(s.programs.name)
	if program.CreatedOn.IsZero() {
		program.CreatedOn = s.now()
	}
	s.programs.insert(program.ID, cloneProgram(*program))
	return nil
}

func (s *Store) GetProgram(ctx context.Context, id string) (*model.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.programs.get(id)
	if err != nil {
		return nil, err
	}
	out := cloneProgram(p)
	return &out, nil
}

func (s *Store) AddProgramCountry(ctx context.Context, programID, countryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.programs.get(programID)
	if err != nil {
		return err
	}
	if _, err := s.countries.get(countryID); err != nil {
		return err
	}
	if p.HasCountry(countryID) {
		return nil
	}
	p = cloneProgram(p)
	p.Countries = append(p.Countries, countryID)
	s.programs.rows[programID] = p
	return nil
}

func (s *Store) CreateCountry(ctx context.Context, country *model.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Countries are keyed by ISO code so repeated addresses share one row
	for _, id := range s.countries.order {
		if s.countries.rows[id].ISOCode == country.ISOCode {
			country.ID = id
			return nil
		}
	}
	country.ID = newID(s.countries.name)
	s.countries.insert(country.ID, *country)
	return nil
}

func (s *Store) CreateStateProvince(ctx context.Context, state *model.StateProvince) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.states.order {
		existing := s.states.rows[id]
		if existing.ISOCode == state.ISOCode && existing.CountryID == state.CountryID {
			state.ID = id
			return nil
		}
	}
	state.ID = newID(s.states.name)
	s.states.insert(state.ID, *state)
	return nil
}

func (s *Store) CreateAddress(ctx context.Context, address *model.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	address.ID = newID(s.addresses.name)
	s.addresses.insert(address.ID, *address)
	return nil
}

func (s *Store) CreateFunding(ctx context.Context, funding *model.Funding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	funding.ID = newID(s.funding.name)
	if funding.AddedOn.IsZero() {
		funding.AddedOn = s.now()
	}
	s.funding.insert(funding.ID, *funding)
	return nil
}

// ============================================================================
// Sites
// ============================================================================

func (s *Store) CreateStudy(ctx context.Context, study *model.Study) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	study.ID = newID(s.studies.name)
	if study.CreatedOn.IsZero() {
		study.CreatedOn = s.now()
	}
	s.studies.insert(study.ID, *study)
	return nil
}

func (s *Store) GetStudy(ctx context.Context, id string) (*model.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.studies.get(id)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) CreateSite(ctx context.Context, site *model.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	site.ID = newID(s.sites.name)
	if site.CreatedOn.IsZero() {
		site.CreatedOn = s.now()
	}
	s.sites.insert(site.ID, *site)
	return nil
}

func (s *Store) GetSite(ctx context.Context, id string) (*model.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, err := s.sites.get(id)
	if err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *Store) CreateSiteStudy(ctx context.Context, link *model.SiteStudy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link.ID = newID(s.siteStudies.name)
	s.siteStudies.insert(link.ID, *link)
	return nil
}

func (s *Store) CreateSiteCoordinator(ctx context.Context, coordinator *model.SiteCoordinator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coordinator.ID = newID(s.coordinators.name)
	s.coordinators.insert(coordinator.ID, cloneCoordinator(*coordinator))
	return nil
}

func (s *Store) AddCoordinatorStudy(ctx context.Context, coordinatorID, studyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.coordinators.get(coordinatorID)
	if err != nil {
		return err
	}
	if _, err := s.studies.get(studyID); err != nil {
		return err
	}
	if c.CoordinatesStudy(studyID) {
		return nil
	}
	c = cloneCoordinator(c)
	c.StudyIDs = append(c.StudyIDs, studyID)
	s.coordinators.rows[coordinatorID] = c
	return nil
}

// GetSiteCoordinator returns a coordinator with its study links
func (s *Store) GetSiteCoordinator(ctx context.Context, id string) (*model.SiteCoordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.coordinators.get(id)
	if err != nil {
		return nil, err
	}
	out := cloneCoordinator(c)
	return &out, nil
}

func (s *Store) CreateCardholder(ctx context.Context, cardholder *model.Cardholder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cardholder.ID = newID(s.cardholders.name)
	if cardholder.CreatedOn.IsZero() {
		cardholder.CreatedOn = s.now()
	}
	s.cardholders.insert(cardholder.ID, *cardholder)
	return nil
}

func (s *Store) GetCardholder(ctx context.Context, id string) (*model.Cardholder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, err := s.cardholders.get(id)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *Store) CreateAppointment(ctx context.Context, appointment *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointment.ID = newID(s.appointments.name)
	s.appointments.insert(appointment.ID, *appointment)
	return nil
}

// ============================================================================
// Ledger
// ============================================================================

func (s *Store) CreatePayment(ctx context.Context, payment *model.Payment, manual *model.ManualPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment.ID = newID(s.payments.name)
	if payment.CreatedOn.IsZero() {
		payment.CreatedOn = s.now()
	}
	s.payments.insert(payment.ID, *payment)

	if manual != nil {
		manual.ID = newID(s.manual.name)
		manual.PaymentID = payment.ID
		s.manual.insert(manual.ID, *manual)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.payments.get(id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetManualPayment returns the manual payment record of a payment
func (s *Store) GetManualPayment(ctx context.Context, paymentID string) (*model.ManualPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.manual.order {
		if m := s.manual.rows[id]; m.PaymentID == paymentID {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: manual payment for %s", database.ErrNotFound, paymentID)
}

func (s *Store) ListPaymentsByStatus(ctx context.Context, status model.PaymentStatus) ([]*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Payment, 0)
	s.payments.each(func(p model.Payment) {
		if p.Status == status {
			out = append(out, &p)
		}
	})
	return out, nil
}

func (s *Store) CreateDeposit(ctx context.Context, deposit *model.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deposit.ID = newID(s.deposits.name)
	if deposit.CreatedOn.IsZero() {
		deposit.CreatedOn = s.now()
	}
	s.deposits.insert(deposit.ID, *deposit)
	return nil
}

func (s *Store) ListDepositsByCardholder(ctx context.Context, cardholderID string) ([]*model.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Deposit, 0)
	s.deposits.each(func(d model.Deposit) {
		if d.CardholderID == cardholderID {
			out = append(out, &d)
		}
	})
	return out, nil
}

func (s *Store) CreateEscrowFunding(ctx context.Context, entry *model.EscrowFunding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = newID(s.escrow.name)
	s.escrow.insert(entry.ID, *entry)
	return nil
}

func (s *Store) ListEscrowByFundingSource(ctx context.Context, fundingSourceID string) ([]*model.EscrowFunding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.EscrowFunding, 0)
	s.escrow.each(func(e model.EscrowFunding) {
		if e.FundingSourceID == fundingSourceID {
			out = append(out, &e)
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return out, nil
}

// ============================================================================
// Clone helpers
// ============================================================================

func cloneUser(u model.User) model.User {
	u.AdminPrograms = append([]string(nil), u.AdminPrograms...)
	u.ReportPrograms = append([]string(nil), u.ReportPrograms...)
	u.Programs1099 = append([]string(nil), u.Programs1099...)
	if u.Hash != nil {
		h := *u.Hash
		u.Hash = &h
	}
	return u
}

func cloneProgram(p model.Program) model.Program {
	p.Countries = append([]string(nil), p.Countries...)
	return p
}

func cloneCoordinator(c model.SiteCoordinator) model.SiteCoordinator {
	c.StudyIDs = append([]string(nil), c.StudyIDs...)
	return c
}
