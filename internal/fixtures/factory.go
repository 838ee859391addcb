package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/finance-fixtures/internal/database"
	"github.com/forgo/finance-fixtures/internal/model"
	"github.com/forgo/finance-fixtures/internal/repository"
)

// ErrMissingDependency is returned when an entity references a record the store does not hold
var ErrMissingDependency = errors.New("missing dependency")

// Factory creates single entities in a store
type Factory struct {
	store repository.Store
}

// NewFactory creates a new fixture factory
func NewFactory(store repository.Store) *Factory {
	return &Factory{store: store}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// exists fails with ErrMissingDependency unless get finds id
func exists[T any](ctx context.Context, kind, id string, get func(context.Context, string) (T, error)) error {
	if id == "" {
		return fmt.Errorf("%w: %s has not been created", ErrMissingDependency, kind)
	}
	if _, err := get(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %s %s", ErrMissingDependency, kind, id)
		}
		return err
	}
	return nil
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Username  string
	Firstname string
	Lastname  string
	Email     string
	Password  string

	IsStaff                       bool
	GPAdmin                       bool
	CanView1099Reports            bool
	CanViewTravelExceptionReports bool
	CanViewTravelFundingReports   bool
	CanManageUsers                bool

	// Grants maps program IDs to the grants given on them
	Grants map[string][]model.ProgramGrant
}

// CreateUser creates a user with a bcrypt password hash and its program grants.
// The returned user carries no hash.
func (f *Factory) CreateUser(ctx context.Context, opts ...func(*UserOpts)) (*model.User, error) {
	id := randomID()
	o := &UserOpts{
		Username:  fmt.Sprintf("user_%s", id),
		Firstname: "Test",
		Lastname:  "User",
		Email:     fmt.Sprintf("user_%s@test.local", id),
		Password:  "testpass123",
	}
	for _, fn := range opts {
		fn(o)
	}

	for programID := range o.Grants {
		if err := exists(ctx, "program", programID, f.store.GetProgram); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	user := &model.User{
		Username:                      o.Username,
		Firstname:                     o.Firstname,
		Lastname:                      o.Lastname,
		Email:                         o.Email,
		Hash:                          &hashStr,
		IsStaff:                       o.IsStaff,
		GPAdmin:                       o.GPAdmin,
		CanView1099Reports:            o.CanView1099Reports,
		CanViewTravelExceptionReports: o.CanViewTravelExceptionReports,
		CanViewTravelFundingReports:   o.CanViewTravelFundingReports,
		CanManageUsers:                o.CanManageUsers,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := f.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	for programID, grants := range o.Grants {
		for _, grant := range grants {
			if err := f.store.GrantProgram(ctx, user.ID, programID, grant); err != nil {
				return nil, err
			}
			user.AddGrant(programID, grant)
		}
	}

	user.Hash = nil // Don't expose hash in fixture
	return user, nil
}

// GrantProgram gives user grants on program
func (f *Factory) GrantProgram(ctx context.Context, user *model.User, program *model.Program, grants ...model.ProgramGrant) error {
	if err := exists(ctx, "user", user.ID, f.store.GetUser); err != nil {
		return err
	}
	if err := exists(ctx, "program", program.ID, f.store.GetProgram); err != nil {
		return err
	}
	for _, grant := range grants {
		if err := f.store.GrantProgram(ctx, user.ID, program.ID, grant); err != nil {
			return err
		}
		user.AddGrant(program.ID, grant)
	}
	return nil
}

// WithGrants gives the user grants on a program
func WithGrants(programID string, grants ...model.ProgramGrant) func(*UserOpts) {
	return func(o *UserOpts) {
		if o.Grants == nil {
			o.Grants = make(map[string][]model.ProgramGrant)
		}
		o.Grants[programID] = append(o.Grants[programID], grants...)
	}
}

// ============================================================================
// Program Fixtures
// ============================================================================

// FundingSourceOpts customizes funding source creation
type FundingSourceOpts struct {
	Name                     string
	DisplayPrograms          string
	Currency                 string
	LowBalanceThreshold      decimal.Decimal
	CriticalBalanceThreshold decimal.Decimal
}

// CreateFundingSource creates a funding source
func (f *Factory) CreateFundingSource(ctx context.Context, opts ...func(*FundingSourceOpts)) (*model.FundingSource, error) {
	o := &FundingSourceOpts{
		Name:                     fmt.Sprintf("Funding Source %s", randomID()),
		Currency:                 model.DefaultCurrency,
		LowBalanceThreshold:      decimal.NewFromInt(1000),
		CriticalBalanceThreshold: decimal.NewFromInt(100),
	}
	for _, fn := range opts {
		fn(o)
	}

	fs := &model.FundingSource{
		Name:                     o.Name,
		DisplayPrograms:          o.DisplayPrograms,
		Currency:                 o.Currency,
		LowBalanceThreshold:      o.LowBalanceThreshold,
		CriticalBalanceThreshold: o.CriticalBalanceThreshold,
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	if err := f.store.CreateFundingSource(ctx, fs); err != nil {
		return nil, err
	}
	return fs, nil
}

// ProgramOpts customizes program creation
type ProgramOpts struct {
	Name                  string
	Currency              string // Defaults to the funding source currency
	GeneratesTaxForms     bool
	PreauthPaymentAllowed bool
}

// CreateProgram creates a program paid from fs
func (f *Factory) CreateProgram(ctx context.Context, fs *model.FundingSource, opts ...func(*ProgramOpts)) (*model.Program, error) {
	o := &ProgramOpts{
		Name: fmt.Sprintf("Program %s", randomID()),
	}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "funding source", fs.ID, f.store.GetFundingSource); err != nil {
		return nil, err
	}
	if o.Currency == "" {
		o.Currency = fs.Currency
	}

	program := &model.Program{
		Name:                  o.Name,
		FundingSourceID:       fs.ID,
		Currency:              o.Currency,
		GeneratesTaxForms:     o.GeneratesTaxForms,
		PreauthPaymentAllowed: o.PreauthPaymentAllowed,
	}
	if err := program.Validate(); err != nil {
		return nil, err
	}
	if err := f.store.CreateProgram(ctx, program); err != nil {
		return nil, err
	}
	return program, nil
}

// AddressOpts customizes address creation
type AddressOpts struct {
	Line1       string
	City        string
	PostalCode  string
	CountryISO  string
	CountryName string
	StateISO    string
	StateName   string
	// Program, when set, gains the address country in its country list
	Program *model.Program
}

// CreateAddress creates an address with its country and state
func (f *Factory) CreateAddress(ctx context.Context, opts ...func(*AddressOpts)) (*model.Address, error) {
	o := &AddressOpts{
		Line1:       "1600 Pennsylvania Ave NW",
		City:        "Princeton",
		PostalCode:  "08540",
		CountryISO:  "US",
		CountryName: "USA",
		StateISO:    "NJ",
		StateName:   "New Jersey",
	}
	for _, fn := range opts {
		fn(o)
	}

	if o.Program != nil {
		if err := exists(ctx, "program", o.Program.ID, f.store.GetProgram); err != nil {
			return nil, err
		}
	}

	country := &model.Country{ISOCode: o.CountryISO, Name: o.CountryName}
	if err := f.store.CreateCountry(ctx, country); err != nil {
		return nil, err
	}
	state := &model.StateProvince{ISOCode: o.StateISO, Name: o.StateName, CountryID: country.ID}
	if err := f.store.CreateStateProvince(ctx, state); err != nil {
		return nil, err
	}

	address := &model.Address{
		Line1:           o.Line1,
		City:            o.City,
		PostalCode:      o.PostalCode,
		CountryID:       country.ID,
		StateProvinceID: state.ID,
	}
	if err := f.store.CreateAddress(ctx, address); err != nil {
		return nil, err
	}

	if o.Program != nil {
		if err := f.store.AddProgramCountry(ctx, o.Program.ID, country.ID); err != nil {
			return nil, err
		}
		if !o.Program.HasCountry(country.ID) {
			o.Program.Countries = append(o.Program.Countries, country.ID)
		}
	}
	return address, nil
}

// FundingOpts customizes issuance funding
type FundingOpts struct {
	Amount   decimal.Decimal
	Currency string // Defaults to the funding source currency
	AddedOn  time.Time
}

// CreateFunding loads funds onto a funding source
func (f *Factory) CreateFunding(ctx context.Context, fs *model.FundingSource, opts ...func(*FundingOpts)) (*model.Funding, error) {
	o := &FundingOpts{
		Amount: decimal.RequireFromString("150.00"),
	}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "funding source", fs.ID, f.store.GetFundingSource); err != nil {
		return nil, err
	}
	if o.Currency == "" {
		o.Currency = fs.Currency
	}

	funding := &model.Funding{
		FundingSourceID: fs.ID,
		Amount:          o.Amount,
		Currency:        o.Currency,
		AddedOn:         o.AddedOn,
	}
	if err := funding.Validate(); err != nil {
		return nil, err
	}
	if err := f.store.CreateFunding(ctx, funding); err != nil {
		return nil, err
	}
	return funding, nil
}

// ============================================================================
// Site Fixtures
// ============================================================================

// StudyOpts customizes study creation
type StudyOpts struct {
	Name string
}

// CreateStudy creates a study under program
func (f *Factory) CreateStudy(ctx context.Context, program *model.Program, opts ...func(*StudyOpts)) (*model.Study, error) {
	o := &StudyOpts{
		Name: fmt.Sprintf("Study %s", randomID()),
	}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "program", program.ID, f.store.GetProgram); err != nil {
		return nil, err
	}

	study := &model.Study{Name: o.Name, ProgramID: program.ID}
	if err := f.store.CreateStudy(ctx, study); err != nil {
		return nil, err
	}
	return study, nil
}

// SiteOpts customizes site creation
type SiteOpts struct {
	PrimaryName string
	Address     *model.Address
}

// CreateSite creates a site owned by owner
func (f *Factory) CreateSite(ctx context.Context, owner *model.User, opts ...func(*SiteOpts)) (*model.Site, error) {
	o := &SiteOpts{
		PrimaryName: fmt.Sprintf("Site %s", randomID()),
	}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "user", owner.ID, f.store.GetUser); err != nil {
		return nil, err
	}

	site := &model.Site{PrimaryName: o.PrimaryName, UserID: owner.ID}
	if o.Address != nil {
		site.AddressID = o.Address.ID
	}
	if err := f.store.CreateSite(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// CreateSiteStudy links site and study
func (f *Factory) CreateSiteStudy(ctx context.Context, site *model.Site, study *model.Study) (*model.SiteStudy, error) {
	if err := exists(ctx, "site", site.ID, f.store.GetSite); err != nil {
		return nil, err
	}
	if err := exists(ctx, "study", study.ID, f.store.GetStudy); err != nil {
		return nil, err
	}

	link := &model.SiteStudy{SiteID: site.ID, StudyID: study.ID}
	if err := f.store.CreateSiteStudy(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// SiteCoordinatorOpts customizes coordinator creation
type SiteCoordinatorOpts struct {
	Studies []*model.Study
}

// CreateSiteCoordinator makes user a coordinator at site for the given studies
func (f *Factory) CreateSiteCoordinator(ctx context.Context, user *model.User, site *model.Site, opts ...func(*SiteCoordinatorOpts)) (*model.SiteCoordinator, error) {
	o := &SiteCoordinatorOpts{}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "user", user.ID, f.store.GetUser); err != nil {
		return nil, err
	}
	if err := exists(ctx, "site", site.ID, f.store.GetSite); err != nil {
		return nil, err
	}
	studyIDs := make([]string, 0, len(o.Studies))
	for _, study := range o.Studies {
		if err := exists(ctx, "study", study.ID, f.store.GetStudy); err != nil {
			return nil, err
		}
		studyIDs = append(studyIDs, study.ID)
	}

	coordinator := &model.SiteCoordinator{UserID: user.ID, SiteID: site.ID, StudyIDs: studyIDs}
	if err := f.store.CreateSiteCoordinator(ctx, coordinator); err != nil {
		return nil, err
	}
	return coordinator, nil
}

// AddCoordinatorStudy links one more study to an existing coordinator
func (f *Factory) AddCoordinatorStudy(ctx context.Context, coordinator *model.SiteCoordinator, study *model.Study) error {
	if err := exists(ctx, "study", study.ID, f.store.GetStudy); err != nil {
		return err
	}
	if err := f.store.AddCoordinatorStudy(ctx, coordinator.ID, study.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: site coordinator %s", ErrMissingDependency, coordinator.ID)
		}
		return err
	}
	if !coordinator.CoordinatesStudy(study.ID) {
		coordinator.StudyIDs = append(coordinator.StudyIDs, study.ID)
	}
	return nil
}

// CardholderOpts customizes cardholder creation
type CardholderOpts struct {
	Firstname string
	Lastname  string
	User      *model.User // Defaults to the site owner
}

// CreateCardholder enrolls a cardholder at site
func (f *Factory) CreateCardholder(ctx context.Context, site *model.Site, opts ...func(*CardholderOpts)) (*model.Cardholder, error) {
	o := &CardholderOpts{
		Firstname: "Card",
		Lastname:  fmt.Sprintf("Holder %s", randomID()),
	}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "site", site.ID, f.store.GetSite); err != nil {
		return nil, err
	}
	userID := site.UserID
	if o.User != nil {
		userID = o.User.ID
	}
	if err := exists(ctx, "user", userID, f.store.GetUser); err != nil {
		return nil, err
	}

	cardholder := &model.Cardholder{
		Firstname: o.Firstname,
		Lastname:  o.Lastname,
		SiteID:    site.ID,
		UserID:    userID,
	}
	if err := f.store.CreateCardholder(ctx, cardholder); err != nil {
		return nil, err
	}
	return cardholder, nil
}

// AppointmentOpts customizes appointment creation
type AppointmentOpts struct {
	Scheduled time.Time
	CreatedOn time.Time
}

// CreateAppointment schedules a visit for cardholder in study
func (f *Factory) CreateAppointment(ctx context.Context, cardholder *model.Cardholder, study *model.Study, createdBy *model.User, opts ...func(*AppointmentOpts)) (*model.Appointment, error) {
	now := time.Now()
	o := &AppointmentOpts{
		Scheduled: now,
		CreatedOn: now,
	}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "cardholder", cardholder.ID, f.store.GetCardholder); err != nil {
		return nil, err
	}
	if err := exists(ctx, "study", study.ID, f.store.GetStudy); err != nil {
		return nil, err
	}
	if err := exists(ctx, "user", createdBy.ID, f.store.GetUser); err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		CardholderID: cardholder.ID,
		StudyID:      study.ID,
		Scheduled:    o.Scheduled,
		CreatedBy:    createdBy.ID,
		CreatedOn:    o.CreatedOn,
	}
	if err := f.store.CreateAppointment(ctx, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// ============================================================================
// Ledger Fixtures
// ============================================================================

// PaymentOpts customizes payment creation.
// Outcome selects the terminal status applied before the payment is written.
type PaymentOpts struct {
	Amount      decimal.Decimal
	Taxable     bool
	RequestDate *time.Time
	Notes       string
	Manual      bool // Also write the manual payment record

	Outcome    model.PaymentStatus
	Reviewer   *model.User
	ReviewedOn time.Time
}

// WithApproval approves the payment as reviewer at the given time
func WithApproval(reviewer *model.User, at time.Time) func(*PaymentOpts) {
	return func(o *PaymentOpts) {
		o.Outcome = model.PaymentStatusApproved
		o.Reviewer = reviewer
		o.ReviewedOn = at
	}
}

// WithDecline declines the payment as reviewer at the given time
func WithDecline(reviewer *model.User, at time.Time) func(*PaymentOpts) {
	return func(o *PaymentOpts) {
		o.Outcome = model.PaymentStatusDeclined
		o.Reviewer = reviewer
		o.ReviewedOn = at
	}
}

// CreatePayment creates a payment from payer to payee requested by requester
func (f *Factory) CreatePayment(ctx context.Context, payee *model.Cardholder, payer *model.Study, requester *model.User, opts ...func(*PaymentOpts)) (*model.Payment, error) {
	o := &PaymentOpts{
		Amount:  decimal.RequireFromString("10.00"),
		Manual:  true,
		Outcome: model.PaymentStatusPending,
	}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "cardholder", payee.ID, f.store.GetCardholder); err != nil {
		return nil, err
	}
	if err := exists(ctx, "study", payer.ID, f.store.GetStudy); err != nil {
		return nil, err
	}
	if err := exists(ctx, "user", requester.ID, f.store.GetUser); err != nil {
		return nil, err
	}

	payment := &model.Payment{
		Amount:      o.Amount,
		PayeeID:     payee.ID,
		PayerID:     payer.ID,
		RequestedBy: requester.ID,
		Status:      model.PaymentStatusPending,
		RequestDate: o.RequestDate,
		Notes:       o.Notes,
	}

	if o.Outcome != model.PaymentStatusPending {
		var reviewerID string
		if o.Reviewer != nil {
			reviewerID = o.Reviewer.ID
			if err := exists(ctx, "user", reviewerID, f.store.GetUser); err != nil {
				return nil, err
			}
		}
		var err error
		switch o.Outcome {
		case model.PaymentStatusApproved:
			err = payment.Approve(reviewerID, o.ReviewedOn, "")
		case model.PaymentStatusDeclined:
			err = payment.Decline(reviewerID, o.ReviewedOn, "")
		default:
			err = fmt.Errorf("%w: %q", model.ErrInvalidTransition, o.Outcome)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	var manual *model.ManualPayment
	if o.Manual {
		manual = &model.ManualPayment{
			Amount:      payment.Amount,
			Taxable:     o.Taxable,
			RequestDate: o.RequestDate,
		}
		if err := manual.Validate(payment); err != nil {
			return nil, err
		}
	}

	if err := f.store.CreatePayment(ctx, payment, manual); err != nil {
		return nil, err
	}
	return payment, nil
}

// DepositOpts customizes deposit creation
type DepositOpts struct {
	Amount          decimal.Decimal
	Origin          *model.Payment
	Hold            bool
	ProcessingNotes string
	Processed       bool
	ProcessedOn     *time.Time
	Sent            bool
	SentOn          *time.Time
	CreatedOn       time.Time
}

// Settled marks the deposit processed and sent at the given time
func Settled(at time.Time) func(*DepositOpts) {
	return func(o *DepositOpts) {
		o.Processed = true
		o.ProcessedOn = &at
		o.Sent = true
		o.SentOn = &at
	}
}

// OnHold holds the deposit with a processing note
func OnHold(note string) func(*DepositOpts) {
	return func(o *DepositOpts) {
		o.Hold = true
		o.ProcessingNotes = note
	}
}

// CreateDeposit credits cardholder from study
func (f *Factory) CreateDeposit(ctx context.Context, cardholder *model.Cardholder, study *model.Study, opts ...func(*DepositOpts)) (*model.Deposit, error) {
	o := &DepositOpts{
		Amount: decimal.RequireFromString("10.00"),
	}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "cardholder", cardholder.ID, f.store.GetCardholder); err != nil {
		return nil, err
	}
	if err := exists(ctx, "study", study.ID, f.store.GetStudy); err != nil {
		return nil, err
	}

	deposit := &model.Deposit{
		Amount:          o.Amount,
		CardholderID:    cardholder.ID,
		StudyID:         study.ID,
		Hold:            o.Hold,
		Processed:       o.Processed,
		ProcessedOn:     o.ProcessedOn,
		Sent:            o.Sent,
		SentOn:          o.SentOn,
		ProcessingNotes: o.ProcessingNotes,
		CreatedOn:       o.CreatedOn,
	}
	if o.Origin != nil {
		if err := exists(ctx, "payment", o.Origin.ID, f.store.GetPayment); err != nil {
			return nil, err
		}
		deposit.OriginID = o.Origin.ID
	}
	if err := deposit.Validate(); err != nil {
		return nil, err
	}
	if err := f.store.CreateDeposit(ctx, deposit); err != nil {
		return nil, err
	}
	return deposit, nil
}

// EscrowFundingOpts customizes travel funding transactions
type EscrowFundingOpts struct {
	Amount          decimal.Decimal
	Date            time.Time
	Type            model.TransactionType
	DescriptionKind model.TransactionDescription
	Description     string
	CheckNumber     string
}

// CreateEscrowFunding records a travel funding transaction on fs
func (f *Factory) CreateEscrowFunding(ctx context.Context, fs *model.FundingSource, opts ...func(*EscrowFundingOpts)) (*model.EscrowFunding, error) {
	o := &EscrowFundingOpts{
		Amount:          decimal.RequireFromString("10.00"),
		Date:            time.Now(),
		Type:            model.TransactionCredit,
		DescriptionKind: model.DescriptionTravelReimbursement,
	}
	for _, fn := range opts {
		fn(o)
	}

	if err := exists(ctx, "funding source", fs.ID, f.store.GetFundingSource); err != nil {
		return nil, err
	}

	entry := &model.EscrowFunding{
		FundingSourceID:        fs.ID,
		TransactionAmount:      o.Amount,
		TransactionDate:        o.Date,
		TransactionType:        o.Type,
		TransactionDescription: o.DescriptionKind,
		Description:            o.Description,
		CheckNumber:            o.CheckNumber,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := f.store.CreateEscrowFunding(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
