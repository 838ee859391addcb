package fixtures

import (
	"context"
	"fmt"
	"log/slog"
	mrand "math/rand/v2"
	"strconv"
	"time"
	_ "time/tzdata" // Reference dates need America/New_York on hosts without zoneinfo

	"github.com/forgo/finance-fixtures/internal/model"
	"github.com/forgo/finance-fixtures/internal/money"
	"github.com/forgo/finance-fixtures/internal/repository"
)

const (
	// DefaultSeed seeds the random source when no seed is given
	DefaultSeed uint64 = 17

	// DefaultPassword is shared by every seeded login
	DefaultPassword = "patr1ot"

	// ReferenceZone is the zone reference dates are computed in
	ReferenceZone = "America/New_York"

	referenceLag   = 48 * time.Hour
	holdSurcharge  = "5.00"
	checkNumberMax = 100_000_000
)

// Fixed text the report pages are asserted against
const (
	HoldNote         = "On hold due to fund shortage"
	DeclineNote      = "When in the course of human Events..."
	EscrowNote       = "Four score and seven years ago..."
	PrimaryUsername  = "gwashington32"
	ReviewerUsername = "jmad44"
)

// Upper bounds of the random amounts
const (
	depositUpper  = 500
	declinedUpper = 100
	escrowUpper   = 50
)

// Plan sets how many rounds of each generated record the builder creates.
// Loops walk the cardholder list once per round.
type Plan struct {
	DepositPairs      int
	DeclinedAttempts  int
	AppointmentRounds int
	EscrowRounds      int
	EscrowStep        time.Duration
}

// DefaultPlan returns the plan the report scenarios are written against
func DefaultPlan() Plan {
	return Plan{
		DepositPairs:      5,
		DeclinedAttempts:  3,
		AppointmentRounds: 2,
		EscrowRounds:      4,
		EscrowStep:        time.Minute,
	}
}

// Validate rejects negative rounds and a non-positive escrow step
func (p Plan) Validate() error {
	var errs []model.FieldError
	counts := []struct {
		field string
		n     int
	}{
		{"deposit_pairs", p.DepositPairs},
		{"declined_attempts", p.DeclinedAttempts},
		{"appointment_rounds", p.AppointmentRounds},
		{"escrow_rounds", p.EscrowRounds},
	}
	for _, c := range counts {
		if c.n < 0 {
			errs = append(errs, model.FieldError{Field: c.field, Message: "must not be negative"})
		}
	}
	if p.EscrowStep <= 0 {
		errs = append(errs, model.FieldError{Field: "escrow_step", Message: "must be positive"})
	}
	if len(errs) == 0 {
		return nil
	}
	return model.NewValidationError("plan", nil, errs...)
}

// Option configures a Builder
type Option func(*Builder)

// WithSeed seeds a PCG source with seed
func WithSeed(seed uint64) Option {
	return func(b *Builder) {
		b.rng = mrand.New(mrand.NewPCG(seed, seed))
	}
}

// WithRand uses r as the random source
func WithRand(r *mrand.Rand) Option {
	return func(b *Builder) {
		b.rng = r
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithClock sets the clock the reference date is derived from
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithPlan replaces the default plan
func WithPlan(plan Plan) Option {
	return func(b *Builder) {
		b.plan = plan
	}
}

// WithPassword sets the password of every seeded login
func WithPassword(password string) Option {
	return func(b *Builder) {
		b.password = password
	}
}

// Builder seeds the finance fixture graph into a store
type Builder struct {
	factory  *Factory
	rng      *mrand.Rand
	logger   *slog.Logger
	now      func() time.Time
	plan     Plan
	password string
}

// NewBuilder creates a builder writing through store
func NewBuilder(store repository.Store, opts ...Option) *Builder {
	b := &Builder{
		factory:  NewFactory(store),
		logger:   slog.Default(),
		now:      time.Now,
		plan:     DefaultPlan(),
		password: DefaultPassword,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		WithSeed(DefaultSeed)(b)
	}
	return b
}

// step is one stage of the build
type step struct {
	name string
	run  func(ctx context.Context, st *buildState) error
}

// buildState carries entities between steps
type buildState struct {
	fx *Fixture

	primary   *model.User
	reviewer  *model.User
	requester *model.User
	manager   *model.User
}

// Build creates the whole graph, failing on the first error.
// The error names the step that failed. Records written by earlier steps stay
// in the store, so call Store.Reset (or discard the store) before retrying.
func (b *Builder) Build(ctx context.Context) (*Fixture, error) {
	if err := b.plan.Validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(ReferenceZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ReferenceZone, err)
	}

	st := &buildState{fx: newFixture(b.password, b.now().In(loc).Add(-referenceLag))}

	steps := []step{
		{"users", b.createUsers},
		{"program", b.createProgram},
		{"grants", b.grantPrograms},
		{"sites", b.createSites},
		{"coordinators", b.createCoordinators},
		{"cardholders", b.createCardholders},
		{"funding", b.createFunding},
		{"deposits", b.createDeposits},
		{"declined payments", b.createDeclinedPayments},
		{"appointments", b.createAppointments},
		{"escrow", b.createEscrow},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		b.logger.Debug("fixture step", slog.String("step", s.name))
		if err := s.run(ctx, st); err != nil {
			b.logger.Error("fixture step failed",
				slog.String("step", s.name),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}

	b.logger.Info("fixtures built",
		slog.String("program", st.fx.program.ID),
		slog.Int("cardholders", len(st.fx.cardholders)),
		slog.Int("settled_deposits", len(st.fx.settled)),
		slog.Int("held_deposits", len(st.fx.held)),
		slog.Int("declined_payments", len(st.fx.declined)),
		slog.Int("appointments", len(st.fx.appointments)),
		slog.Int("travel_funding", len(st.fx.travelFunding)),
	)
	return st.fx, nil
}

// ============================================================================
// Steps
// ============================================================================

func (b *Builder) createUsers(ctx context.Context, st *buildState) error {
	password := func(o *UserOpts) { o.Password = b.password }

	var err error
	st.primary, err = b.factory.CreateUser(ctx, password, func(o *UserOpts) {
		o.Username = PrimaryUsername
		o.Firstname = "George"
		o.Lastname = "Washington"
		o.IsStaff = true
		o.GPAdmin = true
		o.CanView1099Reports = true
		o.CanViewTravelExceptionReports = true
		o.CanViewTravelFundingReports = true
	})
	if err != nil {
		return err
	}

	st.reviewer, err = b.factory.CreateUser(ctx, password, func(o *UserOpts) {
		o.Username = ReviewerUsername
		o.Firstname = "James"
		o.Lastname = "Madison"
	})
	if err != nil {
		return err
	}

	st.requester, err = b.factory.CreateUser(ctx, password)
	if err != nil {
		return err
	}

	st.manager, err = b.factory.CreateUser(ctx, password, func(o *UserOpts) {
		o.CanManageUsers = true
	})
	if err != nil {
		return err
	}

	return nil
}

func (b *Builder) createProgram(ctx context.Context, st *buildState) error {
	fs, err := b.factory.CreateFundingSource(ctx, func(o *FundingSourceOpts) {
		o.Name = "White House Program FS"
		o.DisplayPrograms = "White House Program FS display"
	})
	if err != nil {
		return err
	}

	program, err := b.factory.CreateProgram(ctx, fs, func(o *ProgramOpts) {
		o.Name = "White House Program"
		o.GeneratesTaxForms = true
		o.PreauthPaymentAllowed = true
	})
	if err != nil {
		return err
	}

	// The address puts its country and state in the program form dropdowns
	address, err := b.factory.CreateAddress(ctx, func(o *AddressOpts) {
		o.Program = program
	})
	if err != nil {
		return err
	}

	st.fx.fundingSource = *fs
	st.fx.program = *program
	st.fx.address = *address
	return nil
}

func (b *Builder) grantPrograms(ctx context.Context, st *buildState) error {
	grants := []struct {
		user   *model.User
		grants []model.ProgramGrant
	}{
		{st.primary, []model.ProgramGrant{model.GrantAdmin, model.GrantReport, model.Grant1099}},
		{st.reviewer, []model.ProgramGrant{model.GrantAdmin}},
		{st.requester, []model.ProgramGrant{model.GrantAdmin}},
		{st.manager, []model.ProgramGrant{model.GrantAdmin}},
	}
	for _, g := range grants {
		if err := b.factory.GrantProgram(ctx, g.user, &st.fx.program, g.grants...); err != nil {
			return err
		}
	}
	st.fx.addUsers(st.primary, st.reviewer, st.requester, st.manager)
	return nil
}

func (b *Builder) createSites(ctx context.Context, st *buildState) error {
	study, err := b.factory.CreateStudy(ctx, &st.fx.program, func(o *StudyOpts) {
		o.Name = "White House Study"
	})
	if err != nil {
		return err
	}

	site, err := b.factory.CreateSite(ctx, st.primary, func(o *SiteOpts) {
		o.PrimaryName = "West Wing"
		o.Address = &st.fx.address
	})
	if err != nil {
		return err
	}

	if _, err := b.factory.CreateSiteStudy(ctx, site, study); err != nil {
		return err
	}

	st.fx.study = *study
	st.fx.site = *site
	return nil
}

func (b *Builder) createCoordinators(ctx context.Context, st *buildState) error {
	for _, user := range []*model.User{st.primary, st.reviewer, st.requester, st.manager} {
		coordinator, err := b.factory.CreateSiteCoordinator(ctx, user, &st.fx.site, func(o *SiteCoordinatorOpts) {
			o.Studies = []*model.Study{&st.fx.study}
		})
		if err != nil {
			return err
		}
		st.fx.coordinators = append(st.fx.coordinators, *coordinator)
	}
	return nil
}

func (b *Builder) createCardholders(ctx context.Context, st *buildState) error {
	for _, name := range [][2]string{{"John", "Adams"}, {"Thomas", "Jefferson"}} {
		ch, err := b.factory.CreateCardholder(ctx, &st.fx.site, func(o *CardholderOpts) {
			o.Firstname = name[0]
			o.Lastname = name[1]
			o.User = st.primary
		})
		if err != nil {
			return err
		}
		st.fx.addCardholder(*ch)
	}
	return nil
}

func (b *Builder) createFunding(ctx context.Context, st *buildState) error {
	funding, err := b.factory.CreateFunding(ctx, &st.fx.fundingSource, func(o *FundingOpts) {
		o.AddedOn = st.fx.referenceDate
	})
	if err != nil {
		return err
	}
	st.fx.funding = *funding
	return nil
}

// createDeposits makes one approved payment per round and cardholder, paid out
// as a settled deposit plus a held companion of the same amount + 5.00
func (b *Builder) createDeposits(ctx context.Context, st *buildState) error {
	ref := st.fx.referenceDate
	surcharge := money.MustParse(holdSurcharge)

	for _, ch := range rounds(st.fx.cardholders, b.plan.DepositPairs) {
		amount, err := money.RandomPositive(b.rng, depositUpper)
		if err != nil {
			return err
		}

		payment, err := b.factory.CreatePayment(ctx, ch, &st.fx.study, st.requester, func(o *PaymentOpts) {
			o.Amount = amount
			o.Taxable = true
			o.RequestDate = &ref
		}, WithApproval(st.primary, ref))
		if err != nil {
			return err
		}

		settled, err := b.factory.CreateDeposit(ctx, ch, &st.fx.study, func(o *DepositOpts) {
			o.Amount = amount
			o.Origin = payment
			o.CreatedOn = ref
		}, Settled(ref))
		if err != nil {
			return err
		}

		held, err := b.factory.CreateDeposit(ctx, ch, &st.fx.study, func(o *DepositOpts) {
			o.Amount = amount.Add(surcharge)
			o.Origin = payment
			o.CreatedOn = ref
		}, OnHold(HoldNote))
		if err != nil {
			return err
		}

		st.fx.addDepositPair(*payment, *settled, *held)
	}
	return nil
}

func (b *Builder) createDeclinedPayments(ctx context.Context, st *buildState) error {
	ref := st.fx.referenceDate

	for _, ch := range rounds(st.fx.cardholders, b.plan.DeclinedAttempts) {
		amount, err := money.RandomPositive(b.rng, declinedUpper)
		if err != nil {
			return err
		}

		payment, err := b.factory.CreatePayment(ctx, ch, &st.fx.study, st.requester, func(o *PaymentOpts) {
			o.Amount = amount
			o.Taxable = true
			o.RequestDate = &ref
			o.Notes = DeclineNote
		}, WithDecline(st.reviewer, ref))
		if err != nil {
			return err
		}
		st.fx.declined = append(st.fx.declined, *payment)
	}
	return nil
}

func (b *Builder) createAppointments(ctx context.Context, st *buildState) error {
	ref := st.fx.referenceDate

	for _, ch := range rounds(st.fx.cardholders, b.plan.AppointmentRounds) {
		appointment, err := b.factory.CreateAppointment(ctx, ch, &st.fx.study, st.primary, func(o *AppointmentOpts) {
			o.Scheduled = ref
			o.CreatedOn = ref
		})
		if err != nil {
			return err
		}
		st.fx.appointments = append(st.fx.appointments, *appointment)
	}
	return nil
}

// createEscrow draws amount, type, description and check number in that order per entry
func (b *Builder) createEscrow(ctx context.Context, st *buildState) error {
	ref := st.fx.referenceDate

	for i := range rounds(st.fx.cardholders, b.plan.EscrowRounds) {
		amount, err := money.RandomPositive(b.rng, escrowUpper)
		if err != nil {
			return err
		}
		txType := model.TransactionChoices[b.rng.IntN(len(model.TransactionChoices))]
		txDescription := model.TransactionDescriptionChoices[b.rng.IntN(len(model.TransactionDescriptionChoices))]
		checkNumber := strconv.Itoa(b.rng.IntN(checkNumberMax + 1))

		entry, err := b.factory.CreateEscrowFunding(ctx, &st.fx.fundingSource, func(o *EscrowFundingOpts) {
			o.Amount = amount
			o.Date = ref.Add(time.Duration(i) * b.plan.EscrowStep)
			o.Type = txType
			o.DescriptionKind = txDescription
			o.Description = EscrowNote
			o.CheckNumber = checkNumber
		})
		if err != nil {
			return err
		}
		st.fx.travelFunding = append(st.fx.travelFunding, *entry)
	}
	return nil
}

// rounds repeats the cardholder list n times: a, b, a, b, ...
func rounds(cardholders []model.Cardholder, n int) []*model.Cardholder {
	out := make([]*model.Cardholder, 0, len(cardholders)*n)
	for r := 0; r < n; r++ {
		for i := range cardholders {
			out = append(out, &cardholders[i])
		}
	}
	return out
}
