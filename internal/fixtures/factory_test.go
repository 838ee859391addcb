package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/finance-fixtures/internal/model"
	"github.com/forgo/finance-fixtures/internal/repository/memory"
)

// scaffold holds a minimal saved graph for ledger factory tests
type scaffold struct {
	f          *Factory
	store      *memory.Store
	requester  *model.User
	reviewer   *model.User
	fs         *model.FundingSource
	program    *model.Program
	study      *model.Study
	site       *model.Site
	cardholder *model.Cardholder
}

func newScaffold(t *testing.T) *scaffold {
	t.Helper()
	ctx := context.Background()
	s := &scaffold{store: memory.New()}
	s.f = NewFactory(s.store)

	var err error
	s.requester, err = s.f.CreateUser(ctx)
	require.NoError(t, err)
	s.reviewer, err = s.f.CreateUser(ctx)
	require.NoError(t, err)
	s.fs, err = s.f.CreateFundingSource(ctx)
	require.NoError(t, err)
	s.program, err = s.f.CreateProgram(ctx, s.fs)
	require.NoError(t, err)
	s.study, err = s.f.CreateStudy(ctx, s.program)
	require.NoError(t, err)
	s.site, err = s.f.CreateSite(ctx, s.requester)
	require.NoError(t, err)
	s.cardholder, err = s.f.CreateCardholder(ctx, s.site)
	require.NoError(t, err)
	return s
}

// ============================================================================
// User Fixtures
// ============================================================================

func TestFactory_CreateUser_Defaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	f := NewFactory(store)

	a, err := f.CreateUser(ctx)
	require.NoError(t, err)
	b, err := f.CreateUser(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, a.Username, b.Username)
	assert.Nil(t, a.Hash, "fixture users carry no hash")

	stored, err := store.GetUser(ctx, a.ID)
	require.NoError(t, err)
	assert.NoError(t, stored.CheckPassword("testpass123"))
	assert.Error(t, stored.CheckPassword("wrong"))
}

func TestFactory_CreateUser_WithGrants(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)

	user, err := s.f.CreateUser(ctx, WithGrants(s.program.ID, model.GrantReport, model.Grant1099))
	require.NoError(t, err)
	assert.True(t, user.HasGrant(s.program.ID, model.GrantReport))
	assert.True(t, user.HasGrant(s.program.ID, model.Grant1099))
	assert.False(t, user.HasGrant(s.program.ID, model.GrantAdmin))
}

func TestFactory_CreateUser_GrantOnMissingProgram(t *testing.T) {
	t.Parallel()
	store := memory.New()
	f := NewFactory(store)

	_, err := f.CreateUser(context.Background(), WithGrants("program:ghost", model.GrantAdmin))
	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.Zero(t, store.Counts()["user"])
}

func TestFactory_CreateUser_Duplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := NewFactory(memory.New())

	username := func(o *UserOpts) { o.Username = "jmad44" }
	_, err := f.CreateUser(ctx, username)
	require.NoError(t, err)
	_, err = f.CreateUser(ctx, username)
	assert.Error(t, err)
}

// ============================================================================
// Program Fixtures
// ============================================================================

func TestFactory_CreateProgram_MissingFundingSource(t *testing.T) {
	t.Parallel()
	f := NewFactory(memory.New())

	_, err := f.CreateProgram(context.Background(), &model.FundingSource{})
	assert.ErrorIs(t, err, ErrMissingDependency)

	_, err = f.CreateProgram(context.Background(), &model.FundingSource{ID: "funding_source:ghost"})
	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.Contains(t, err.Error(), "funding_source:ghost")
}

func TestFactory_CreateProgram_CurrencyFromFundingSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := NewFactory(memory.New())

	fs, err := f.CreateFundingSource(ctx, func(o *FundingSourceOpts) { o.Currency = "EUR" })
	require.NoError(t, err)

	program, err := f.CreateProgram(ctx, fs)
	require.NoError(t, err)
	assert.Equal(t, "EUR", program.Currency)
	assert.Equal(t, fs.ID, program.FundingSourceID)
}

func TestFactory_CreateFundingSource_InvalidThresholds(t *testing.T) {
	t.Parallel()
	f := NewFactory(memory.New())

	_, err := f.CreateFundingSource(context.Background(), func(o *FundingSourceOpts) {
		o.LowBalanceThreshold = decimal.NewFromInt(10)
		o.CriticalBalanceThreshold = decimal.NewFromInt(20)
	})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestFactory_CreateAddress_AddsProgramCountry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)

	first, err := s.f.CreateAddress(ctx, func(o *AddressOpts) { o.Program = s.program })
	require.NoError(t, err)
	second, err := s.f.CreateAddress(ctx, func(o *AddressOpts) { o.Program = s.program })
	require.NoError(t, err)

	assert.Equal(t, first.CountryID, second.CountryID)
	assert.Equal(t, []string{first.CountryID}, s.program.Countries)

	stored, err := s.store.GetProgram(ctx, s.program.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.CountryID}, stored.Countries)
}

func TestFactory_CreateFunding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)

	funding, err := s.f.CreateFunding(ctx, s.fs)
	require.NoError(t, err)
	assert.Equal(t, "150.00", funding.Amount.StringFixed(2))
	assert.Equal(t, s.fs.Currency, funding.Currency)

	_, err = s.f.CreateFunding(ctx, s.fs, func(o *FundingOpts) { o.Amount = decimal.Zero })
	assert.Error(t, err)
}

// ============================================================================
// Site Fixtures
// ============================================================================

func TestFactory_SiteCoordinator_MultipleStudies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)

	other, err := s.f.CreateStudy(ctx, s.program)
	require.NoError(t, err)
	_, err = s.f.CreateSiteStudy(ctx, s.site, s.study)
	require.NoError(t, err)

	coordinator, err := s.f.CreateSiteCoordinator(ctx, s.requester, s.site, func(o *SiteCoordinatorOpts) {
		o.Studies = []*model.Study{s.study}
	})
	require.NoError(t, err)
	require.NoError(t, s.f.AddCoordinatorStudy(ctx, coordinator, other))

	assert.Equal(t, []string{s.study.ID, other.ID}, coordinator.StudyIDs)
	stored, err := s.store.GetSiteCoordinator(ctx, coordinator.ID)
	require.NoError(t, err)
	assert.Equal(t, coordinator.StudyIDs, stored.StudyIDs)
}

func TestFactory_SiteCoordinator_MissingStudy(t *testing.T) {
	t.Parallel()
	s := newScaffold(t)

	_, err := s.f.CreateSiteCoordinator(context.Background(), s.requester, s.site, func(o *SiteCoordinatorOpts) {
		o.Studies = []*model.Study{{ID: "study:ghost"}}
	})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestFactory_CreateCardholder_DefaultsToSiteOwner(t *testing.T) {
	t.Parallel()
	s := newScaffold(t)

	assert.Equal(t, s.site.UserID, s.cardholder.UserID)
	assert.Equal(t, s.site.ID, s.cardholder.SiteID)
}

// ============================================================================
// Ledger Fixtures
// ============================================================================

func TestFactory_CreatePayment_Pending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)

	payment, err := s.f.CreatePayment(ctx, s.cardholder, s.study, s.requester)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Empty(t, payment.StatusChangedBy)

	manual, err := s.store.GetManualPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.True(t, manual.Amount.Equal(payment.Amount))
}

func TestFactory_CreatePayment_Approved(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)
	at := time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC)

	payment, err := s.f.CreatePayment(ctx, s.cardholder, s.study, s.requester, WithApproval(s.reviewer, at))
	require.NoError(t, err)

	stored, err := s.store.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusApproved, stored.Status)
	assert.Equal(t, s.reviewer.ID, stored.StatusChangedBy)
	require.NotNil(t, stored.StatusChangedOn)
	assert.True(t, stored.StatusChangedOn.Equal(at))
}

func TestFactory_CreatePayment_SelfReviewRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)

	_, err := s.f.CreatePayment(ctx, s.cardholder, s.study, s.requester, WithDecline(s.requester, time.Now()))
	assert.ErrorIs(t, err, model.ErrSelfReview)
	assert.Zero(t, s.store.Counts()["payment"], "nothing is written")
}

func TestFactory_CreatePayment_ReviewerRequired(t *testing.T) {
	t.Parallel()
	s := newScaffold(t)

	_, err := s.f.CreatePayment(context.Background(), s.cardholder, s.study, s.requester, WithApproval(nil, time.Now()))
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestFactory_CreatePayment_WithoutManualRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)

	_, err := s.f.CreatePayment(ctx, s.cardholder, s.study, s.requester, func(o *PaymentOpts) { o.Manual = false })
	require.NoError(t, err)
	assert.Equal(t, 1, s.store.Counts()["payment"])
	assert.Zero(t, s.store.Counts()["manual_payment"])
}

func TestFactory_CreatePayment_MissingPayee(t *testing.T) {
	t.Parallel()
	s := newScaffold(t)

	_, err := s.f.CreatePayment(context.Background(), &model.Cardholder{ID: "cardholder:ghost"}, s.study, s.requester)
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestFactory_CreateDeposit_HoldRequiresNote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)

	_, err := s.f.CreateDeposit(ctx, s.cardholder, s.study, OnHold(""))
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "processing_notes", verr.Errors[0].Field)

	held, err := s.f.CreateDeposit(ctx, s.cardholder, s.study, OnHold(HoldNote))
	require.NoError(t, err)
	assert.False(t, held.IsSettled())
}

func TestFactory_CreateDeposit_HeldCannotSettle(t *testing.T) {
	t.Parallel()
	at := time.Now()
	s := newScaffold(t)

	_, err := s.f.CreateDeposit(context.Background(), s.cardholder, s.study, OnHold(HoldNote), Settled(at))
	assert.Error(t, err)
	assert.Zero(t, s.store.Counts()["deposit"])
}

func TestFactory_CreateDeposit_MissingOrigin(t *testing.T) {
	t.Parallel()
	s := newScaffold(t)

	_, err := s.f.CreateDeposit(context.Background(), s.cardholder, s.study, func(o *DepositOpts) {
		o.Origin = &model.Payment{ID: "payment:ghost"}
	})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestFactory_CreateEscrowFunding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newScaffold(t)

	entry, err := s.f.CreateEscrowFunding(ctx, s.fs, func(o *EscrowFundingOpts) {
		o.Type = model.TransactionDebit
		o.DescriptionKind = model.DescriptionFee
		o.CheckNumber = "1776"
	})
	require.NoError(t, err)
	assert.Equal(t, s.fs.ID, entry.FundingSourceID)
	assert.Equal(t, model.TransactionDebit, entry.TransactionType)

	_, err = s.f.CreateEscrowFunding(ctx, s.fs, func(o *EscrowFundingOpts) {
		o.Type = model.TransactionType("transfer")
	})
	assert.Error(t, err)
}

func TestFactory_CreateAppointment_MissingCreator(t *testing.T) {
	t.Parallel()
	s := newScaffold(t)

	_, err := s.f.CreateAppointment(context.Background(), s.cardholder, s.study, &model.User{ID: "user:ghost"})
	assert.ErrorIs(t, err, ErrMissingDependency)
}
