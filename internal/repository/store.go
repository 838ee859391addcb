package repository

import (
	"context"

	"github.com/forgo/finance-fixtures/internal/model"
)

// Store is the persistence capability the fixture builder writes through.
// Get methods return database.ErrNotFound (possibly wrapped) for missing records.
// List methods return records in creation order unless noted otherwise.
type Store interface {
	// Reset deletes every seeded record so a rebuild starts from an empty graph
	Reset(ctx context.Context) error

	UserStore
	ProgramStore
	SiteStore
	LedgerStore
}

// UserStore persists logins and their program grants
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GrantProgram(ctx context.Context, userID, programID string, grant model.ProgramGrant) error
}

// ProgramStore persists funding sources, programs and their geography
type ProgramStore interface {
	CreateFundingSource(ctx context.Context, fs *model.FundingSource) error
	GetFundingSource(ctx context.Context, id string) (*model.FundingSource, error)
	CreateProgram(ctx context.Context, program *model.Program) error
	GetProgram(ctx context.Context, id string) (*model.Program, error)
	AddProgramCountry(ctx context.Context, programID, countryID string) error
	CreateCountry(ctx context.Context, country *model.Country) error
	CreateStateProvince(ctx context.Context, state *model.StateProvince) error
	CreateAddress(ctx context.Context, address *model.Address) error
	CreateFunding(ctx context.Context, funding *model.Funding) error
}

// SiteStore persists studies, sites, coordinators and cardholders
type SiteStore interface {
	CreateStudy(ctx context.Context, study *model.Study) error
	GetStudy(ctx context.Context, id string) (*model.Study, error)
	CreateSite(ctx context.Context, site *model.Site) error
	GetSite(ctx context.Context, id string) (*model.Site, error)
	CreateSiteStudy(ctx context.Context, link *model.SiteStudy) error
	CreateSiteCoordinator(ctx context.Context, coordinator *model.SiteCoordinator) error
	AddCoordinatorStudy(ctx context.Context, coordinatorID, studyID string) error
	CreateCardholder(ctx context.Context, cardholder *model.Cardholder) error
	GetCardholder(ctx context.Context, id string) (*model.Cardholder, error)
	CreateAppointment(ctx context.Context, appointment *model.Appointment) error
}

// LedgerStore persists payments, deposits and escrow transactions
type LedgerStore interface {
	// CreatePayment writes the payment and its manual payment record together
	CreatePayment(ctx context.Context, payment *model.Payment, manual *model.ManualPayment) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	ListPaymentsByStatus(ctx context.Context, status model.PaymentStatus) ([]*model.Payment, error)
	CreateDeposit(ctx context.Context, deposit *model.Deposit) error
	ListDepositsByCardholder(ctx context.Context, cardholderID string) ([]*model.Deposit, error)
	CreateEscrowFunding(ctx context.Context, entry *model.EscrowFunding) error
	// ListEscrowByFundingSource orders entries by transaction date
	ListEscrowByFundingSource(ctx context.Context, fundingSourceID string) ([]*model.EscrowFunding, error)
}
