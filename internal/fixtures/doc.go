// Package fixtures seeds the finance fixture graph used by the browser suite.
//
// A Factory creates single entities with sensible defaults, customized with
// option functions:
//
//	f := fixtures.NewFactory(store)
//	fs, err := f.CreateFundingSource(ctx)
//	program, err := f.CreateProgram(ctx, fs, func(o *fixtures.ProgramOpts) {
//		o.GeneratesTaxForms = true
//	})
//
// A Builder drives the factory through the whole scenario graph: users,
// program, study and site, coordinators, cardholders, funding, approved
// payments with their settled and held deposits, declined payments,
// appointments and travel funding.
//
//	fx, err := fixtures.NewBuilder(store, fixtures.WithSeed(17)).Build(ctx)
//	login := fx.Login()
//	total := fx.DepositTotal(fx.Cardholders()[0].ID)
//
// Amounts come from the builder's random source only, so the same seed
// always yields the same amounts, choices and check numbers. Usernames of
// the generated users are random and do not consume the seeded source.
package fixtures
