package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/forgo/finance-fixtures/internal/config"
	"github.com/forgo/finance-fixtures/internal/database"
	"github.com/forgo/finance-fixtures/internal/fixtures"
	"github.com/forgo/finance-fixtures/internal/repository"
	"github.com/forgo/finance-fixtures/internal/repository/memory"
	"github.com/forgo/finance-fixtures/migrations"
)

func main() {
	planPath := flag.String("plan", "", "Path to a YAML plan file (overrides SEED_PLAN)")
	inMemory := flag.Bool("memory", false, "Build into an in-memory store instead of SurrealDB")
	outputJSON := flag.Bool("json", false, "Print the fixture summary as JSON on stdout")
	keep := flag.Bool("keep", false, "Keep previously seeded records instead of resetting (overrides SEED_RESET)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *planPath != "" {
		if err := cfg.ApplyPlanFile(*planPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load plan: %v\n", err)
			os.Exit(1)
		}
	}
	if *inMemory {
		cfg.Seed.Store = config.StoreMemory
	}
	if *keep {
		cfg.Seed.Reset = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level, _ := cfg.Level()
	// Logs go to stderr so -json output stays parseable
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *outputJSON); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

// prepareSurreal applies the embedded schema and, when reset is set, clears
// the records of a previous run so usernames and totals stay unique to this run
func prepareSurreal(ctx context.Context, db database.Database, reset bool, logger *slog.Logger) (*repository.SurrealStore, error) {
	applied, err := database.Migrate(ctx, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("schema applied", slog.Any("migrations", applied))

	store := repository.NewSurrealStore(db)
	if reset {
		if err := store.Reset(ctx); err != nil {
			return nil, err
		}
		logger.Info("previous fixtures removed", slog.Int("tables", len(repository.SeededTables)))
	}
	return store, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, outputJSON bool) error {
	var store repository.Store
	switch cfg.Seed.Store {
	case config.StoreMemory:
		store = memory.New()
		logger.Info("using in-memory store")
	default:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
		})

		connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		err := db.Connect(connectCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() { _ = db.Close() }()

		logger.Info("connected to database",
			slog.String("host", cfg.Database.Host),
			slog.String("namespace", cfg.Database.Namespace),
			slog.String("database", cfg.Database.Database),
		)
		surreal, err := prepareSurreal(ctx, db, cfg.Seed.Reset, logger)
		if err != nil {
			return err
		}
		store = surreal
	}

	builder := fixtures.NewBuilder(store,
		fixtures.WithSeed(cfg.Seed.Value),
		fixtures.WithPlan(cfg.Seed.Plan),
		fixtures.WithPassword(cfg.Seed.Password),
		fixtures.WithLogger(logger),
	)
	fx, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fx.Summary())
	}

	login := fx.Login()
	fmt.Println("Fixtures Seeded")
	fmt.Println("===============")
	fmt.Printf("Login:          %s / %s\n", login.Username, login.Password)
	fmt.Printf("Reference date: %s\n", fx.ReferenceDate().Format("2006-01-02"))
	fmt.Printf("Study:          %s\n", fx.Study().ID)
	for _, ch := range fx.Cardholders() {
		fmt.Printf("Cardholder:     %-20s %s deposited\n", ch.FullName(), fx.DepositTotal(ch.ID).StringFixed(2))
	}
	return nil
}
