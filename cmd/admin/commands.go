package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"horizon/internal/domain/account"
	"horizon/internal/infrastructure/crypto"
	"horizon/internal/infrastructure/plaid"
	"horizon/internal/infrastructure/postgres"
	"horizon/internal/shared/config"
	"horizon/internal/shared/result"
)

var (
	timeout time.Duration
	userID  string
	itemID  string
	page    int

	rootCmd = &cobra.Command{
		Use:          "admin",
		Short:        "Management commands for the Horizon API",
		SilenceUsage: true,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE:  runMigrate,
	}

	accountsCmd = &cobra.Command{
		Use:     "accounts",
		Short:   "Print the account summary for a user as JSON",
		Example: "  admin accounts --user-id=6f1c2e9a-...",
		RunE:    runAccounts,
	}

	transactionsCmd = &cobra.Command{
		Use:     "transactions",
		Short:   "Print one page of a bank's merged transactions as JSON",
		Example: "  admin transactions --user-id=6f1c... --item-id=9b2d... --page=2",
		RunE:    runTransactions,
	}

	purgeSessionsCmd = &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete expired local sessions",
		RunE:  runPurgeSessions,
	}
)

// env is the slice of the application the admin commands need.
type env struct {
	cfg *config.Config
	db  *postgres.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")
	return &env{cfg: cfg, db: db}, nil
}

func (e *env) context() (context.Context, context.CancelFunc) {
	d := timeout
	if d <= 0 {
		d = e.cfg.Accounts.SyncTimeout
	}
	return context.WithTimeout(context.Background(), d)
}

func (e *env) reader() (*account.Reader, error) {
	encryptor, err := crypto.NewEncryptor(e.cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}
	plaidClient, err := plaid.NewClient(plaid.Config{
		ClientID:     e.cfg.Plaid.ClientID,
		Secret:       e.cfg.Plaid.Secret,
		Env:          e.cfg.Plaid.Env,
		Products:     e.cfg.Plaid.Products,
		CountryCodes: e.cfg.Plaid.CountryCodes,
		Timeout:      e.cfg.Plaid.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return account.NewReader(
		postgres.NewBankRepository(e.db, encryptor),
		postgres.NewTransferRepository(e.db),
		plaidClient,
	), nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.db.Close()

	ctx, cancel := e.context()
	defer cancel()

	start := time.Now()
	if err := e.db.Migrate(ctx); err != nil {
		return err
	}
	log.Printf("Schema applied in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

func runAccounts(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.db.Close()

	reader, err := e.reader()
	if err != nil {
		return err
	}
	ctx, cancel := e.context()
	defer cancel()

	return printJSON(reader.GetAccounts(ctx, userID))
}

func runTransactions(cmd *cobra.Command, args []string) error {
	if page < 1 {
		return fmt.Errorf("--page must be at least 1")
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.db.Close()

	reader, err := e.reader()
	if err != nil {
		return err
	}
	ctx, cancel := e.context()
	defer cancel()

	res := reader.GetAccount(ctx, userID, itemID)
	rowsPerPage := e.cfg.Accounts.TransactionsPerPage
	return printJSON(result.Map(res, func(d *account.AccountDetail) *account.Page {
		if d == nil {
			return nil
		}
		p := account.Paginate(d.Transactions, page, rowsPerPage)
		return &p
	}))
}

func runPurgeSessions(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.db.Close()

	ctx, cancel := e.context()
	defer cancel()

	n, err := postgres.NewCredentialRepository(e.db).PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}
	log.Printf("Purged %d expired session(s)", n)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
