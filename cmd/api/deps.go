package main

import (
	"context"
	"fmt"
	"log"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"horizon/internal/domain/account"
	"horizon/internal/domain/bank"
	"horizon/internal/domain/notification"
	"horizon/internal/domain/payment"
	"horizon/internal/domain/preference"
	"horizon/internal/domain/transfer"
	"horizon/internal/domain/user"
	"horizon/internal/infrastructure/crypto"
	"horizon/internal/infrastructure/dwolla"
	"horizon/internal/infrastructure/firebase"
	"horizon/internal/infrastructure/identity"
	"horizon/internal/infrastructure/plaid"
	"horizon/internal/infrastructure/postgres"
	httphandlers "horizon/internal/interfaces/http"
	"horizon/internal/interfaces/scheduler"
	"horizon/internal/shared/auth"
	"horizon/internal/shared/config"
	"horizon/internal/shared/messages"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	AuthHandler         *httphandlers.AuthHandler
	UserHandler         *httphandlers.UserHandler
	BankHandler         *httphandlers.BankHandler
	AccountHandler      *httphandlers.AccountHandler
	TransferHandler     *httphandlers.TransferHandler
	NotificationHandler *httphandlers.NotificationHandler
	PreferenceHandler   *httphandlers.PreferenceHandler

	// Sessions backs the auth middleware.
	Sessions *user.Service

	// Background work; nil when SCHEDULER_ENABLED=false.
	Pool      *scheduler.WorkerPool
	Scheduler *scheduler.Scheduler
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	deps, err := wire(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return deps, nil
}

func wire(ctx context.Context, cfg *config.Config, db *postgres.DB) (*Dependencies, error) {
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	msgs, err := messages.Load(cfg.Server.MessagesFile)
	if err != nil {
		return nil, err
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db, encryptor)
	bankRepo := postgres.NewBankRepository(db, encryptor)
	transferRepo := postgres.NewTransferRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	preferenceRepo := postgres.NewPreferenceRepository(db)

	// External providers
	plaidClient, err := plaid.NewClient(plaid.Config{
		ClientID:     cfg.Plaid.ClientID,
		Secret:       cfg.Plaid.Secret,
		Env:          cfg.Plaid.Env,
		Products:     cfg.Plaid.Products,
		CountryCodes: cfg.Plaid.CountryCodes,
		Timeout:      cfg.Plaid.Timeout,
	})
	if err != nil {
		return nil, err
	}
	dwollaClient, err := dwolla.NewClient(dwolla.Config{
		Key:     cfg.Dwolla.Key,
		Secret:  cfg.Dwolla.Secret,
		Env:     cfg.Dwolla.Env,
		Timeout: cfg.Dwolla.Timeout,
	})
	if err != nil {
		return nil, err
	}

	// Firebase is optional unless it backs identity.
	var authClient *firebaseauth.Client
	var messenger notification.Messenger = logMessenger{}
	app, err := firebase.NewApp(ctx, cfg.Firebase.CredentialsFile)
	if err != nil {
		if cfg.Identity.Provider == config.IdentityProviderFirebase {
			return nil, err
		}
		log.Printf("Warning: Firebase unavailable, push notifications disabled: %v", err)
	} else {
		fcm, err := firebase.NewMessenger(ctx, app, notificationRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: Failed to initialize FCM, push notifications disabled: %v", err)
		} else {
			messenger = fcm
		}
		if cfg.Identity.Provider == config.IdentityProviderFirebase {
			authClient, err = app.Auth(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
			}
		}
	}

	var identityProvider user.IdentityProvider
	var purger scheduler.SessionPurger
	switch cfg.Identity.Provider {
	case config.IdentityProviderFirebase:
		identityProvider = identity.NewFirebase(authClient, identity.FirebaseConfig{
			WebAPIKey:  cfg.Firebase.WebAPIKey,
			SessionTTL: cfg.JWT.SessionTTL,
		})
	default:
		credentials := postgres.NewCredentialRepository(db)
		identityProvider = identity.NewLocal(credentials, auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.SessionTTL))
		purger = credentials
	}
	log.Printf("Identity provider: %s", cfg.Identity.Provider)

	// Domain services
	notificationService := notification.NewService(notificationRepo, messenger)

	// Push delivery leaves the request path when the pool is enabled.
	var notifier scheduler.Notifier = notificationService
	var pool *scheduler.WorkerPool
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		pool = scheduler.NewWorkerPool(cfg.Scheduler.WorkerCount, cfg.Scheduler.QueueSize)
		notifier = scheduler.NewAsyncNotifier(notificationService, pool)
		sched, err = scheduler.NewScheduler(pool, cfg.Scheduler.MaintenanceTimes, scheduler.MaintenanceJobs(purger))
		if err != nil {
			return nil, err
		}
	}
	userService := user.NewService(userRepo, identityProvider, dwollaClient)
	bankService := bank.NewService(
		bankRepo,
		plaidClient,
		payment.NewRegistrar(dwollaClient),
		dwollaClient,
		encryptor,
		notifier,
		msgs,
	)
	transferService := transfer.NewService(
		transferRepo,
		bankRepo,
		dwollaClient,
		encryptor,
		userService,
		notifier,
		msgs,
	)
	reader := account.NewReader(bankRepo, transferRepo, plaidClient)
	preferenceService := preference.NewService(preferenceRepo)

	return &Dependencies{
		DB:                  db,
		AuthHandler:         httphandlers.NewAuthHandler(userService),
		UserHandler:         httphandlers.NewUserHandler(userService),
		BankHandler:         httphandlers.NewBankHandler(bankService, userService),
		AccountHandler:      httphandlers.NewAccountHandler(reader, cfg.Accounts.TransactionsPerPage),
		TransferHandler:     httphandlers.NewTransferHandler(transferService),
		NotificationHandler: httphandlers.NewNotificationHandler(notificationService),
		PreferenceHandler:   httphandlers.NewPreferenceHandler(preferenceService),
		Sessions:            userService,
		Pool:                pool,
		Scheduler:           sched,
	}, nil
}

// logMessenger stands in for FCM when Firebase is not configured.
type logMessenger struct{}

func (logMessenger) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	log.Printf("Push disabled, dropping %q for %d device(s)", title, len(tokens))
	return nil
}

// Start launches background workers.
func (d *Dependencies) Start() {
	if d.Pool != nil {
		d.Pool.Start()
	}
	if d.Scheduler != nil {
		d.Scheduler.Start()
	}
}

// Stop drains background work, giving queued pushes up to timeout.
func (d *Dependencies) Stop(timeout time.Duration) {
	if d.Scheduler != nil {
		d.Scheduler.Shutdown()
	}
	if d.Pool != nil {
		d.Pool.Shutdown(timeout)
	}
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
