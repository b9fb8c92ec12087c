// Package runtime wires configuration, stores, clients and the HTTP server
// into a runnable application.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	app "github.com/SolMeet-Labs/access_layer/internal/app"
	"github.com/SolMeet-Labs/access_layer/internal/app/httpapi"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage/postgres"
	"github.com/SolMeet-Labs/access_layer/internal/chain"
	"github.com/SolMeet-Labs/access_layer/internal/config"
	"github.com/SolMeet-Labs/access_layer/internal/database"
	"github.com/SolMeet-Labs/access_layer/internal/logging"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logging.Logger
	httpServer *http.Server
	pg         *postgres.Store
}

// NewApplication constructs a new application instance with default wiring.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	stores, pg, err := buildStores(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	ledger, err := chain.NewClient(chain.Config{
		RPCURL:         cfg.Ledger.RPCURL,
		Commitment:     cfg.Ledger.Commitment,
		Timeout:        cfg.Ledger.RequestTimeout,
		ConfirmTimeout: cfg.Ledger.ConfirmTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("configure ledger client: %w", err)
	}

	var wallet chain.WalletProvider = chain.UnavailableProvider{}
	if cfg.Ledger.SourceAddress != "" {
		provider, err := chain.NewKeyedProvider(cfg.Ledger.SourceAddress)
		if err != nil {
			return nil, fmt.Errorf("configure wallet provider: %w", err)
		}
		wallet = provider
	} else {
		log.Warn("LEDGER_SOURCE_ADDRESS not set; payments will report the wallet as not found")
	}

	application, err := app.New(stores, app.Deps{
		Wallet:      wallet,
		Ledger:      ledger,
		Destination: cfg.Ledger.Destination,
		TokenSecret: cfg.Auth.TokenSecret,
		TokenTTL:    cfg.Auth.TokenTTL,
		Catalog:     config.LoadCatalogOrDefault(cfg.CatalogPath),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}

	router := httpapi.NewRouter(application, cfg.RateLimit, log)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		httpServer: httpSrv,
		pg:         pg,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server and closes the stores.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}

func buildStores(cfg *config.Config, log *logging.Logger) (app.Stores, *postgres.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		// Nil stores default to the in-memory implementation.
		return app.Stores{}, nil, nil

	case "postgres":
		store, err := postgres.Open(cfg.Store.PostgresDSN)
		if err != nil {
			return app.Stores{}, nil, err
		}
		return app.Stores{Records: store, Directory: store}, store, nil

	case "docstore":
		client, err := database.NewClient(database.Config{
			URL:        cfg.Store.DocstoreURL,
			ServiceKey: cfg.Store.DocstoreKey,
		})
		if err != nil {
			return app.Stores{}, nil, err
		}
		// The document store holds subscription records only; the user
		// directory stays in memory with this backend.
		log.Warn("docstore backend keeps the user directory in memory")
		return app.Stores{Records: database.NewRecords(client)}, nil, nil

	default:
		return app.Stores{}, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
