// Package app ties the access layer services together.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
	"github.com/SolMeet-Labs/access_layer/internal/app/services/access"
	idsvc "github.com/SolMeet-Labs/access_layer/internal/app/services/identity"
	paymentsvc "github.com/SolMeet-Labs/access_layer/internal/app/services/payment"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage/memory"
	"github.com/SolMeet-Labs/access_layer/internal/chain"
	"github.com/SolMeet-Labs/access_layer/internal/logging"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Records   storage.RecordStore
	Directory storage.Directory
}

// Deps holds the external capabilities the application is constructed
// with. The ledger client and wallet provider are injected here, never
// referenced as ambient state.
type Deps struct {
	Wallet      chain.WalletProvider
	Ledger      paymentsvc.Ledger
	Destination string
	TokenSecret string
	TokenTTL    time.Duration
	Catalog     subscription.Catalog
}

// Application owns the identity manager, the payment flow and one access
// controller per identity session.
type Application struct {
	log *logging.Logger

	Identity *idsvc.Manager
	Payments *paymentsvc.Flow
	Records  storage.RecordStore
	Catalog  subscription.Catalog

	mu          sync.RWMutex
	controllers map[string]*access.Controller
}

// New builds a fully initialised application.
func New(stores Stores, deps Deps, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("ledger client is required")
	}
	if deps.Wallet == nil {
		deps.Wallet = chain.UnavailableProvider{}
	}
	if deps.Catalog.Subscribe <= 0 {
		deps.Catalog = subscription.DefaultCatalog()
	}

	mem := memory.New()
	if stores.Records == nil {
		stores.Records = mem
	}
	if stores.Directory == nil {
		stores.Directory = mem
	}

	tokens := idsvc.NewTokenIssuer(deps.TokenSecret, deps.TokenTTL)
	manager := idsvc.NewManager(stores.Directory, tokens, log.WithField("component", "identity"))
	flow := paymentsvc.New(deps.Wallet, deps.Ledger, deps.Destination, log.WithField("component", "payment"))

	return &Application{
		log:         log,
		Identity:    manager,
		Payments:    flow,
		Records:     stores.Records,
		Catalog:     deps.Catalog,
		controllers: make(map[string]*access.Controller),
	}, nil
}

// CreateSession opens an identity session with its access controller and
// returns the anonymous session token.
func (a *Application) CreateSession() (*idsvc.Session, string, error) {
	session, token, err := a.Identity.CreateSession()
	if err != nil {
		return nil, "", err
	}

	controller := access.New(session, a.Records, a.Payments, a.Catalog,
		a.log.WithField("component", "access").WithField("session_id", session.ID()))

	a.mu.Lock()
	a.controllers[session.ID()] = controller
	a.mu.Unlock()

	return session, token, nil
}

// Controller resolves the access controller for a session.
func (a *Application) Controller(sessionID string) (*access.Controller, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	controller, ok := a.controllers[sessionID]
	return controller, ok
}
