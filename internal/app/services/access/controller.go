// Package access implements the access state machine: it reconciles the
// identity session, the persisted subscription record and payment outcomes
// into one consistent UI-facing access state.
package access

import (
	"context"
	"fmt"
	"sync"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"
	"github.com/SolMeet-Labs/access_layer/internal/app/domain/payment"
	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
	"github.com/SolMeet-Labs/access_layer/internal/app/metrics"
	idsession "github.com/SolMeet-Labs/access_layer/internal/app/services/identity"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
	"github.com/SolMeet-Labs/access_layer/internal/logging"
)

// PaymentFlow authorizes a single transfer attempt.
type PaymentFlow interface {
	Pay(ctx context.Context, amount float64) payment.Outcome
}

// WatchFunc receives access state snapshots after every transition.
type WatchFunc func(subscription.AccessState)

// Controller owns the access state for one identity session.
//
// States: LoggedOut, LoggedInUnsubscribed, LoggedInSubscribed. Transitions
// are driven by principal-changed events from the session and by the
// subscribe / session-payment actions. Every payment-triggered transition
// is a single user-initiated attempt; nothing here retries.
type Controller struct {
	session  *idsession.Session
	records  storage.RecordStore
	payments PaymentFlow
	catalog  subscription.Catalog
	log      *logging.Logger

	mu    sync.Mutex
	state subscription.AccessState
	// gen invalidates record lookups that complete after a newer
	// login/logout; without it a stale lookup could resurrect a
	// logged-out session.
	gen uint64

	watchers  map[int]WatchFunc
	nextWatch int

	unsubscribe func()
}

// New builds a controller and subscribes it to the session's
// principal-changed stream. The subscription fires immediately, so the
// controller starts in the state matching the session's current principal.
func New(session *idsession.Session, records storage.RecordStore, payments PaymentFlow, catalog subscription.Catalog, log *logging.Logger) *Controller {
	if catalog.Subscribe <= 0 {
		catalog = subscription.DefaultCatalog()
	}
	if log == nil {
		log = logging.NewDefault("access")
	}

	c := &Controller{
		session:  session,
		records:  records,
		payments: payments,
		catalog:  catalog,
		log:      log,
		state:    subscription.AccessState{State: subscription.StateLoggedOut},
		watchers: make(map[int]WatchFunc),
	}
	c.unsubscribe = session.Subscribe(c.onPrincipalChanged)
	return c
}

// Close detaches the controller from the session stream.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// State returns the current access state.
func (c *Controller) State() subscription.AccessState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Watch registers a state observer. The returned function cancels it.
func (c *Controller) Watch(fn WatchFunc) func() {
	c.mu.Lock()
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) onPrincipalChanged(p *identity.Principal) {
	c.mu.Lock()
	c.gen++
	gen := c.gen

	if p == nil {
		// Logout: no record lookup happens for an absent principal.
		c.state = subscription.AccessState{State: subscription.StateLoggedOut}
		st := c.state
		c.mu.Unlock()
		c.notify(st)
		return
	}
	c.mu.Unlock()

	subscribed := false
	record, found, err := c.records.GetSubscription(context.Background(), p.ID)
	switch {
	case err != nil:
		// Non-fatal: the user lands unsubscribed and the store error is
		// only logged, mirroring the record-load policy.
		c.log.WithError(err).WithField("principal_id", p.ID).
			Warn("subscription record load failed; treating as absent")
	case found:
		subscribed = record.Subscribed
	}

	c.mu.Lock()
	if c.gen != gen {
		// A newer login/logout superseded this lookup.
		c.mu.Unlock()
		return
	}
	state := subscription.StateLoggedInUnsubscribed
	if subscribed {
		state = subscription.StateLoggedInSubscribed
	}
	c.state = subscription.AccessState{
		State:      state,
		Principal:  p,
		Subscribed: subscribed,
	}
	st := c.state
	c.mu.Unlock()
	c.notify(st)
}

// Subscribe runs the one-time subscription payment. Only available from
// LoggedInUnsubscribed; once subscribed the affordance is gone, so the
// subscription amount is paid at most once per subscription.
func (c *Controller) Subscribe(ctx context.Context) (subscription.AccessState, error) {
	c.mu.Lock()
	if c.state.State != subscription.StateLoggedInUnsubscribed || c.state.Principal == nil {
		st := c.state
		c.mu.Unlock()
		return st, svcerrors.NotAllowed("subscription is not available in the current state")
	}
	principal := *c.state.Principal
	c.mu.Unlock()

	outcome := c.payments.Pay(ctx, c.catalog.Subscribe)
	if !outcome.Confirmed {
		metrics.RecordPayment("subscribe", "declined")
		// Declined payments leave the state untouched and never reach
		// the record store.
		return c.State(), declineError(outcome)
	}
	metrics.RecordPayment("subscribe", "confirmed")

	// Optimistic flip: the state advances on payment confirmation and is
	// not rolled back if the record write below fails. The write failure
	// is logged and counted instead.
	c.mu.Lock()
	advanced := c.state.Principal != nil && c.state.Principal.ID == principal.ID
	if advanced {
		c.state.Subscribed = true
		c.state.State = subscription.StateLoggedInSubscribed
	}
	st := c.state
	c.mu.Unlock()
	if advanced {
		c.notify(st)
	} else {
		c.log.WithContext(ctx).WithField("principal_id", principal.ID).
			Warn("payment confirmed after logout; access state not advanced")
	}

	record := subscription.Record{PrincipalID: principal.ID, Subscribed: true}
	if err := c.records.PutSubscription(ctx, record); err != nil {
		metrics.RecordWriteFailure()
		c.log.WithContext(ctx).WithError(err).
			WithField("principal_id", principal.ID).
			Warn("subscription record write failed; in-memory state kept")
	}

	return st, nil
}

// PaySession runs a per-session payment from the catalog. Only available
// while subscribed; the state self-loops and nothing is persisted for
// session payments.
func (c *Controller) PaySession(ctx context.Context, kind string) (payment.Outcome, error) {
	c.mu.Lock()
	allowed := c.state.State == subscription.StateLoggedInSubscribed
	c.mu.Unlock()
	if !allowed {
		return payment.Outcome{}, svcerrors.NotAllowed("session payments require an active subscription")
	}

	amount, ok := c.catalog.SessionPrice(kind)
	if !ok {
		return payment.Outcome{}, svcerrors.InvalidInput(fmt.Sprintf("unknown session kind %q", kind))
	}

	outcome := c.payments.Pay(ctx, amount)
	if !outcome.Confirmed {
		metrics.RecordPayment(kind, "declined")
		return outcome, declineError(outcome)
	}
	metrics.RecordPayment(kind, "confirmed")
	return outcome, nil
}

func (c *Controller) notify(st subscription.AccessState) {
	c.mu.Lock()
	fns := make([]WatchFunc, 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func declineError(outcome payment.Outcome) error {
	if svcErr := svcerrors.GetServiceError(outcome.Err); svcErr != nil {
		return svcErr
	}
	if outcome.Reason == payment.ReasonWalletUnavailable {
		return svcerrors.WalletNotFound()
	}
	return svcerrors.LedgerRejected(outcome.Err)
}
