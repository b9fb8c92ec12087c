// Package payment implements the payment-authorization flow: connect a
// wallet, fetch a fresh reference, build the transfer instruction and
// submit it to the ledger.
package payment

import (
	"context"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/payment"
	"github.com/SolMeet-Labs/access_layer/internal/chain"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
	"github.com/SolMeet-Labs/access_layer/internal/logging"
)

// Ledger is the subset of the chain client the flow needs.
type Ledger interface {
	LatestReference(ctx context.Context) (chain.Reference, error)
	Submit(ctx context.Context, ix chain.TransferInstruction, ref chain.Reference) (chain.Confirmation, error)
}

// Flow authorizes transfers of a given amount from the connected wallet to
// the fixed destination address. One attempt per call, no retry; the caller
// decides whether to re-prompt the user. No state is mutated here.
type Flow struct {
	wallet      chain.WalletProvider
	ledger      Ledger
	destination string
	log         *logging.Logger
}

// New constructs a payment flow. An empty destination falls back to the
// fixed destination wallet.
func New(wallet chain.WalletProvider, ledger Ledger, destination string, log *logging.Logger) *Flow {
	if destination == "" {
		destination = chain.DestinationWallet
	}
	if log == nil {
		log = logging.NewDefault("payment")
	}
	return &Flow{
		wallet:      wallet,
		ledger:      ledger,
		destination: destination,
		log:         log,
	}
}

// Pay attempts a single transfer of amount units to the destination.
func (f *Flow) Pay(ctx context.Context, amount float64) payment.Outcome {
	conn, err := f.wallet.Connect(ctx)
	if err != nil {
		f.log.WithContext(ctx).WithError(err).Warn("wallet connection failed")
		return payment.Decline(payment.ReasonWalletUnavailable, err)
	}

	// The reference is fetched fresh for every attempt; caching one would
	// defeat its replay protection.
	ref, err := f.ledger.LatestReference(ctx)
	if err != nil {
		f.log.WithContext(ctx).WithError(err).Warn("reference fetch failed")
		return payment.Decline(payment.ReasonLedgerError, err)
	}

	ix, err := chain.NewTransfer(conn.PublicKey, f.destination, amount)
	if err != nil {
		return payment.Decline(payment.ReasonLedgerError, svcerrors.LedgerRejected(err))
	}

	confirmation, err := f.ledger.Submit(ctx, ix, ref)
	if err != nil {
		f.log.WithContext(ctx).WithError(err).
			WithField("amount", amount).
			Warn("instruction submission failed")
		return payment.Decline(payment.ReasonLedgerError, err)
	}

	f.log.WithContext(ctx).
		WithField("amount", amount).
		WithField("signature", confirmation.Signature).
		Info("payment confirmed")
	return payment.Confirm(confirmation.Signature)
}
