package chain

import (
	"context"

	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
)

// WalletConnection is the ephemeral capability obtained from a wallet
// provider. Its lifetime is a single payment attempt; callers must not
// cache it across attempts.
type WalletConnection struct {
	PublicKey string
}

// WalletProvider connects to the user's wallet. The concrete provider is
// injected at the system boundary; the payment flow only sees this
// interface.
type WalletProvider interface {
	Connect(ctx context.Context) (WalletConnection, error)
}

// KeyedProvider is a wallet provider bound to a configured source address.
type KeyedProvider struct {
	publicKey string
}

var _ WalletProvider = (*KeyedProvider)(nil)

// NewKeyedProvider creates a provider for the given base58 address.
func NewKeyedProvider(address string) (*KeyedProvider, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	return &KeyedProvider{publicKey: address}, nil
}

// Connect hands out a fresh connection for one payment attempt.
func (p *KeyedProvider) Connect(_ context.Context) (WalletConnection, error) {
	return WalletConnection{PublicKey: p.publicKey}, nil
}

// UnavailableProvider stands in when no wallet is configured; every
// connection attempt reports the wallet as not found.
type UnavailableProvider struct{}

var _ WalletProvider = UnavailableProvider{}

func (UnavailableProvider) Connect(_ context.Context) (WalletConnection, error) {
	return WalletConnection{}, svcerrors.WalletNotFound()
}
