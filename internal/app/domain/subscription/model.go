package subscription

import "github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"

// Record is the persisted subscription flag for a principal. One record per
// principal, keyed by principal ID, overwritten whole on every write.
type Record struct {
	PrincipalID string `json:"principal_id" db:"principal_id"`
	Subscribed  bool   `json:"subscribed" db:"subscribed"`
}

// State names a position in the access state machine.
type State string

const (
	StateLoggedOut            State = "logged_out"
	StateLoggedInUnsubscribed State = "logged_in_unsubscribed"
	StateLoggedInSubscribed   State = "logged_in_subscribed"
)

// AccessState is the single UI-facing view of a session: who is logged in
// and whether they hold a paid subscription.
type AccessState struct {
	State      State               `json:"state"`
	Principal  *identity.Principal `json:"principal,omitempty"`
	Subscribed bool                `json:"subscribed"`
}

// SessionKind names a purchasable session from the catalog.
const (
	SessionHalf = "half"
	SessionFull = "full"
)

// Catalog holds the fixed prices for the subscription and per-session
// payments, denominated in whole ledger units.
type Catalog struct {
	Subscribe float64            `yaml:"subscribe"`
	Sessions  map[string]float64 `yaml:"sessions"`
}

// DefaultCatalog returns the built-in price list.
func DefaultCatalog() Catalog {
	return Catalog{
		Subscribe: 0.22,
		Sessions: map[string]float64{
			SessionHalf: 0.2,
			SessionFull: 0.33,
		},
	}
}

// SessionPrice returns the price for a session kind.
func (c Catalog) SessionPrice(kind string) (float64, bool) {
	amount, ok := c.Sessions[kind]
	return amount, ok
}
