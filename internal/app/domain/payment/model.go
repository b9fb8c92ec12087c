package payment

// Decline reasons surfaced to the caller. The flow does not retry; the user
// decides whether to attempt the payment again.
const (
	ReasonWalletUnavailable = "wallet-unavailable"
	ReasonLedgerError       = "ledger-error"
)

// Request describes a single transfer attempt. It is transient: built per
// action, never persisted.
type Request struct {
	Amount      float64 `json:"amount"`
	Destination string  `json:"destination"`
}

// Outcome is the result of one payment attempt.
type Outcome struct {
	Confirmed bool   `json:"confirmed"`
	Reason    string `json:"reason,omitempty"`
	Signature string `json:"signature,omitempty"`
	Err       error  `json:"-"`
}

// Confirm builds a confirmed outcome carrying the ledger signature.
func Confirm(signature string) Outcome {
	return Outcome{Confirmed: true, Signature: signature}
}

// Decline builds a declined outcome with a reason and the causing error.
func Decline(reason string, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}
