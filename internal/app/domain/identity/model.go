package identity

// Principal is an authenticated identity: an opaque ID plus the display
// credential it was registered with. A principal exists only while its
// identity session is active.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
