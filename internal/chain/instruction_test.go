package chain

import "testing"

func TestNewTransfer(t *testing.T) {
	ix, err := NewTransfer("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T", DestinationWallet, 0.22)
	if err != nil {
		t.Fatalf("new transfer: %v", err)
	}
	if ix.Lamports != 220_000_000 {
		t.Fatalf("expected 220000000 lamports, got %d", ix.Lamports)
	}
	if ix.ProgramID != SystemProgramID {
		t.Fatalf("expected system program, got %s", ix.ProgramID)
	}
}

func TestNewTransferRounding(t *testing.T) {
	// 0.33 is not exactly representable; rounding must land on the cent.
	ix, err := NewTransfer(DestinationWallet, DestinationWallet, 0.33)
	if err != nil {
		t.Fatalf("new transfer: %v", err)
	}
	if ix.Lamports != 330_000_000 {
		t.Fatalf("expected 330000000 lamports, got %d", ix.Lamports)
	}
}

func TestNewTransferRejectsBadInput(t *testing.T) {
	cases := []struct {
		name                string
		source, destination string
		amount              float64
	}{
		{"empty source", "", DestinationWallet, 0.2},
		{"bad base58", "0OIl", DestinationWallet, 0.2},
		{"wrong length", "abc", DestinationWallet, 0.2},
		{"bad destination", DestinationWallet, "abc", 0.2},
		{"zero amount", DestinationWallet, DestinationWallet, 0},
		{"negative amount", DestinationWallet, DestinationWallet, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTransfer(tc.source, tc.destination, tc.amount); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	if err := ValidateAddress(SystemProgramID); err != nil {
		t.Fatalf("system program id must validate: %v", err)
	}
	if err := ValidateAddress("not-base58!"); err == nil {
		t.Fatalf("expected error for invalid characters")
	}
}
