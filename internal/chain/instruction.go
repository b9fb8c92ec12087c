package chain

import (
	"fmt"
	"math"

	"github.com/mr-tron/base58"
)

const (
	// DestinationWallet is the fixed address every payment is sent to.
	DestinationWallet = "HomxATUuN1Zr4uBaBCKyV5imdqJ9ZRt7DeDNRRuzdvVN"

	// SystemProgramID is the ledger's native transfer program.
	SystemProgramID = "11111111111111111111111111111111"

	// LamportsPerUnit converts catalog amounts to the ledger's base unit.
	LamportsPerUnit = 1_000_000_000

	publicKeyLength = 32
)

// TransferInstruction describes a value transfer between two addresses.
type TransferInstruction struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Lamports    uint64 `json:"lamports"`
	ProgramID   string `json:"program_id"`
}

// NewTransfer builds a transfer instruction for amount units from source to
// destination. Both addresses must be base58-encoded 32-byte public keys.
func NewTransfer(source, destination string, amount float64) (TransferInstruction, error) {
	if err := ValidateAddress(source); err != nil {
		return TransferInstruction{}, fmt.Errorf("source address: %w", err)
	}
	if err := ValidateAddress(destination); err != nil {
		return TransferInstruction{}, fmt.Errorf("destination address: %w", err)
	}
	if amount <= 0 {
		return TransferInstruction{}, fmt.Errorf("amount must be positive, got %v", amount)
	}

	return TransferInstruction{
		Source:      source,
		Destination: destination,
		Lamports:    uint64(math.Round(amount * LamportsPerUnit)),
		ProgramID:   SystemProgramID,
	}, nil
}

// ValidateAddress checks that the address is a base58-encoded 32-byte key.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address is empty")
	}
	decoded, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("decode base58: %w", err)
	}
	if len(decoded) != publicKeyLength {
		return fmt.Errorf("address decodes to %d bytes, want %d", len(decoded), publicKeyLength)
	}
	return nil
}
