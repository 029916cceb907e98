// internal/service/providers.go
package service

import (
	"context"

	"dailychow-wallet/internal/provider"

	"github.com/shopspring/decimal"
)

// ChargeProvider is the charge side of a payment provider: it collects money
// from the user into the wallet. Calls are network I/O and must happen
// outside any held database transaction.
type ChargeProvider interface {
	Name() string
	InitializeCharge(ctx context.Context, req provider.ChargeRequest) (*provider.ChargeAuthorization, error)
	VerifyCharge(ctx context.Context, reference string) (*provider.ChargeStatus, error)
}

// TransferProvider is the payout side of a payment provider: it moves money
// from the wallet to the user's bank account. Same rule: never called while
// holding a database transaction.
type TransferProvider interface {
	Name() string
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*provider.ResolvedAccount, error)
	CreateRecipient(ctx context.Context, name, accountNumber, bankCode, currency string) (string, error)
	InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reference, reason string) error
}
