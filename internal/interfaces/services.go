package interfaces

import (
	"context"

	"github.com/art97081-arch/receip-bot/internal/api"
)

// ReceiptVerifier submits a receipt document to a verification provider and
// returns its verdict. Transport and provider failures are reported as
// error-class verdicts; the error return is reserved for broken usage
// (cancelled context, unreachable configuration).
type ReceiptVerifier interface {
	Verify(ctx context.Context, payload []byte, filename string) (*api.Verdict, error)
}

// AllowlistStore is the durable set of user IDs permitted to submit receipts.
// The owner ID is configured separately and never enters the store.
type AllowlistStore interface {
	Contains(id int64) bool
	// Add returns false without touching the store when id is already present.
	Add(id int64) (bool, error)
	// Remove returns false when id was not present.
	Remove(id int64) (bool, error)
	List() []int64
}
