package generic

import "context"

// TxRunner runs fn inside one storage transaction. The transaction travels in
// the context, so stores called with that context join it, and a nested
// WithTx reuses the outer transaction instead of opening a new one.
//
// If fn returns an error nothing written inside it is kept.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
