package core

import "context"

type (
	// Transactor runs a unit of work atomically against the document store.
	// The context handed to fn carries the transaction; repositories called with it take part in it.
	// If fn returns an error nothing it wrote is persisted.
	Transactor interface {
		WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	}

	// TransactorFunc adapts a function to Transactor.
	TransactorFunc func(ctx context.Context, fn func(ctx context.Context) error) error
)

func (f TransactorFunc) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}
